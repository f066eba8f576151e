package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDocument(t *testing.T) {
	d := NewDocument("/inbox/Fehler/invoice_attempt2.PDF")

	assert.Equal(t, "invoice_attempt2.PDF", d.Name)
	assert.Equal(t, "invoice_attempt2", d.Stem)
	assert.Equal(t, ".PDF", d.Ext)
	assert.Equal(t, "invoice", d.BaseStem)
	assert.Equal(t, 2, d.Attempt)
}

func TestNewDocument_NoToken(t *testing.T) {
	d := NewDocument("/inbox/scan1.pdf")

	assert.Equal(t, "scan1", d.BaseStem)
	assert.Equal(t, 0, d.Attempt)
}

func TestParseAttempt(t *testing.T) {
	cases := []struct {
		stem    string
		base    string
		attempt int
		ok      bool
	}{
		{"doc", "doc", 0, false},
		{"doc_attempt3", "doc", 3, true},
		{"doc_attempt12_1", "doc", 12, true},
		{"doc_attempt2_999", "doc", 2, true},
		{"Sitzung_attempt1_2024", "Sitzung_attempt1_2024", 0, false},
		{"doc_attempt1_07", "doc_attempt1_07", 0, false},
		{"doc_attempt1_0", "doc_attempt1_0", 0, false},
		{"doc_attempt2_attempt3", "doc_attempt2", 3, true},
		{"doc_attempt", "doc_attempt", 0, false},
		{"attempt3", "attempt3", 0, false},
		{"doc_attempt3x", "doc_attempt3x", 0, false},
		{"doc_attempt99999999999999999999999", "doc_attempt99999999999999999999999", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.stem, func(t *testing.T) {
			base, n, ok := ParseAttempt(tc.stem)
			assert.Equal(t, tc.base, base)
			assert.Equal(t, tc.attempt, n)
			assert.Equal(t, tc.ok, ok)
		})
	}
}

func TestFormatAttempt_RoundTrip(t *testing.T) {
	for _, n := range []int{1, 2, 9, 10, 250} {
		base, got, ok := ParseAttempt(FormatAttempt("Quartalsbericht_2024", n))
		assert.True(t, ok)
		assert.Equal(t, n, got)
		assert.Equal(t, "Quartalsbericht_2024", base)
	}
}

func TestWithSuffix(t *testing.T) {
	assert.Equal(t, "a.pdf", WithSuffix("a", ".pdf", 0))
	assert.Equal(t, "a_3.pdf", WithSuffix("a", ".pdf", 3))
	assert.Equal(t, "a_1", WithSuffix("a", "", 1))
}
