package export

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docrenamer/constants"
	"github.com/joseph-ayodele/docrenamer/internal/repository"
)

type stubLister struct {
	events   []repository.Event
	err      error
	from, to *time.Time
}

func (s *stubLister) ListEvents(_ context.Context, from, to *time.Time) ([]repository.Event, error) {
	s.from, s.to = from, to
	return s.events, s.err
}

func TestExportEventsXLSX(t *testing.T) {
	ts := time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC)
	lister := &stubLister{events: []repository.Event{
		{Document: "scan1.pdf", SourcePath: "/w/scan1.pdf", ResultPath: "/w/Verarbeitet/Q1_Report.pdf", Status: constants.EventProcessed, Pages: 2, CreatedAt: ts},
		{Document: "bad.pdf", SourcePath: "/w/bad.pdf", ResultPath: "/w/Fehler/bad.pdf", Status: constants.EventFailed, Reason: "no text extracted", CreatedAt: ts.Add(time.Minute)},
	}}

	data, err := NewService(lister, nil).ExportEventsXLSX(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, lister.from)
	assert.Nil(t, lister.to)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())
	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Document", rows[0][1])
	assert.Equal(t, []string{"2024-05-02 08:30:00", "scan1.pdf", "PROCESSED", "0", "2", "/w/scan1.pdf", "/w/Verarbeitet/Q1_Report.pdf"}, rows[1])
	assert.Equal(t, "FAILED", rows[2][2])
	assert.Equal(t, "no text extracted", rows[2][7])
}

func TestExportEventsXLSX_DateWindowIsInclusive(t *testing.T) {
	lister := &stubLister{}
	from := time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC)

	_, err := NewService(lister, nil).ExportEventsXLSX(context.Background(), &from, &to)
	require.NoError(t, err)

	require.NotNil(t, lister.from)
	require.NotNil(t, lister.to)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), *lister.from)
	assert.Equal(t, time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC), *lister.to)
}

func TestExportEventsXLSX_OnlyFromRunsToToday(t *testing.T) {
	lister := &stubLister{}
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := NewService(lister, nil).ExportEventsXLSX(context.Background(), &from, nil)
	require.NoError(t, err)
	require.NotNil(t, lister.to)
	assert.True(t, lister.to.After(time.Now()))
}

func TestExportEventsXLSX_QueryError(t *testing.T) {
	_, err := NewService(&stubLister{err: errors.New("db down")}, nil).ExportEventsXLSX(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "äö…", truncate("äöüß", 3))
}
