package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docrenamer/constants"
	"github.com/joseph-ayodele/docrenamer/internal/common"
)

func openTestJournal(t *testing.T) *SQLJournal {
	t.Helper()
	ctx := context.Background()
	db, pool, err := Open(ctx, Config{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "journal.db")}, nil)
	require.NoError(t, err)
	require.Nil(t, pool)
	t.Cleanup(func() { Close(db, pool, nil) })
	require.NoError(t, HealthCheck(ctx, db, time.Second, nil))

	j := NewSQLJournal(db, DriverSQLite, nil)
	require.NoError(t, j.Migrate(ctx))
	// idempotent
	require.NoError(t, j.Migrate(ctx))
	return j
}

func TestSQLJournal_RecordAndList(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	events := []Event{
		{Document: "scan1.pdf", SourcePath: "/w/scan1.pdf", ResultPath: "/w/Verarbeitet/Q1_Report.pdf", Status: constants.EventProcessed, Pages: 2, CreatedAt: base},
		{Document: "bad.pdf", SourcePath: "/w/bad.pdf", ResultPath: "/w/Fehler/bad.pdf", Status: constants.EventFailed, Reason: "no text extracted", CreatedAt: base.Add(time.Hour)},
		{Document: "bad.pdf", SourcePath: "/w/Fehler/bad.pdf", ResultPath: "/w/bad_attempt2.pdf", Status: constants.EventRequeued, Attempt: 2, CreatedAt: base.Add(24 * time.Hour)},
	}
	for _, ev := range events {
		require.NoError(t, j.Record(ctx, ev))
	}

	all, err := j.ListEvents(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.NotEqual(t, uuid.Nil, all[0].ID)
	assert.Equal(t, "scan1.pdf", all[0].Document)
	assert.Equal(t, constants.EventProcessed, all[0].Status)
	assert.Equal(t, 2, all[0].Pages)
	assert.True(t, base.Equal(all[0].CreatedAt), "got %v", all[0].CreatedAt)
	assert.Equal(t, "no text extracted", all[1].Reason)
	assert.Equal(t, 2, all[2].Attempt)

	from := base.Add(30 * time.Minute)
	to := base.Add(2 * time.Hour)
	window, err := j.ListEvents(ctx, &from, &to)
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, constants.EventFailed, window[0].Status)
}

func TestSQLJournal_DefaultsIDAndTime(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)

	before := time.Now().Add(-time.Second)
	require.NoError(t, j.Record(ctx, Event{Document: "a.pdf", SourcePath: "/w/a.pdf", Status: constants.EventExhausted, Attempt: 3}))

	got, err := j.ListEvents(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotEqual(t, uuid.Nil, got[0].ID)
	assert.True(t, got[0].CreatedAt.After(before))
}

func TestSQLJournal_RejectsUnknownStatus(t *testing.T) {
	j := openTestJournal(t)
	err := j.Record(context.Background(), Event{Document: "a.pdf", Status: "DONE"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestRebind(t *testing.T) {
	pg := NewSQLJournal(nil, DriverPgx, nil)
	assert.Equal(t, "a = $1 AND b < $2", pg.rebind("a = ? AND b < ?"))

	lite := NewSQLJournal(nil, DriverSQLite, nil)
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, _, err := Open(context.Background(), Config{Driver: "oracle", DSN: "x"}, nil)
	assert.Error(t, err)
}

func TestNopJournal(t *testing.T) {
	assert.NoError(t, NopJournal{}.Record(context.Background(), Event{}))
}
