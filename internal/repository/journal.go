package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docrenamer/constants"
	"github.com/joseph-ayodele/docrenamer/internal/common"
)

// Event is one row of document_events: a single lifecycle transition.
type Event struct {
	ID         uuid.UUID
	Document   string // base name at the time of the event
	SourcePath string
	ResultPath string // empty when nothing was moved
	Status     constants.EventStatus
	Attempt    int
	Reason     string
	Pages      int
	CreatedAt  time.Time
}

// Journal records document transitions. It is an audit log only; routing never
// depends on it.
type Journal interface {
	Record(ctx context.Context, ev Event) error
}

// EventLister reads back journaled events.
type EventLister interface {
	// ListEvents returns events with from <= created_at < to, oldest first.
	// Nil bounds are open.
	ListEvents(ctx context.Context, from, to *time.Time) ([]Event, error)
}

// NopJournal drops every event. Used when no journal is configured.
type NopJournal struct{}

func (NopJournal) Record(context.Context, Event) error { return nil }

type SQLJournal struct {
	db      *sql.DB
	dialect string
	logger  *slog.Logger
}

// NewSQLJournal wraps db. driver selects the placeholder and DDL dialect.
func NewSQLJournal(db *sql.DB, driver string, logger *slog.Logger) *SQLJournal {
	if logger == nil {
		logger = slog.Default()
	}
	dialect := strings.ToLower(driver)
	if dialect == "" {
		dialect = DriverSQLite
	}
	return &SQLJournal{db: db, dialect: dialect, logger: logger}
}

// Migrate creates the document_events table and its index if missing.
func (j *SQLJournal) Migrate(ctx context.Context) error {
	tsType := "TIMESTAMP"
	if j.dialect == DriverPgx {
		tsType = "TIMESTAMPTZ"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS document_events (
			id          TEXT PRIMARY KEY,
			document    TEXT NOT NULL,
			source_path TEXT NOT NULL,
			result_path TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL,
			attempt     INTEGER NOT NULL DEFAULT 0,
			reason      TEXT NOT NULL DEFAULT '',
			pages       INTEGER NOT NULL DEFAULT 0,
			created_at  ` + tsType + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_document_events_created_at ON document_events (created_at)`,
	}
	for _, s := range stmts {
		if _, err := j.db.ExecContext(ctx, s); err != nil {
			return common.NewAppError(common.CodeJournal, "migrate document_events", err)
		}
	}
	j.logger.Debug("journal schema ready", "dialect", j.dialect)
	return nil
}

func (j *SQLJournal) Record(ctx context.Context, ev Event) error {
	if !slices.Contains(constants.AllEventStatuses, ev.Status) {
		return common.NewAppError(common.CodeJournal, fmt.Sprintf("unknown event status %q", ev.Status), common.ErrInvalidInput)
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	q := j.rebind(`INSERT INTO document_events
		(id, document, source_path, result_path, status, attempt, reason, pages, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := j.db.ExecContext(ctx, q,
		ev.ID.String(), ev.Document, ev.SourcePath, ev.ResultPath, string(ev.Status),
		ev.Attempt, ev.Reason, ev.Pages, ev.CreatedAt.UTC(),
	)
	if err != nil {
		j.logger.Error("failed to record journal event", "document", ev.Document, "status", ev.Status, "error", err)
		return common.NewAppError(common.CodeJournal, "insert document_event", err)
	}
	return nil
}

func (j *SQLJournal) ListEvents(ctx context.Context, from, to *time.Time) ([]Event, error) {
	var (
		where []string
		args  []any
	)
	if from != nil {
		where = append(where, "created_at >= ?")
		args = append(args, from.UTC())
	}
	if to != nil {
		where = append(where, "created_at < ?")
		args = append(args, to.UTC())
	}
	q := `SELECT id, document, source_path, result_path, status, attempt, reason, pages, created_at
		FROM document_events`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at, id"

	rows, err := j.db.QueryContext(ctx, j.rebind(q), args...)
	if err != nil {
		return nil, common.NewAppError(common.CodeJournal, "query document_events", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			ev     Event
			id     string
			status string
		)
		if err := rows.Scan(&id, &ev.Document, &ev.SourcePath, &ev.ResultPath, &status,
			&ev.Attempt, &ev.Reason, &ev.Pages, &ev.CreatedAt); err != nil {
			return nil, common.NewAppError(common.CodeJournal, "scan document_event", err)
		}
		if ev.ID, err = uuid.Parse(id); err != nil {
			return nil, common.NewAppError(common.CodeJournal, fmt.Sprintf("bad event id %q", id), err)
		}
		ev.Status = constants.EventStatus(status)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewAppError(common.CodeJournal, "iterate document_events", err)
	}
	return out, nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (j *SQLJournal) rebind(q string) string {
	if j.dialect != DriverPgx {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
