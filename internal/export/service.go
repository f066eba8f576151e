package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docrenamer/internal/repository"
)

const sheetName = "Events"

// Service produces XLSX bytes from the processing journal.
type Service struct {
	events repository.EventLister
	logger *slog.Logger
}

func NewService(events repository.EventLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{events: events, logger: logger}
}

// ExportEventsXLSX returns an XLSX workbook (as bytes) for the given date window.
// Dates are whole UTC days and both ends are inclusive.
// If only from is provided -> from..today.
// If only to is provided   -> beginning..to.
// If neither is provided   -> every event.
func (s *Service) ExportEventsXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	var fromDate, toExclusive *time.Time
	if from != nil {
		f := dayUTC(*from)
		fromDate = &f
	}
	if to != nil {
		t := dayUTC(*to).AddDate(0, 0, 1)
		toExclusive = &t
	} else if fromDate != nil {
		t := dayUTC(time.Now()).AddDate(0, 0, 1)
		toExclusive = &t
	}

	evs, err := s.events.ListEvents(ctx, fromDate, toExclusive)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_error", "error", err)
		}
	}()
	// rename the default sheet rather than leaving an empty Sheet1 behind
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, err
	}

	headers := []string{
		"Time (UTC)",
		"Document",
		"Status",
		"Attempt",
		"Pages",
		"Source Path",
		"Result Path",
		"Reason",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	for i, ev := range evs {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
		write(1, ev.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
		write(2, ev.Document)
		write(3, string(ev.Status))
		write(4, ev.Attempt)
		write(5, ev.Pages)
		write(6, ev.SourcePath)
		write(7, ev.ResultPath)
		write(8, truncate(ev.Reason, 240))
	}

	_ = f.SetColWidth(sheetName, "A", "A", 20) // time
	_ = f.SetColWidth(sheetName, "B", "B", 36) // document
	_ = f.SetColWidth(sheetName, "C", "C", 12) // status
	_ = f.SetColWidth(sheetName, "D", "E", 9)  // attempt, pages
	_ = f.SetColWidth(sheetName, "F", "G", 60) // paths
	_ = f.SetColWidth(sheetName, "H", "H", 60) // reason

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(evs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func dayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
