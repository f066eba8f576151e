package async

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/joseph-ayodele/docrenamer/constants"
	"github.com/joseph-ayodele/docrenamer/internal/entity"
	"github.com/joseph-ayodele/docrenamer/internal/fsutil"
	"github.com/joseph-ayodele/docrenamer/internal/ingest"
	"github.com/joseph-ayodele/docrenamer/internal/repository"
)

// RetryResult summarizes one pass over the error directory.
type RetryResult struct {
	Requeued  int
	Exhausted int
	Failed    int
}

// RetryScheduler moves failed documents from the error directory back into the
// watch directory with a bumped attempt counter until max attempts is reached.
type RetryScheduler struct {
	dirs        ingest.Dirs
	registry    *ingest.Registry
	maxAttempts int
	interval    time.Duration
	journal     repository.Journal
	logger      *slog.Logger

	mu        sync.Mutex
	exhausted map[string]struct{} // error-dir paths already journaled as EXHAUSTED
}

type RetryOption func(*RetryScheduler)

func WithRetryInterval(d time.Duration) RetryOption {
	return func(s *RetryScheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithRetryRegistry(r *ingest.Registry) RetryOption {
	return func(s *RetryScheduler) {
		if r != nil {
			s.registry = r
		}
	}
}

func WithJournal(j repository.Journal) RetryOption {
	return func(s *RetryScheduler) {
		if j != nil {
			s.journal = j
		}
	}
}

func NewRetryScheduler(dirs ingest.Dirs, maxAttempts int, logger *slog.Logger, opts ...RetryOption) *RetryScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &RetryScheduler{
		dirs:        dirs,
		registry:    ingest.DefaultRegistry(),
		maxAttempts: maxAttempts,
		interval:    time.Minute,
		journal:     repository.NopJournal{},
		logger:      logger,
		exhausted:   map[string]struct{}{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run waits one interval, scans, and repeats until ctx is done. Scan problems
// are logged and never end the loop.
func (s *RetryScheduler) Run(ctx context.Context) error {
	s.logger.Info("retry loop started", "dir", s.dirs.Error, "interval", s.interval.String(), "max_attempts", s.maxAttempts)
	defer s.logger.Info("retry loop stopped")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, _ = s.Scan(ctx)
		}
	}
}

// Scan handles every supported file currently in the error directory.
func (s *RetryScheduler) Scan(ctx context.Context) (RetryResult, error) {
	var res RetryResult
	files, _, err := ingest.ListSupported(s.dirs.Error, s.registry)
	if err != nil {
		s.logger.Error("failed to list error directory", "dir", s.dirs.Error, "error", err)
		return res, err
	}
	if len(files) > 0 {
		s.logger.Info("retrying documents from error directory", "count", len(files))
	}

	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		switch s.retryOne(ctx, f) {
		case retryMoved:
			res.Requeued++
		case retryExhausted:
			res.Exhausted++
		default:
			res.Failed++
		}
	}
	return res, nil
}

type retryOutcome int

const (
	retryFailed retryOutcome = iota
	retryMoved
	retryExhausted
)

func (s *RetryScheduler) retryOne(ctx context.Context, path string) retryOutcome {
	doc := entity.NewDocument(path)
	base, attempts, ok := entity.ParseAttempt(doc.Stem)
	if !ok {
		// the first failure carries no token yet
		attempts = 1
	}

	if attempts >= s.maxAttempts {
		s.logger.Warn("max attempts reached; leaving in error directory", "document", doc.Name, "attempts", attempts)
		if s.markExhausted(path) {
			s.record(ctx, repository.Event{
				Document:   doc.Name,
				SourcePath: path,
				Status:     constants.EventExhausted,
				Attempt:    attempts,
				Reason:     "max attempts reached",
			})
		}
		return retryExhausted
	}

	next := attempts + 1
	dst, err := fsutil.MoveToFreeName(path, s.dirs.Watch, entity.FormatAttempt(base, next), doc.Ext)
	if err != nil {
		s.logger.Error("failed to requeue document", "document", doc.Name, "error", err)
		return retryFailed
	}
	s.logger.Info("document requeued", "from", doc.Name, "to", filepath.Base(dst), "attempt", next)
	s.record(ctx, repository.Event{
		Document:   doc.Name,
		SourcePath: path,
		ResultPath: dst,
		Status:     constants.EventRequeued,
		Attempt:    next,
	})
	return retryMoved
}

func (s *RetryScheduler) markExhausted(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.exhausted[path]; seen {
		return false
	}
	s.exhausted[path] = struct{}{}
	return true
}

func (s *RetryScheduler) record(ctx context.Context, ev repository.Event) {
	if err := s.journal.Record(ctx, ev); err != nil {
		s.logger.Warn("journal write failed", "document", ev.Document, "status", ev.Status, "error", err)
	}
}
