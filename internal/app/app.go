// Package app wires the configured components together and keeps them running.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/docrenamer/internal/async"
	"github.com/joseph-ayodele/docrenamer/internal/common"
	"github.com/joseph-ayodele/docrenamer/internal/core"
	"github.com/joseph-ayodele/docrenamer/internal/extract/docling"
	"github.com/joseph-ayodele/docrenamer/internal/ingest"
	"github.com/joseph-ayodele/docrenamer/internal/llm/ollama"
	"github.com/joseph-ayodele/docrenamer/internal/repository"
)

const (
	defaultCooldown = 10 * time.Second
	watchDebounce   = 500 * time.Millisecond
)

// StatusSetter receives serving/not-serving transitions (the gRPC health server).
type StatusSetter interface {
	SetServing(serving bool)
}

type App struct {
	cfg      *common.Config
	logger   *slog.Logger
	status   StatusSetter
	cooldown time.Duration
	run      func(ctx context.Context) error
}

type Option func(*App)

func WithStatus(s StatusSetter) Option {
	return func(a *App) {
		a.status = s
	}
}

func WithCooldown(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.cooldown = d
		}
	}
}

func New(cfg *common.Config, logger *slog.Logger, opts ...Option) *App {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		cfg:      cfg,
		logger:   logger,
		cooldown: defaultCooldown,
	}
	a.run = a.Run
	for _, o := range opts {
		o(a)
	}
	return a
}

// Run builds the processor and runs the poll and retry loops until ctx is done
// or one of them fails. It returns nil on cancellation.
func (a *App) Run(ctx context.Context) error {
	cfg := a.cfg
	dirs := ingest.NewDirs(cfg.WatchDirectory)
	if err := ingest.EnsureDirs(dirs); err != nil {
		return common.NewAppError(common.CodeFilesystem, "prepare directories", err)
	}
	reg := ingest.NewRegistry(cfg.SupportedExtensions)

	journal, closeJournal := a.openJournal(ctx)
	defer closeJournal()

	extractor := docling.NewClient(docling.Config{
		BaseURL:         cfg.Docling.BaseURL(),
		Format:          cfg.Docling.Format,
		EnableOCR:       cfg.Docling.EnableOCR,
		ForceOCR:        cfg.Docling.ForceOCR,
		ImageExportMode: cfg.Docling.ImageExportMode,
		OCREngine:       cfg.Docling.OCREngine,
		ScannerPrefixes: cfg.Docling.ScannerPrefixes,
		Timeout:         cfg.Docling.Timeout(),
	}, reg, a.logger)
	summarizer := ollama.NewClient(ollama.Config{
		BaseURL: cfg.Ollama.BaseURL(),
		Model:   cfg.Ollama.Model,
		Prompt:  cfg.Ollama.Prompt,
		Timeout: cfg.Ollama.Timeout(),
	}, a.logger)
	proc := core.NewProcessor(a.logger, extractor, summarizer, dirs, journal)

	g, gctx := errgroup.WithContext(ctx)

	pollOpts := []async.Option{
		async.WithInterval(cfg.PollingInterval()),
		async.WithRegistry(reg),
	}
	if cfg.Polling.UseFSEvents {
		events, errs, err := ingest.StartWatcher(gctx, ingest.WatchConfig{
			Dir:      dirs.Watch,
			Registry: reg,
			Debounce: watchDebounce,
			Logger:   a.logger,
		})
		if err != nil {
			a.logger.Warn("fs events unavailable; polling only", "error", err)
		} else {
			pollOpts = append(pollOpts, async.WithNudges(events))
			g.Go(func() error {
				for err := range errs {
					a.logger.Warn("fs watcher error", "error", err)
				}
				return nil
			})
		}
	}

	poller := async.NewPoller(proc, dirs, a.logger, pollOpts...)
	retry := async.NewRetryScheduler(dirs, cfg.Retry.MaxAttempts, a.logger,
		async.WithRetryInterval(cfg.RetryInterval()),
		async.WithRetryRegistry(reg),
		async.WithJournal(journal),
	)

	a.logger.Info("document watch started",
		"watch_dir", dirs.Watch,
		"polling_interval", cfg.PollingInterval().String(),
		"retry_interval", cfg.RetryInterval().String(),
		"max_attempts", cfg.Retry.MaxAttempts,
		"extensions", reg.Extensions(),
	)
	a.setServing(true)
	defer a.setServing(false)

	g.Go(func() error { return guard("poll loop", poller.Run)(gctx) })
	g.Go(func() error { return guard("retry loop", retry.Run)(gctx) })

	return g.Wait()
}

// Supervise runs Run and restarts it after the cooldown whenever it fails or
// panics. It returns nil once ctx is done.
func (a *App) Supervise(ctx context.Context) error {
	for {
		err := a.runSafely(ctx)
		if ctx.Err() != nil {
			a.logger.Info("document watch stopped")
			return nil
		}
		if err == nil {
			err = errors.New("main loop exited unexpectedly")
		}
		a.setServing(false)
		a.logger.Error("unexpected error; restarting", "error", err, "cooldown", a.cooldown.String())

		t := time.NewTimer(a.cooldown)
		select {
		case <-ctx.Done():
			t.Stop()
			a.logger.Info("document watch stopped")
			return nil
		case <-t.C:
		}
	}
}

func (a *App) runSafely(ctx context.Context) error {
	return guard("main loop", a.run)(ctx)
}

func (a *App) setServing(serving bool) {
	if a.status != nil {
		a.status.SetServing(serving)
	}
}

// openJournal returns the configured journal, or a no-op one when disabled or
// unreachable.
func (a *App) openJournal(ctx context.Context) (repository.Journal, func()) {
	jc := a.cfg.Journal
	if jc.DSN == "" {
		return repository.NopJournal{}, func() {}
	}
	j, closeFn, err := OpenJournal(ctx, jc, a.logger)
	if err != nil {
		a.logger.Warn("journal unavailable; continuing without it", "driver", jc.Driver, "error", err)
		return repository.NopJournal{}, func() {}
	}
	return j, closeFn
}

// OpenJournal connects, pings and migrates the journal database.
func OpenJournal(ctx context.Context, jc common.JournalConfig, logger *slog.Logger) (*repository.SQLJournal, func(), error) {
	db, pool, err := repository.Open(ctx, repository.Config{
		Driver:          jc.Driver,
		DSN:             jc.DSN,
		MaxConns:        4,
		MaxConnLifetime: 30 * time.Minute,
		MaxConnIdleTime: 5 * time.Minute,
		DialTimeout:     5 * time.Second,
	}, logger)
	if err != nil {
		return nil, nil, common.NewAppError(common.CodeJournal, "open journal", err)
	}
	closeFn := func() { repository.Close(db, pool, logger) }

	if err := repository.HealthCheck(ctx, db, 5*time.Second, logger); err != nil {
		closeFn()
		return nil, nil, common.NewAppError(common.CodeJournal, "ping journal", err)
	}
	j := repository.NewSQLJournal(db, jc.Driver, logger)
	if err := j.Migrate(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	return j, closeFn, nil
}

// guard turns a panic in fn into an error.
func guard(name string, fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s panicked: %v", name, r)
			}
		}()
		return fn(ctx)
	}
}
