package async

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/docrenamer/internal/ingest"
)

// FileProcessor handles one document and reports success. Implementations must
// route the file out of the watch directory themselves.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string) bool
}

// ScanResult summarizes one pass over a directory.
type ScanResult struct {
	Listed    int
	Succeeded int
	Failed    int
}

// Poller periodically lists the watch directory and hands each supported file to
// the processor, one at a time.
type Poller struct {
	proc     FileProcessor
	dirs     ingest.Dirs
	registry *ingest.Registry
	logger   *slog.Logger
	interval time.Duration
	nudges   <-chan string
}

type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithNudges makes the poller scan early whenever a path arrives on ch.
// The listing still decides what gets processed.
func WithNudges(ch <-chan string) Option {
	return func(p *Poller) {
		p.nudges = ch
	}
}

func WithRegistry(r *ingest.Registry) Option {
	return func(p *Poller) {
		if r != nil {
			p.registry = r
		}
	}
}

func NewPoller(proc FileProcessor, dirs ingest.Dirs, logger *slog.Logger, opts ...Option) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Poller{
		proc:     proc,
		dirs:     dirs,
		registry: ingest.DefaultRegistry(),
		logger:   logger,
		interval: 5 * time.Second,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run scans immediately and then on every tick or nudge until ctx is done.
// A failure to list the watch directory ends the loop with an error.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poll loop started", "dir", p.dirs.Watch, "interval", p.interval.String())
	defer p.logger.Info("poll loop stopped")

	if _, err := p.Scan(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	nudges := p.nudges
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case path, ok := <-nudges:
			if !ok {
				nudges = nil
				continue
			}
			p.logger.Debug("fs event; scanning early", "file", filepath.Base(path))
		}
		if _, err := p.Scan(ctx); err != nil {
			return err
		}
	}
}

// Scan processes every supported file currently in the watch directory.
func (p *Poller) Scan(ctx context.Context) (ScanResult, error) {
	var res ScanResult
	files, stats, err := ingest.ListSupported(p.dirs.Watch, p.registry)
	if err != nil {
		p.logger.Error("failed to list watch directory", "dir", p.dirs.Watch, "error", err)
		return res, fmt.Errorf("poll %s: %w", p.dirs.Watch, err)
	}
	res.Listed = len(files)
	if len(files) > 0 {
		p.logger.Info("found documents to process", "count", len(files), "scanned", stats.Scanned)
	}

	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		if p.processOne(ctx, f) {
			res.Succeeded++
		} else {
			res.Failed++
		}
	}
	return res, nil
}

func (p *Poller) processOne(ctx context.Context, path string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("processor panicked", "file", filepath.Base(path), "panic", r)
			ok = false
		}
	}()
	return p.proc.ProcessFile(ctx, path)
}
