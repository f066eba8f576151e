package core

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docrenamer/constants"
	"github.com/joseph-ayodele/docrenamer/internal/common"
	"github.com/joseph-ayodele/docrenamer/internal/entity"
	"github.com/joseph-ayodele/docrenamer/internal/extract"
	"github.com/joseph-ayodele/docrenamer/internal/fsutil"
	"github.com/joseph-ayodele/docrenamer/internal/ingest"
	"github.com/joseph-ayodele/docrenamer/internal/llm"
	"github.com/joseph-ayodele/docrenamer/internal/repository"
)

// Processor coordinates text extraction, summarization and the final move of a
// single document.
type Processor struct {
	logger     *slog.Logger
	extractor  extract.TextExtractor
	summarizer llm.Summarizer
	dirs       ingest.Dirs
	journal    repository.Journal
}

func NewProcessor(
	logger *slog.Logger,
	extractor extract.TextExtractor,
	summarizer llm.Summarizer,
	dirs ingest.Dirs,
	journal repository.Journal,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if journal == nil {
		journal = repository.NopJournal{}
	}
	return &Processor{
		logger:     logger,
		extractor:  extractor,
		summarizer: summarizer,
		dirs:       dirs,
		journal:    journal,
	}
}

// ProcessFile runs one processing attempt for the document at path and reports
// whether it ended in the processed directory. Failures route the file into the
// error directory; nothing is returned to or panics into the caller.
func (p *Processor) ProcessFile(ctx context.Context, path string) (ok bool) {
	doc := entity.NewDocument(path)
	ctx = common.WithTraceID(ctx, uuid.New().String())
	ctx = common.WithDocument(ctx, doc.Name)
	start := time.Now()
	pages := 0

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("panic while processing document", "document", doc.Name, "panic", r)
			ok = p.fail(ctx, doc, pages, fmt.Errorf("%w: panic: %v", common.ErrInternal, r))
		}
	}()

	p.logger.Info("processing document",
		"document", doc.Name,
		"attempt", doc.Attempt,
		"trace_id", common.TraceIDFromContext(ctx),
	)

	// 1) extract
	res, err := p.extractor.Extract(ctx, path)
	pages = res.Pages
	if err != nil {
		return p.fail(ctx, doc, pages, common.NewAppError(common.CodeExtract, extract.ErrNoText.Error(), err))
	}
	p.logger.Debug("text extracted",
		"document", doc.Name,
		"chars", len(res.Text),
		"pages", res.Pages,
		"forced_ocr", res.ForcedOCR,
		"fallback", res.Fallback,
		"elapsed_ms", res.Duration.Milliseconds(),
	)

	// 2) summarize
	stem, err := p.summarizer.Summarize(ctx, res.Text)
	if err != nil {
		return p.fail(ctx, doc, pages, common.NewAppError(common.CodeSummarize, llm.ErrEmptySummary.Error(), err))
	}

	// 3) move into the processed dir under the first free name
	dst, err := fsutil.MoveToFreeName(path, p.dirs.Processed, stem, doc.Ext)
	if err != nil {
		return p.fail(ctx, doc, pages, common.NewAppError(common.CodeFilesystem, "move to processed directory", err))
	}

	p.logger.Info("document renamed",
		"from", doc.Name,
		"to", filepath.Base(dst),
		"trace_id", common.TraceIDFromContext(ctx),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	p.record(ctx, repository.Event{
		Document:   doc.Name,
		SourcePath: path,
		ResultPath: dst,
		Status:     constants.EventProcessed,
		Attempt:    doc.Attempt,
		Pages:      pages,
	})
	return true
}

// fail routes doc into the error directory. It always returns false.
func (p *Processor) fail(ctx context.Context, doc entity.Document, pages int, cause error) bool {
	traceID := common.TraceIDFromContext(ctx)

	// Shutdown mid-attempt: leave the file in the watch dir for the next run.
	if ctx.Err() != nil {
		p.logger.Warn("processing interrupted; leaving document in place", "document", doc.Name, "error", cause)
		return false
	}

	p.logger.Error("processing failed", "document", doc.Name, "trace_id", traceID, "error", cause)

	ev := repository.Event{
		Document:   doc.Name,
		SourcePath: doc.Path,
		Status:     constants.EventFailed,
		Attempt:    doc.Attempt,
		Reason:     cause.Error(),
		Pages:      pages,
	}

	if !fsutil.Exists(doc.Path) {
		p.logger.Debug("document vanished; skipping error move", "document", doc.Name)
		p.record(ctx, ev)
		return false
	}

	dst, err := fsutil.MoveToFreeName(doc.Path, p.dirs.Error, doc.Stem, doc.Ext)
	if err != nil {
		p.logger.Error("failed to move document to error directory", "document", doc.Name, "trace_id", traceID, "error", err)
	} else {
		ev.ResultPath = dst
		p.logger.Info("document moved to error directory", "from", doc.Name, "to", filepath.Base(dst))
	}
	p.record(ctx, ev)
	return false
}

func (p *Processor) record(ctx context.Context, ev repository.Event) {
	// journal writes outlive a cancelled attempt
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.journal.Record(ctx, ev); err != nil {
		p.logger.Warn("journal write failed", "document", ev.Document, "status", ev.Status, "error", err)
	}
}
