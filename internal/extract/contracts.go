package extract

import (
	"context"
	"errors"
	"time"
)

// ErrNoText is returned when no usable text could be extracted. The cause is
// wrapped alongside it.
var ErrNoText = errors.New("no text extracted")

// TextExtractor is Stage 1: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text      string
	Pages     int    // 0 when unknown
	Format    string // "md" | "text"
	ForcedOCR bool   // whether the text came from a forced-OCR conversion
	Fallback  bool   // whether the forced-OCR fallback ran
	Duration  time.Duration
}
