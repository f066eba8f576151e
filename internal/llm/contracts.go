package llm

import (
	"context"
	"errors"
)

// ErrEmptySummary is returned when the generated text sanitizes to nothing.
var ErrEmptySummary = errors.New("no summary generated")

// Summarizer is Stage 2: text -> filename stem.
// Implementations return a filesystem-safe stem, never an empty one.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}
