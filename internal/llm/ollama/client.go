package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/docrenamer/internal/common"
	"github.com/joseph-ayodele/docrenamer/internal/llm"
)

const generatePath = "/api/generate"

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Summarize implements llm.Summarizer against /api/generate and returns a
// sanitized filename stem.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	start := time.Now()
	traceID := common.TraceIDFromContext(ctx)

	body := generateRequest{
		Model:  c.cfg.Model,
		Prompt: llm.BuildPrompt(c.cfg.Prompt, text),
		Stream: false,
	}
	c.logger.Debug("llm.summarize.start",
		"trace_id", traceID,
		"document", common.DocumentFromContext(ctx),
		"model", c.cfg.Model,
		"text_len", len(text),
	)

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + generatePath
	raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, nil, c.logger)
	if err != nil {
		c.logger.Error("llm.summarize.http_error",
			"trace_id", traceID, "status", status, "error", err,
			"body", truncate(string(raw), 2048),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("ollama generate: %w", err)
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		c.logger.Error("llm.summarize.decode_error", "trace_id", traceID, "error", err, "raw_bytes", len(raw))
		return "", fmt.Errorf("decode ollama response: %w", err)
	}

	stem := llm.SanitizeFilename(out.Response)
	if stem == "" {
		c.logger.Warn("llm.summarize.empty", "trace_id", traceID, "raw", truncate(out.Response, 256))
		return "", llm.ErrEmptySummary
	}

	c.logger.Info("llm.summarize.ok",
		"trace_id", traceID,
		"stem", stem,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return stem, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
