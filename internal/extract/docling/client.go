package docling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/joseph-ayodele/docrenamer/constants"
	"github.com/joseph-ayodele/docrenamer/internal/common"
	"github.com/joseph-ayodele/docrenamer/internal/extract"
)

const convertPath = "/v1/convert/file"

// ContentTypes resolves the content type sent with the uploaded file.
type ContentTypes interface {
	MimeType(path string) string
}

// Config for the docling-serve client.
type Config struct {
	BaseURL         string        // e.g. http://localhost:5001
	Format          string        // "md" | "text" | anything else (md preferred)
	EnableOCR       bool          // do_ocr
	ForceOCR        bool          // always start with force_ocr
	ImageExportMode string        // default "placeholder"
	OCREngine       string        // default "easyocr"
	ScannerPrefixes []string      // PDFs whose name starts with one of these start with force_ocr
	Timeout         time.Duration // per request, default 600s
}

type Client struct {
	cfg       Config
	http      *http.Client
	types     ContentTypes
	pageCount func(path string) (int, error)
	logger    *slog.Logger
}

func NewClient(cfg Config, types ContentTypes, logger *slog.Logger) *Client {
	if cfg.Format == "" {
		cfg.Format = "md"
	}
	if cfg.ImageExportMode == "" {
		cfg.ImageExportMode = "placeholder"
	}
	if cfg.OCREngine == "" {
		cfg.OCREngine = "easyocr"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 600 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:       cfg,
		http:      &http.Client{Timeout: cfg.Timeout},
		types:     types,
		pageCount: func(path string) (int, error) { return api.PageCountFile(path) },
		logger:    logger,
	}
}

// Extract converts the file at path and returns its text. Empty output is
// retried once with forced OCR; any failure is reported as extract.ErrNoText.
func (c *Client) Extract(ctx context.Context, path string) (extract.TextExtractionResult, error) {
	start := time.Now()
	res := extract.TextExtractionResult{Format: c.cfg.Format}

	if constants.IsPDFExt(filepath.Ext(path)) {
		if n, err := c.pageCount(path); err != nil {
			c.logger.Debug("docling.page_count_failed", "path", path, "error", err)
		} else {
			res.Pages = n
		}
	}

	force := c.initialForceOCR(path)
	text, err := c.convert(ctx, path, force)
	if err != nil {
		res.Duration = time.Since(start)
		return res, fmt.Errorf("%w: %w", extract.ErrNoText, err)
	}
	res.ForcedOCR = force

	if strings.TrimSpace(text) == "" {
		c.logger.Warn("docling.convert.empty_text; retrying with force_ocr",
			"path", path, "initial_force_ocr", force, "trace_id", common.TraceIDFromContext(ctx))
		res.Fallback = true
		res.ForcedOCR = true
		text, err = c.convert(ctx, path, true)
		if err != nil {
			res.Duration = time.Since(start)
			return res, fmt.Errorf("%w: force_ocr fallback: %w", extract.ErrNoText, err)
		}
	}

	res.Duration = time.Since(start)
	if strings.TrimSpace(text) == "" {
		return res, extract.ErrNoText
	}
	res.Text = text
	return res, nil
}

// initialForceOCR decides whether the first conversion already forces OCR.
func (c *Client) initialForceOCR(path string) bool {
	if c.cfg.ForceOCR {
		return true
	}
	if !constants.IsPDFExt(filepath.Ext(path)) {
		return false
	}
	name := strings.ToLower(filepath.Base(path))
	for _, p := range c.cfg.ScannerPrefixes {
		if p != "" && strings.HasPrefix(name, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

type convertResponse struct {
	Document struct {
		MDContent   string `json:"md_content"`
		TextContent string `json:"text_content"`
	} `json:"document"`
	Status string `json:"status"`
}

func (c *Client) convert(ctx context.Context, path string, forceOCR bool) (string, error) {
	reqID := uuid.New().String()
	traceID := common.TraceIDFromContext(ctx)
	start := time.Now()

	body, contentType, err := c.buildForm(path, forceOCR)
	if err != nil {
		c.logger.Error("docling.convert.build_form_error", "req_id", reqID, "trace_id", traceID, "path", path, "error", err)
		return "", err
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + convertPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	c.logger.Info("docling.convert.request",
		"req_id", reqID,
		"trace_id", traceID,
		"file", filepath.Base(path),
		"force_ocr", forceOCR,
		"content_length", body.Len(),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("docling.convert.send_error", "req_id", reqID, "trace_id", traceID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("docling http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.logger.Warn("docling.convert.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read docling response: %w", err)
	}

	c.logger.Info("docling.convert.response",
		"req_id", reqID,
		"trace_id", traceID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		c.logger.Error("docling.convert.bad_status", "req_id", reqID, "status", resp.StatusCode, "body", truncate(string(raw), 2048))
		return "", fmt.Errorf("docling status %d", resp.StatusCode)
	}

	var out convertResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		c.logger.Error("docling.convert.decode_error", "req_id", reqID, "error", err)
		return "", fmt.Errorf("decode docling response: %w", err)
	}
	return c.pickText(out), nil
}

func (c *Client) pickText(out convertResponse) string {
	md, txt := out.Document.MDContent, out.Document.TextContent
	if c.cfg.Format == "text" {
		if strings.TrimSpace(txt) != "" {
			return txt
		}
		return md
	}
	if strings.TrimSpace(md) != "" {
		return md
	}
	return txt
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (c *Client) buildForm(path string, forceOCR bool) (*bytes.Buffer, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	buf := new(bytes.Buffer)
	mw := multipart.NewWriter(buf)

	ct := constants.GenericContentType
	if c.types != nil {
		if t := c.types.MimeType(path); t != "" {
			ct = t
		}
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, quoteEscaper.Replace(filepath.Base(path))))
	h.Set("Content-Type", ct)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("copy file: %w", err)
	}

	fields := [][2]string{}
	for _, sf := range constants.SourceFormats {
		fields = append(fields, [2]string{"from_formats", sf})
	}
	fields = append(fields,
		[2]string{"to_formats", c.cfg.Format},
		[2]string{"do_ocr", strconv.FormatBool(c.cfg.EnableOCR || forceOCR)},
		[2]string{"force_ocr", strconv.FormatBool(forceOCR)},
		[2]string{"image_export_mode", c.cfg.ImageExportMode},
		[2]string{"ocr_engine", c.cfg.OCREngine},
	)
	for _, kv := range fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf, mw.FormDataContentType(), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
