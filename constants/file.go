package constants

import "strings"

// Subdirectory names created below the watch directory.
const (
	ProcessedDirName = "Verarbeitet"
	ErrorDirName     = "Fehler"
)

// GenericContentType is assigned to extensions that are listed in config but
// missing from the default table.
const GenericContentType = "application/octet-stream"

// DefaultExtensions maps supported extensions (lowercase, with leading dot) to content types.
var DefaultExtensions = map[string]string{
	".pdf":      "application/pdf",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".pptx":     "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".xlsx":     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".html":     "text/html",
	".htm":      "text/html",
	".md":       "text/markdown",
	".adoc":     "text/asciidoc",
	".asciidoc": "text/asciidoc",
	".png":      "image/png",
	".jpg":      "image/jpeg",
	".jpeg":     "image/jpeg",
	".tif":      "image/tiff",
	".tiff":     "image/tiff",
	".bmp":      "image/bmp",
	".webp":     "image/webp",
}

// SourceFormats is the fixed list of input formats announced to the conversion service.
var SourceFormats = []string{"docx", "pptx", "html", "image", "pdf", "asciidoc", "md", "xlsx"}

// DefaultScannerPrefixes are base-name prefixes of scanner output that start with forced OCR.
var DefaultScannerPrefixes = []string{"scan"}

// NormalizeExt lowercases an extension and makes sure it starts with a dot.
// An empty input stays empty.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// IsPDFExt reports whether ext names a PDF.
func IsPDFExt(ext string) bool {
	return NormalizeExt(ext) == ".pdf"
}
