package common

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
watch_directory: /srv/inbox
docling:
  host: docling.local
  port: 5001
ollama:
  host: ollama.local
  port: 11434
  model: llama3
  prompt: "Erzeuge einen kurzen Dateinamen"
retry:
  interval_seconds: 60
  max_attempts: 3
`

func TestParseConfig_AppliesDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "/srv/inbox", cfg.WatchDirectory)
	assert.Equal(t, "md", cfg.Docling.Format)
	assert.True(t, cfg.Docling.EnableOCR)
	assert.False(t, cfg.Docling.ForceOCR)
	assert.Equal(t, "easyocr", cfg.Docling.OCREngine)
	assert.Equal(t, []string{"scan"}, cfg.Docling.ScannerPrefixes)
	assert.Equal(t, 600, cfg.Docling.TimeoutSeconds)
	assert.Equal(t, 5, cfg.Polling.IntervalSeconds)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Nil(t, cfg.SupportedExtensions.List)
	assert.Nil(t, cfg.SupportedExtensions.Map)
	assert.Equal(t, "http://docling.local:5001", cfg.Docling.BaseURL())
	assert.Equal(t, "http://ollama.local:11434", cfg.Ollama.BaseURL())
}

func TestParseConfig_MissingRequiredFields(t *testing.T) {
	cases := map[string]string{
		"no watch dir": `
docling: {host: a, port: 1}
ollama: {host: b, port: 2, model: m, prompt: p}
retry: {interval_seconds: 1, max_attempts: 1}
`,
		"no docling port": `
watch_directory: /x
docling: {host: a}
ollama: {host: b, port: 2, model: m, prompt: p}
retry: {interval_seconds: 1, max_attempts: 1}
`,
		"no retry": `
watch_directory: /x
docling: {host: a, port: 1}
ollama: {host: b, port: 2, model: m, prompt: p}
`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(doc))
			require.Error(t, err)
			assert.True(t, HasCode(err, CodeConfig))
		})
	}
}

func TestParseConfig_SemanticValidation(t *testing.T) {
	doc := minimalConfig + `
logging:
  level: LOUD
`
	_, err := ParseConfig([]byte(doc))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestParseConfig_SupportedExtensions(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		cfg, err := ParseConfig([]byte(minimalConfig + "supported_extensions: [pdf, .PNG, xyz]\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"pdf", ".PNG", "xyz"}, cfg.SupportedExtensions.List)
		assert.Nil(t, cfg.SupportedExtensions.Map)
	})
	t.Run("mapping", func(t *testing.T) {
		cfg, err := ParseConfig([]byte(minimalConfig + "supported_extensions:\n  PDF: application/x-pdf\n  .txt: text/plain\n"))
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"PDF": "application/x-pdf", ".txt": "text/plain"}, cfg.SupportedExtensions.Map)
	})
	t.Run("scalar rejected", func(t *testing.T) {
		_, err := ParseConfig([]byte(minimalConfig + "supported_extensions: pdf\n"))
		require.Error(t, err)
	})
}

func TestParseConfig_EnvOverrides(t *testing.T) {
	t.Setenv("OLLAMA_MODEL", "mistral")
	t.Setenv("DOCLING_PORT", "6001")

	cfg, err := ParseConfig([]byte(minimalConfig))
	require.NoError(t, err)
	assert.Equal(t, "mistral", cfg.Ollama.Model)
	assert.Equal(t, 6001, cfg.Docling.Port)
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalConfig), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, HasCode(err, CodeConfig))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, slog.LevelError, ParseLevel("CRITICAL"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("whatever"))
}
