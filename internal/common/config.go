package common

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/docrenamer/constants"
)

// Config holds all application configuration
type Config struct {
	WatchDirectory      string            `yaml:"watch_directory"`
	Docling             DoclingConfig     `yaml:"docling"`
	Ollama              OllamaConfig      `yaml:"ollama"`
	Retry               RetryConfig       `yaml:"retry"`
	Polling             PollingConfig     `yaml:"polling"`
	Logging             LoggingConfig     `yaml:"logging"`
	SupportedExtensions ExtensionOverride `yaml:"supported_extensions"`
	Journal             JournalConfig     `yaml:"journal"`
	Health              HealthConfig      `yaml:"health"`
}

// DoclingConfig holds settings for the document-conversion service
type DoclingConfig struct {
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	Format          string   `yaml:"format"`
	EnableOCR       bool     `yaml:"enable_ocr"`
	ForceOCR        bool     `yaml:"force_ocr"`
	ImageExportMode string   `yaml:"image_export_mode"`
	OCREngine       string   `yaml:"ocr_engine"`
	ScannerPrefixes []string `yaml:"scanner_prefixes"`
	TimeoutSeconds  int      `yaml:"timeout_seconds"`
}

// OllamaConfig holds settings for the text-generation service
type OllamaConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Model          string `yaml:"model"`
	Prompt         string `yaml:"prompt"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RetryConfig holds error-directory retry settings
type RetryConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	MaxAttempts     int `yaml:"max_attempts"`
}

// PollingConfig holds watch-directory polling settings
type PollingConfig struct {
	IntervalSeconds int  `yaml:"interval_seconds"`
	UseFSEvents     bool `yaml:"use_fs_events"`
}

// LoggingConfig holds log verbosity and handler format
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// JournalConfig selects the optional processing journal. Empty DSN disables it.
type JournalConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// HealthConfig enables the gRPC health endpoint when ListenAddr is set.
type HealthConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// ExtensionOverride captures the optional supported_extensions setting, which may
// be a list (narrowing the default table) or a mapping (custom content types).
type ExtensionOverride struct {
	List []string
	Map  map[string]string
}

func (e *ExtensionOverride) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return fmt.Errorf("supported_extensions: %w", err)
		}
		if list == nil {
			list = []string{}
		}
		e.List = list
	case yaml.MappingNode:
		var m map[string]string
		if err := node.Decode(&m); err != nil {
			return fmt.Errorf("supported_extensions: %w", err)
		}
		if m == nil {
			m = map[string]string{}
		}
		e.Map = m
	case yaml.ScalarNode:
		if node.Tag != "!!null" {
			return fmt.Errorf("supported_extensions: expected list or mapping, got %q", node.Value)
		}
	default:
		return fmt.Errorf("supported_extensions: expected list or mapping")
	}
	return nil
}

func (c *Config) RetryInterval() time.Duration {
	return time.Duration(c.Retry.IntervalSeconds) * time.Second
}

func (c *Config) PollingInterval() time.Duration {
	return time.Duration(c.Polling.IntervalSeconds) * time.Second
}

func (c *DoclingConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

func (c *DoclingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *OllamaConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

func (c *OllamaConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DefaultConfig returns the defaults that a settings document is layered onto.
func DefaultConfig() Config {
	return Config{
		Docling: DoclingConfig{
			Format:          "md",
			EnableOCR:       true,
			ImageExportMode: "placeholder",
			OCREngine:       "easyocr",
			ScannerPrefixes: append([]string(nil), constants.DefaultScannerPrefixes...),
			TimeoutSeconds:  600,
		},
		Ollama: OllamaConfig{
			TimeoutSeconds: 600,
		},
		Polling: PollingConfig{
			IntervalSeconds: 5,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
		Journal: JournalConfig{
			Driver: "sqlite",
		},
	}
}

// LoadConfig reads the YAML settings document at path, checks its structure,
// applies environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewAppError(CodeConfig, "read config "+path, err)
	}
	return ParseConfig(data)
}

// ParseConfig is LoadConfig without the file read.
func ParseConfig(data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, NewAppError(CodeConfig, "parse yaml", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	js, err := json.Marshal(raw)
	if err != nil {
		return nil, NewAppError(CodeConfig, "config must use string keys", err)
	}
	if err := ValidateJSONAgainstSchema(BuildConfigJSONSchema(), js); err != nil {
		return nil, NewAppError(CodeConfig, "invalid settings document", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, NewAppError(CodeConfig, "decode config", err)
	}
	cfg.applyEnv()
	cfg.WatchDirectory = filepath.Clean(cfg.WatchDirectory)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.WatchDirectory = getEnv("DOCRENAMER_WATCH_DIRECTORY", c.WatchDirectory)
	c.Docling.Host = getEnv("DOCLING_HOST", c.Docling.Host)
	c.Docling.Port = getEnvAsInt("DOCLING_PORT", c.Docling.Port)
	c.Ollama.Host = getEnv("OLLAMA_HOST", c.Ollama.Host)
	c.Ollama.Port = getEnvAsInt("OLLAMA_PORT", c.Ollama.Port)
	c.Ollama.Model = getEnv("OLLAMA_MODEL", c.Ollama.Model)
	c.Logging.Level = getEnv("DOCRENAMER_LOG_LEVEL", c.Logging.Level)
	c.Journal.DSN = getEnv("DOCRENAMER_JOURNAL_DSN", c.Journal.DSN)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("watch_directory", c.WatchDirectory, Required).
		Field("docling.host", c.Docling.Host, Required).
		Field("docling.port", c.Docling.Port, MinInt(1)).
		Field("docling.format", c.Docling.Format, Required).
		Field("docling.timeout_seconds", c.Docling.TimeoutSeconds, MinInt(1)).
		Field("ollama.host", c.Ollama.Host, Required).
		Field("ollama.port", c.Ollama.Port, MinInt(1)).
		Field("ollama.model", c.Ollama.Model, Required).
		Field("ollama.prompt", c.Ollama.Prompt, Required).
		Field("ollama.timeout_seconds", c.Ollama.TimeoutSeconds, MinInt(1)).
		Field("retry.interval_seconds", c.Retry.IntervalSeconds, MinInt(1)).
		Field("retry.max_attempts", c.Retry.MaxAttempts, MinInt(1)).
		Field("polling.interval_seconds", c.Polling.IntervalSeconds, MinInt(1)).
		Field("logging.level", c.Logging.Level, OneOf("DEBUG", "INFO", "WARN", "WARNING", "ERROR", "CRITICAL")).
		Field("logging.format", c.Logging.Format, OneOf("text", "json"))

	if strings.TrimSpace(c.Journal.DSN) != "" {
		v.Field("journal.driver", c.Journal.Driver, OneOf("sqlite", "pgx"))
	}
	return v.Error()
}
