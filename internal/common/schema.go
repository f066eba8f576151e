package common

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// BuildConfigJSONSchema returns the structural schema of the settings document.
// Semantic checks (ranges, enums) live in Config.Validate.
func BuildConfigJSONSchema() map[string]any {
	str := map[string]any{"type": "string", "minLength": 1}
	port := map[string]any{"type": "integer", "minimum": 1, "maximum": 65535}
	seconds := map[string]any{"type": "integer", "minimum": 1}

	return map[string]any{
		"type":     "object",
		"required": []string{"watch_directory", "docling", "ollama", "retry"},
		"properties": map[string]any{
			"watch_directory": str,
			"docling": map[string]any{
				"type":     "object",
				"required": []string{"host", "port"},
				"properties": map[string]any{
					"host":              str,
					"port":              port,
					"format":            str,
					"enable_ocr":        map[string]any{"type": "boolean"},
					"force_ocr":         map[string]any{"type": "boolean"},
					"image_export_mode": str,
					"ocr_engine":        str,
					"scanner_prefixes":  map[string]any{"type": "array", "items": str},
					"timeout_seconds":   seconds,
				},
			},
			"ollama": map[string]any{
				"type":     "object",
				"required": []string{"host", "port", "model", "prompt"},
				"properties": map[string]any{
					"host":            str,
					"port":            port,
					"model":           str,
					"prompt":          str,
					"timeout_seconds": seconds,
				},
			},
			"retry": map[string]any{
				"type":     "object",
				"required": []string{"interval_seconds", "max_attempts"},
				"properties": map[string]any{
					"interval_seconds": seconds,
					"max_attempts":     map[string]any{"type": "integer", "minimum": 1},
				},
			},
			"polling": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"interval_seconds": seconds,
					"use_fs_events":    map[string]any{"type": "boolean"},
				},
			},
			"logging": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"level":  str,
					"format": str,
				},
			},
			"supported_extensions": map[string]any{
				"oneOf": []any{
					map[string]any{"type": "null"},
					map[string]any{"type": "array", "items": str},
					map[string]any{"type": "object", "additionalProperties": str},
				},
			},
			"journal": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"driver": map[string]any{"type": "string"},
					"dsn":    map[string]any{"type": "string"},
				},
			},
			"health": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"listen_addr": map[string]any{"type": "string"},
				},
			},
		},
	}
}
