// internal/appconfig/schema.go
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mwiater/termbench/internal/pattern"
	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidConfig wraps every schema violation.
var ErrInvalidConfig = errors.New("invalid configuration")

// configSchema returns the JSON schema configuration documents must satisfy.
func configSchema() map[string]any {
	variants := make([]any, 0, len(pattern.Names()))
	for _, name := range pattern.Names() {
		variants = append(variants, name)
	}
	nonNegative := func(max int) map[string]any {
		s := map[string]any{"type": "integer", "minimum": 0}
		if max > 0 {
			s["maximum"] = max
		}
		return s
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"variant":           map[string]any{"type": "string", "enum": variants},
			"warmupMillis":      nonNegative(0),
			"durationMillis":    nonNegative(0),
			"chunkSize":         nonNegative(1 << 20),
			"feedTimeoutMillis": nonNegative(0),
			"terminalWidth":     nonNegative(1000),
			"terminalHeight":    nonNegative(1000),
			"bufferSize":        nonNegative(1000000),
			"sink":              map[string]any{"type": "string", "enum": []any{SinkHeadless, SinkStdout}},
			"logFile":           map[string]any{"type": "string"},
			"debug":             map[string]any{"type": "boolean"},
			"jsonMode":          map[string]any{"type": "boolean"},
			"tui":               map[string]any{"type": "boolean"},
			"metrics":           map[string]any{"type": "boolean"},
		},
		"additionalProperties": false,
	}
}

// Parse validates a JSON configuration document and decodes it.
func Parse(data []byte) (Config, error) {
	if err := validateDocument(gojsonschema.NewBytesLoader(data)); err != nil {
		return Config{}, err
	}
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks an already merged configuration, such as one assembled from
// flags and a config file, against the schema.
func (c Config) Validate() error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return validateDocument(gojsonschema.NewBytesLoader(data))
}

func validateDocument(document gojsonschema.JSONLoader) error {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(configSchema()), document)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, ", "))
}
