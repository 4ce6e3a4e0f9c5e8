// internal/appconfig/appconfig_test.go
package appconfig

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mwiater/termbench/internal/benchmark"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// TestLoad covers a valid document, malformed JSON, schema violations, and a
// missing file.
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	valid := writeConfig(t, dir, "valid.json", `{
        "variant": "cjk-color256",
        "durationMillis": 1500,
        "sink": "stdout",
        "tui": true
    }`)

	cfg, err := Load(valid)
	if err != nil {
		t.Fatalf("Load() with valid config failed: %v", err)
	}
	if cfg.ConfigPath != valid {
		t.Fatalf("expected config path %s, got %s", valid, cfg.ConfigPath)
	}
	if cfg.VariantName() != "cjk-color256" {
		t.Fatalf("variant: %s", cfg.VariantName())
	}
	if cfg.Duration() != 1500*time.Millisecond {
		t.Fatalf("duration: %v", cfg.Duration())
	}
	if cfg.Warmup() != benchmark.DefaultWarmup {
		t.Fatalf("expected default warmup, got %v", cfg.Warmup())
	}
	if cfg.SinkKind() != SinkStdout || !cfg.TUI {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	invalidJSON := writeConfig(t, dir, "broken.json", `{ "variant": `)
	if _, err := Load(invalidJSON); err == nil {
		t.Fatal("Load() with invalid JSON should have failed")
	}

	badVariant := writeConfig(t, dir, "variant.json", `{ "variant": "ebcdic" }`)
	if _, err := Load(badVariant); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for unknown variant, got %v", err)
	}

	negative := writeConfig(t, dir, "negative.json", `{ "chunkSize": -1 }`)
	if _, err := Load(negative); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for negative chunk size, got %v", err)
	}

	unknownKey := writeConfig(t, dir, "unknown.json", `{ "hosts": [] }`)
	if _, err := Load(unknownKey); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for unknown key, got %v", err)
	}

	if _, err := Load(filepath.Join(dir, "nonexistent.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Load() with nonexistent file should report ErrNotExist, got %v", err)
	}
}

func TestLoadDefaultAndLegacyPaths(t *testing.T) {
	tempDir := t.TempDir()
	oldCwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(tempDir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldCwd) })

	if _, err := Load(""); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist without any config, got %v", err)
	}

	writeConfig(t, tempDir, legacyConfigPath, `{ "variant": "mixed" }`)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("legacy Load error: %v", err)
	}
	if cfg.ConfigPath != legacyConfigPath || cfg.VariantName() != "mixed" {
		t.Fatalf("unexpected legacy config: %+v", cfg)
	}

	writeConfig(t, tempDir, DefaultConfigPath, `{ "variant": "cjk" }`)
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("default Load error: %v", err)
	}
	if cfg.ConfigPath != DefaultConfigPath || cfg.VariantName() != "cjk" {
		t.Fatalf("default path should win: %+v", cfg)
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	if cfg.VariantName() != DefaultVariant {
		t.Fatalf("variant default: %s", cfg.VariantName())
	}
	if cfg.StreamChunkSize() != benchmark.DefaultChunkSize {
		t.Fatalf("chunk default: %d", cfg.StreamChunkSize())
	}
	if cfg.FeedTimeout() != benchmark.DefaultFeedTimeout || cfg.Duration() != benchmark.DefaultDuration {
		t.Fatalf("timing defaults: %v %v", cfg.FeedTimeout(), cfg.Duration())
	}
	if w, h := cfg.TerminalSize(); w != 80 || h != 24 {
		t.Fatalf("terminal default: %dx%d", w, h)
	}
	if cfg.ScrollbackLines() != 1000 || cfg.SinkKind() != SinkHeadless || cfg.LogFilePath() != "termbench.log" {
		t.Fatalf("unexpected defaults")
	}

	opts := cfg.BenchmarkOptions()
	if opts.Warmup != benchmark.DefaultWarmup || opts.ChunkSize != benchmark.DefaultChunkSize {
		t.Fatalf("benchmark options: %+v", opts)
	}
	term := Config{TerminalWidth: 132, BufferSize: 10}.TerminalOptions()
	if term.Width != 132 || term.Height != 24 || term.BufferSize != 10 {
		t.Fatalf("terminal options: %+v", term)
	}
}

func TestValidateMergedConfig(t *testing.T) {
	if err := (Config{Variant: "ascii-color24", Sink: SinkHeadless}).Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	if err := (Config{Sink: "serial"}).Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for unknown sink, got %v", err)
	}
	if err := (Config{TerminalWidth: -5}).Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for negative width, got %v", err)
	}
}

func TestShowConfig(t *testing.T) {
	var buf bytes.Buffer
	ShowConfig(&buf, "", Config{Variant: "cjk-color16", DurationMillis: 2500})
	out := buf.String()
	for _, want := range []string{
		"No config file loaded (using defaults).",
		"Variant:         cjk-color16",
		"Duration:        2.5s",
		"Terminal:        80 x 24",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	buf.Reset()
	ShowConfig(&buf, "config/config.json", Config{Debug: true})
	out = buf.String()
	if !strings.Contains(out, "Config file: config/config.json") {
		t.Fatalf("missing config file line:\n%s", out)
	}
	if !strings.Contains(out, "DurationMillis") {
		t.Fatalf("debug mode should dump the struct:\n%s", out)
	}
}
