// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mwiater/termbench/internal/benchmark"
	"github.com/mwiater/termbench/internal/termsim"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// legacyConfigPath is the path probed when the default path is absent.
	legacyConfigPath = "termbench.json"
	// DefaultVariant is benchmarked when the configuration names none.
	DefaultVariant = "ascii"
	// defaultLogFile is used when the configuration names no log file.
	defaultLogFile = "termbench.log"
)

// Sink kinds accepted by the sink setting.
const (
	SinkHeadless = "headless"
	SinkStdout   = "stdout"
)

// Config represents the top-level application configuration. Timing fields are
// milliseconds; zero selects the fixed benchmark defaults.
type Config struct {
	Variant           string `json:"variant,omitempty"`
	WarmupMillis      int    `json:"warmupMillis,omitempty"`
	DurationMillis    int    `json:"durationMillis,omitempty"`
	ChunkSize         int    `json:"chunkSize,omitempty"`
	FeedTimeoutMillis int    `json:"feedTimeoutMillis,omitempty"`
	TerminalWidth     int    `json:"terminalWidth,omitempty"`
	TerminalHeight    int    `json:"terminalHeight,omitempty"`
	BufferSize        int    `json:"bufferSize,omitempty"`
	Sink              string `json:"sink,omitempty"`
	LogFile           string `json:"logFile,omitempty"`
	Debug             bool   `json:"debug"`
	JSONMode          bool   `json:"jsonMode"`
	TUI               bool   `json:"tui"`
	Metrics           bool   `json:"metrics"`
	ConfigPath        string `json:"-"`
}

// VariantName returns the configured variant, falling back to DefaultVariant.
func (c Config) VariantName() string {
	if v := strings.TrimSpace(c.Variant); v != "" {
		return v
	}
	return DefaultVariant
}

// Warmup returns the settle delay before streaming.
func (c Config) Warmup() time.Duration {
	return millisOr(c.WarmupMillis, benchmark.DefaultWarmup)
}

// Duration returns the streaming window.
func (c Config) Duration() time.Duration {
	return millisOr(c.DurationMillis, benchmark.DefaultDuration)
}

// FeedTimeout returns the per-chunk delivery bound.
func (c Config) FeedTimeout() time.Duration {
	return millisOr(c.FeedTimeoutMillis, benchmark.DefaultFeedTimeout)
}

// StreamChunkSize returns the streamed chunk size in bytes.
func (c Config) StreamChunkSize() int {
	if c.ChunkSize <= 0 {
		return benchmark.DefaultChunkSize
	}
	return c.ChunkSize
}

// TerminalSize returns the emulated terminal dimensions in cells.
func (c Config) TerminalSize() (width, height int) {
	width, height = c.TerminalWidth, c.TerminalHeight
	if width <= 0 {
		width = termsim.DefaultWidth
	}
	if height <= 0 {
		height = termsim.DefaultHeight
	}
	return width, height
}

// ScrollbackLines returns the scroll-back buffer size in lines.
func (c Config) ScrollbackLines() int {
	if c.BufferSize <= 0 {
		return termsim.DefaultBufferSize
	}
	return c.BufferSize
}

// SinkKind returns the configured sink, defaulting to the headless pipeline.
func (c Config) SinkKind() string {
	if s := strings.ToLower(strings.TrimSpace(c.Sink)); s != "" {
		return s
	}
	return SinkHeadless
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return defaultLogFile
}

// BenchmarkOptions maps the configuration onto orchestrator options.
func (c Config) BenchmarkOptions() benchmark.Options {
	opts := benchmark.DefaultOptions()
	opts.Warmup = c.Warmup()
	opts.Duration = c.Duration()
	opts.ChunkSize = c.StreamChunkSize()
	opts.FeedTimeout = c.FeedTimeout()
	return opts
}

// TerminalOptions maps the configuration onto the headless pipeline options.
func (c Config) TerminalOptions() termsim.Options {
	width, height := c.TerminalSize()
	return termsim.Options{
		Width:      width,
		Height:     height,
		BufferSize: c.ScrollbackLines(),
	}
}

func millisOr(ms int, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

// Load reads and validates the configuration at path, with fallback to a
// legacy path when the default is absent.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	config, err := loadFromPath(path)
	if err == nil {
		config.ConfigPath = path
		return config, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		if path == DefaultConfigPath {
			config, legacyErr := loadFromPath(legacyConfigPath)
			if legacyErr == nil {
				config.ConfigPath = legacyConfigPath
				return config, nil
			}
			if errors.Is(legacyErr, os.ErrNotExist) {
				return Config{}, fmt.Errorf("no configuration file found (searched %q and %q): %w", DefaultConfigPath, legacyConfigPath, os.ErrNotExist)
			}
			return Config{}, fmt.Errorf("could not read config file %q: %w", legacyConfigPath, legacyErr)
		}
		return Config{}, fmt.Errorf("no configuration file found at %q: %w", path, os.ErrNotExist)
	}

	return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
}

// loadFromPath is a helper function that loads the configuration from a specific file path.
func loadFromPath(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}
