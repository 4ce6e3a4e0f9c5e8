package appconfig

import (
	"fmt"
	"io"

	"github.com/k0kubun/pp"
)

// ShowConfig prints the effective configuration. Debug mode appends a full
// dump of the struct.
func ShowConfig(out io.Writer, file string, cfg Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	width, height := cfg.TerminalSize()
	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Variant:         %s\n", cfg.VariantName())
	fmt.Fprintf(out, "  Warmup:          %s\n", cfg.Warmup())
	fmt.Fprintf(out, "  Duration:        %s\n", cfg.Duration())
	fmt.Fprintf(out, "  Chunk Size:      %d bytes\n", cfg.StreamChunkSize())
	fmt.Fprintf(out, "  Feed Timeout:    %s\n", cfg.FeedTimeout())
	fmt.Fprintf(out, "  Sink:            %s\n", cfg.SinkKind())
	fmt.Fprintf(out, "  Terminal:        %d x %d\n", width, height)
	fmt.Fprintf(out, "  Buffer Size:     %d lines\n", cfg.ScrollbackLines())
	fmt.Fprintf(out, "  Log File:        %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Debug:           %v\n", cfg.Debug)
	fmt.Fprintf(out, "  JSON Mode:       %v\n", cfg.JSONMode)
	fmt.Fprintf(out, "  TUI:             %v\n", cfg.TUI)
	fmt.Fprintf(out, "  Metrics:         %v\n", cfg.Metrics)

	if cfg.Debug {
		fmt.Fprintln(out)
		pp.Fprintln(out, cfg)
	}
}
