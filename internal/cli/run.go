// internal/cli/run.go
package termbench

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mwiater/termbench/internal/appconfig"
	"github.com/mwiater/termbench/internal/benchmark"
	"github.com/mwiater/termbench/internal/logging"
	"github.com/mwiater/termbench/internal/metrics"
	"github.com/mwiater/termbench/internal/pattern"
	"github.com/mwiater/termbench/internal/termsim"
	"github.com/mwiater/termbench/internal/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	successText = color.New(color.FgGreen).SprintFunc()
	warningText = color.New(color.FgYellow).SprintFunc()
	labelText   = color.New(color.FgCyan).SprintFunc()
)

// runCmd implements 'run [variant]', which streams one benchmark variant into
// the selected sink and prints the report.
var runCmd = &cobra.Command{
	Use:   "run [variant]",
	Short: "Run one benchmark variant",
	Long: `Run streams the selected pattern into a terminal for a fixed duration and
reports paint timings, total elapsed time, and heap growth. The default sink is
a headless terminal emulator; --sink stdout writes to the real terminal.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			cfg = &appconfig.Config{}
		}
		name := cfg.VariantName()
		if len(args) == 1 {
			name = args[0]
		}
		variant, err := pattern.ParseVariant(name)
		if err != nil {
			return fmt.Errorf("%w (see 'termbench variants')", err)
		}
		if cfg.TUI && cfg.SinkKind() == appconfig.SinkStdout {
			return fmt.Errorf("--tui cannot be combined with --sink %s", appconfig.SinkStdout)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		dumpScreen, _ := cmd.Flags().GetBool("dumpScreen")
		_, err = runBenchmark(ctx, cmd.OutOrStdout(), *cfg, variant, dumpScreen)
		return err
	},
}

func init() {
	runCmd.Flags().String("variant", "", "benchmark variant (see 'termbench variants')")
	runCmd.Flags().Int("warmupMillis", 0, "settle delay before streaming (0 = default)")
	runCmd.Flags().Int("durationMillis", 0, "streaming window (0 = default)")
	runCmd.Flags().Int("chunkSize", 0, "bytes per streamed chunk (0 = default)")
	runCmd.Flags().Int("feedTimeoutMillis", 0, "per-chunk delivery bound (0 = default)")
	runCmd.Flags().String("sink", "", "output sink: headless or stdout")
	runCmd.Flags().Int("terminalWidth", 0, "emulated terminal width (0 = default)")
	runCmd.Flags().Int("terminalHeight", 0, "emulated terminal height (0 = default)")
	runCmd.Flags().Int("bufferSize", 0, "scroll-back buffer lines (0 = default)")
	runCmd.Flags().Bool("dumpScreen", false, "print the emulated screen after a headless run")

	for _, name := range []string{"variant", "warmupMillis", "durationMillis", "chunkSize", "feedTimeoutMillis", "sink", "terminalWidth", "terminalHeight", "bufferSize"} {
		_ = viper.BindPFlag(name, runCmd.Flags().Lookup(name))
	}
	rootCmd.AddCommand(runCmd)
}

// target is the sink and pipeline pair a run streams into.
type target struct {
	sink     benchmark.Sink
	pipeline benchmark.Pipeline
	headless *termsim.Pipeline
	close    func() error
}

func newTarget(ctx context.Context, cfg appconfig.Config) target {
	if cfg.SinkKind() == appconfig.SinkStdout {
		ws := termsim.NewWriterSink(os.Stdout, cfg.TerminalOptions())
		return target{sink: ws, pipeline: ws, close: ws.Close}
	}
	p := termsim.NewPipeline(cfg.TerminalOptions())
	// The screen outlives an interrupted run so it can still be inspected.
	p.Start(context.WithoutCancel(ctx))
	return target{sink: p, pipeline: p, headless: p, close: p.Close}
}

func runBenchmark(ctx context.Context, out io.Writer, cfg appconfig.Config, variant pattern.Variant, dumpScreen bool) (benchmark.Result, error) {
	t := newTarget(ctx, cfg)
	defer t.close()

	opts := cfg.BenchmarkOptions()
	var collector *metrics.Collector
	if cfg.Metrics {
		collector = metrics.NewCollector()
		opts.Collector = collector
	}

	logging.LogEvent("benchmark %s: sink=%s duration=%s warmup=%s chunk=%d", variant, cfg.SinkKind(), opts.Duration, opts.Warmup, opts.ChunkSize)

	var result benchmark.Result
	if cfg.TUI {
		var err error
		result, err = tui.Run(ctx, variant, out, func(ctx context.Context, onProgress func(benchmark.Progress)) <-chan benchmark.Result {
			opts.OnProgress = onProgress
			return benchmark.New(t.sink, t.pipeline, opts).Start(ctx, variant)
		})
		if err != nil {
			return result, err
		}
	} else {
		if !cfg.JSONMode && cfg.SinkKind() == appconfig.SinkHeadless {
			fmt.Fprintf(out, "%s %s for %s...\n", labelText("Benchmarking"), variant, opts.Duration)
		}
		result = benchmark.New(t.sink, t.pipeline, opts).Run(ctx, variant)
	}

	if t.headless != nil && !result.Aborted {
		_ = t.headless.Sync(context.WithoutCancel(ctx))
	}
	return result, printResult(out, cfg, result, collector, t.headless, dumpScreen)
}

func newRunOutput(result benchmark.Result, lines []metrics.MetricLine) runOutput {
	doc := runOutput{
		RunID:   result.RunID,
		Variant: result.Variant.String(),
		Aborted: result.Aborted,
		Report:  result.Report,
		Metrics: lines,
	}
	if result.Report != nil {
		doc.Throughput = result.Report.Throughput()
	}
	return doc
}

// runOutput is the JSON document printed in JSON mode.
type runOutput struct {
	RunID      string               `json:"run_id"`
	Variant    string               `json:"variant"`
	Aborted    bool                 `json:"aborted"`
	Report     *benchmark.Report    `json:"report,omitempty"`
	Throughput float64              `json:"bytes_per_second,omitempty"`
	Metrics    []metrics.MetricLine `json:"metrics,omitempty"`
}

func printResult(out io.Writer, cfg appconfig.Config, result benchmark.Result, collector *metrics.Collector, screen *termsim.Pipeline, dumpScreen bool) error {
	lines, err := collector.Summary()
	if err != nil {
		return err
	}

	if cfg.JSONMode {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(newRunOutput(result, lines))
	}

	if result.Aborted {
		fmt.Fprintln(out, warningText("Benchmark aborted; no report was produced. See the log for the reason."))
		return nil
	}

	// The stdout sink already wrote the report into the terminal under test.
	if screen != nil {
		fmt.Fprintln(out, renderReport(result.Report))
		if dumpScreen {
			fmt.Fprintln(out, renderScreen(screen.Rows()))
		}
	}
	fmt.Fprintf(out, "%s %s: %.0f bytes/s over %d chunks\n",
		successText("Completed"), result.Variant, result.Report.Throughput(), result.Report.ChunksFed)

	if len(lines) > 0 {
		fmt.Fprintln(out, labelText("Metrics:"))
		for _, line := range lines {
			fmt.Fprintf(out, "  %s\n", line)
		}
	}
	return nil
}

func renderReport(r *benchmark.Report) string {
	title := lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1)
	panel := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
	body := strings.Join(r.Lines(), "\n")
	return lipgloss.JoinVertical(lipgloss.Left, title.Render(r.VariantName+" · run "+r.RunID), panel.Render(body))
}

func renderScreen(rows []string) string {
	panel := lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("244"))
	return panel.Render(strings.Join(rows, "\n"))
}
