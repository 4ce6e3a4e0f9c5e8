// internal/benchmark/report.go
package benchmark

import (
	"fmt"
	"runtime"
	"time"

	"github.com/mwiater/termbench/internal/metrics"
	"github.com/mwiater/termbench/internal/pattern"
)

const (
	startMarker = "Start XTerm Benchmark."
	endMarker   = "End XTerm Benchmark."
	resetLine   = "\x1b[0m"
	separator   = "---------------------------------------"
	newline     = "\r\n"
)

// Report is the outcome of a completed run.
type Report struct {
	RunID       string          `json:"run_id"`
	Variant     pattern.Variant `json:"-"`
	VariantName string          `json:"variant"`
	Width       int             `json:"terminal_width"`
	Height      int             `json:"terminal_height"`
	BufferSize  int             `json:"terminal_buffer_size"`

	Samples int64         `json:"paint_samples"`
	Max     time.Duration `json:"paint_max"`
	Min     time.Duration `json:"paint_min"`
	Average time.Duration `json:"paint_avg"`

	Total       time.Duration `json:"total"`
	MemoryDelta int64         `json:"memory_delta_bytes"`
	BytesFed    int64         `json:"bytes_fed"`
	ChunksFed   int64         `json:"chunks_fed"`
}

func newReport(runID string, variant pattern.Variant, timing metrics.TimingSnapshot) *Report {
	return &Report{
		RunID:       runID,
		Variant:     variant,
		VariantName: variant.String(),
		Samples:     timing.Count,
		Max:         timing.Max,
		Min:         timing.Min,
		Average:     timing.Average,
	}
}

// Lines renders the report body in the order it is written to the terminal.
func (r *Report) Lines() []string {
	return []string{
		separator,
		fmt.Sprintf("Terminal Size : %d x %d", r.Width, r.Height),
		fmt.Sprintf("Terminal Buffer Size : %d", r.BufferSize),
		separator,
		fmt.Sprintf("OnPaint %d samples", r.Samples),
		fmt.Sprintf("        Max  %.3f msec", metrics.Millis(r.Max)),
		fmt.Sprintf("        Min  %.3f msec", metrics.Millis(r.Min)),
		fmt.Sprintf("        Avg  %.3f msec", metrics.Millis(r.Average)),
		separator,
		FormatElapsed("Total", r.Total),
		separator,
		fmt.Sprintf("Increase of Heap Memory : %d bytes", r.MemoryDelta),
		separator,
	}
}

// Throughput returns the streamed bytes per second, or zero for an empty run.
func (r *Report) Throughput() float64 {
	if r.Total <= 0 {
		return 0
	}
	return float64(r.BytesFed) / r.Total.Seconds()
}

// FormatElapsed renders a titled duration as seconds.milliseconds.
func FormatElapsed(title string, d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%-15s : %d.%03d sec", title, ms/1000, ms%1000)
}

// HeapInUse forces a collection and returns the live heap size in bytes.
func HeapInUse() int64 {
	runtime.GC()
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return int64(ms.HeapAlloc)
}
