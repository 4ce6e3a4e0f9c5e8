package benchmark

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mwiater/termbench/internal/metrics"
	"github.com/mwiater/termbench/internal/pattern"
)

type fakePipeline struct {
	mu       sync.Mutex
	observer PaintObserver
	painted  int64
}

func (p *fakePipeline) SetPaintObserver(fn PaintObserver) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observer = fn
}

func (p *fakePipeline) TerminalSize() (int, int) { return 80, 24 }
func (p *fakePipeline) BufferSize() int          { return 1000 }

func (p *fakePipeline) paint(d time.Duration) {
	p.mu.Lock()
	fn := p.observer
	if fn != nil {
		p.painted++
	}
	p.mu.Unlock()
	if fn != nil {
		fn(d)
	}
}

func (p *fakePipeline) registered() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.observer != nil
}

// recordingSink keeps every feed call and paints once per chunk.
type recordingSink struct {
	pipeline *fakePipeline
	failOn   int
	feeds    [][]byte
}

func (s *recordingSink) Feed(ctx context.Context, chunks iter.Seq[[]byte], timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.failOn > 0 && len(s.feeds)+1 == s.failOn {
		return fmt.Errorf("feed %d: %w", s.failOn, ErrSinkTimeout)
	}
	var buf bytes.Buffer
	for chunk := range chunks {
		buf.Write(chunk)
		s.pipeline.paint(time.Millisecond)
	}
	s.feeds = append(s.feeds, buf.Bytes())
	return nil
}

func (s *recordingSink) output() string {
	return string(bytes.Join(s.feeds, nil))
}

func steppingClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(step)
		return now
	}
}

func testOptions() Options {
	heap := []int64{100, 164}
	calls := 0
	return Options{
		Duration:    50 * time.Millisecond,
		ChunkSize:   16,
		FeedTimeout: time.Second,
		RunID:       "test-run",
		Clock:       steppingClock(time.Millisecond),
		Sleep:       func(ctx context.Context, _ time.Duration) error { return ctx.Err() },
		Memory: func() int64 {
			v := heap[calls%len(heap)]
			calls++
			return v
		},
	}
}

func newTestOrchestrator(opts Options) (*Orchestrator, *recordingSink, *fakePipeline) {
	pipeline := &fakePipeline{}
	sink := &recordingSink{pipeline: pipeline}
	return New(sink, pipeline, opts), sink, pipeline
}

func TestRunWritesMarkersAndReport(t *testing.T) {
	o, sink, pipeline := newTestOrchestrator(testOptions())

	result := o.Run(context.Background(), pattern.ASCII)
	if result.Aborted || result.Report == nil {
		t.Fatalf("expected completed run, got %+v", result)
	}
	if result.RunID != "test-run" {
		t.Fatalf("run id: %q", result.RunID)
	}
	if o.State() != StateDone {
		t.Fatalf("state: %v", o.State())
	}
	if pipeline.registered() {
		t.Fatalf("paint observer still registered after run")
	}

	out := sink.output()
	if !strings.HasPrefix(out, "Start XTerm Benchmark.\r\n") {
		t.Fatalf("missing start marker: %q", out[:min(len(out), 40)])
	}
	if !strings.Contains(out, "\x1b[0m\r\nEnd XTerm Benchmark.\r\n") {
		t.Fatalf("missing reset and end marker")
	}
	for _, want := range []string{
		"Terminal Size : 80 x 24\r\n",
		"Terminal Buffer Size : 1000\r\n",
		"        Max  1.000 msec\r\n",
		"        Min  1.000 msec\r\n",
		"        Avg  1.000 msec\r\n",
		"Increase of Heap Memory : 64 bytes\r\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q in:\n%s", want, out)
		}
	}
	if !strings.HasSuffix(out, separator+"\r\n") {
		t.Fatalf("report should end with separator")
	}

	report := result.Report
	if report.Samples != pipeline.painted {
		t.Fatalf("samples = %d, want %d", report.Samples, pipeline.painted)
	}
	if report.Total <= 0 {
		t.Fatalf("expected positive total, got %v", report.Total)
	}
	cycle := len(pattern.ASCIIText())
	if report.BytesFed == 0 || report.BytesFed%int64(cycle) != 0 {
		t.Fatalf("bytes fed %d is not a whole number of %d byte cycles", report.BytesFed, cycle)
	}
	if report.Width != 80 || report.Height != 24 || report.BufferSize != 1000 {
		t.Fatalf("terminal info: %+v", report)
	}
}

func TestRunFeedsPaletteBeforeStream(t *testing.T) {
	o, sink, _ := newTestOrchestrator(testOptions())

	result := o.Run(context.Background(), pattern.CJKColor256)
	if result.Aborted {
		t.Fatalf("unexpected abort")
	}
	if len(sink.feeds) < 3 {
		t.Fatalf("expected marker, palette, and stream feeds, got %d", len(sink.feeds))
	}
	src, _ := pattern.Build(pattern.CJKColor256)
	if !bytes.Equal(sink.feeds[1], src.Prelude) {
		t.Fatalf("second feed should be the palette")
	}
	if !bytes.HasPrefix(sink.feeds[2], src.Cycle[:16]) {
		t.Fatalf("third feed should start the cell stream")
	}
	streamed := int64(len(sink.feeds[1]) + len(sink.feeds[2]))
	if result.Report.BytesFed != streamed {
		t.Fatalf("bytes fed = %d, want %d", result.Report.BytesFed, streamed)
	}
}

func TestRunSinkTimeoutAborts(t *testing.T) {
	o, sink, pipeline := newTestOrchestrator(testOptions())
	sink.failOn = 2

	result := o.Run(context.Background(), pattern.ASCII)
	if !result.Aborted {
		t.Fatalf("expected aborted run")
	}
	if result.Report != nil {
		t.Fatalf("aborted run must not carry a report")
	}
	if len(sink.feeds) != 1 || sink.output() != "Start XTerm Benchmark.\r\n" {
		t.Fatalf("nothing may be written after the failure, got %q", sink.output())
	}
	if pipeline.registered() {
		t.Fatalf("observer must be unregistered after abort")
	}
	if o.State() != StateDone {
		t.Fatalf("state: %v", o.State())
	}
}

func TestRunTimeoutDuringReport(t *testing.T) {
	o, sink, _ := newTestOrchestrator(testOptions())
	// start, stream, reset, end, then the first report line.
	sink.failOn = 5

	result := o.Run(context.Background(), pattern.ASCII)
	if !result.Aborted || result.Report != nil {
		t.Fatalf("expected aborted run, got %+v", result)
	}
	if strings.Contains(sink.output(), "Terminal Size") {
		t.Fatalf("report lines must not appear after failure")
	}
}

func TestRunUnknownVariantStillReports(t *testing.T) {
	o, sink, _ := newTestOrchestrator(testOptions())

	result := o.Run(context.Background(), pattern.Variant(99))
	if result.Aborted || result.Report == nil {
		t.Fatalf("expected report for unknown variant")
	}
	if result.Report.Total != 0 || result.Report.BytesFed != 0 {
		t.Fatalf("unknown variant should stream nothing: %+v", result.Report)
	}
	out := sink.output()
	if !strings.Contains(out, "Total           : 0.000 sec\r\n") {
		t.Fatalf("expected zero total line in:\n%s", out)
	}
	if !strings.Contains(out, "Start XTerm Benchmark.\r\n\x1b[0m\r\nEnd XTerm Benchmark.\r\n") {
		t.Fatalf("markers should be adjacent for an empty run")
	}
}

func TestRunCancelledDuringWarmup(t *testing.T) {
	o, sink, _ := newTestOrchestrator(testOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := o.Run(ctx, pattern.ASCII)
	if !result.Aborted {
		t.Fatalf("expected aborted run")
	}
	if len(sink.feeds) != 0 {
		t.Fatalf("nothing should be fed when cancelled in warmup")
	}
}

func TestRunOnlyOnce(t *testing.T) {
	o, sink, _ := newTestOrchestrator(testOptions())

	first := o.Run(context.Background(), pattern.ASCII)
	feeds := len(sink.feeds)
	second := o.Run(context.Background(), pattern.ASCII)

	if first.Aborted {
		t.Fatalf("first run should complete")
	}
	if !second.Aborted || second.Report != nil {
		t.Fatalf("second run should be refused")
	}
	if len(sink.feeds) != feeds {
		t.Fatalf("refused run fed data")
	}
}

func TestStartDeliversOneResult(t *testing.T) {
	o, _, _ := newTestOrchestrator(testOptions())

	results := o.Start(context.Background(), pattern.Mixed)
	select {
	case result, ok := <-results:
		if !ok || result.Report == nil {
			t.Fatalf("expected a report, got %+v", result)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for result")
	}
	if _, ok := <-results; ok {
		t.Fatalf("results channel should be closed")
	}
}

func TestRunProgressAndCollector(t *testing.T) {
	opts := testOptions()
	collector := metrics.NewCollector()
	var updates []Progress
	opts.Collector = collector
	opts.OnProgress = func(p Progress) { updates = append(updates, p) }

	o, _, _ := newTestOrchestrator(opts)
	result := o.Run(context.Background(), pattern.ASCIIColor16)
	if result.Aborted {
		t.Fatalf("unexpected abort")
	}
	if len(updates) < 2 {
		t.Fatalf("expected progress updates, got %d", len(updates))
	}
	sawRunning := false
	for _, p := range updates {
		if p.State == StateRunning && p.BytesFed > 0 {
			sawRunning = true
		}
	}
	if !sawRunning {
		t.Fatalf("no running progress observed")
	}
	last := updates[len(updates)-1]
	if last.State != StateDone || last.Fraction() != 1 {
		t.Fatalf("last progress: %+v", last)
	}
	if last.BytesFed != result.Report.BytesFed {
		t.Fatalf("progress bytes %d, report bytes %d", last.BytesFed, result.Report.BytesFed)
	}

	lines, err := collector.Summary()
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	found := false
	for _, line := range lines {
		if strings.Contains(line.String(), "outcome=\"completed\"") && line.Value == 1 {
			found = true
		}
	}
	if !found {
		t.Fatalf("completed outcome not recorded: %v", lines)
	}
}
