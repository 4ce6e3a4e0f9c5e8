// internal/benchmark/orchestrator.go
// Package benchmark drives a single xterm benchmark run against a render pipeline.
package benchmark

import (
	"context"
	"errors"
	"iter"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mwiater/termbench/internal/logging"
	"github.com/mwiater/termbench/internal/metrics"
	"github.com/mwiater/termbench/internal/pattern"
	"github.com/mwiater/termbench/internal/stream"
)

// Orchestrator runs exactly one benchmark: warmup, streaming, and reporting.
// All run state lives on the goroutine executing Run; callers only see the
// Result and, optionally, Progress callbacks.
type Orchestrator struct {
	sink     Sink
	pipeline Pipeline
	opts     Options

	started atomic.Bool
	state   atomic.Int32
}

// New returns an orchestrator bound to one sink and pipeline.
func New(sink Sink, pipeline Pipeline, opts Options) *Orchestrator {
	return &Orchestrator{
		sink:     sink,
		pipeline: pipeline,
		opts:     opts.withDefaults(),
	}
}

// State returns the current phase.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Start runs the benchmark on its own goroutine and returns immediately. The
// channel receives exactly one Result and is then closed.
func (o *Orchestrator) Start(ctx context.Context, variant pattern.Variant) <-chan Result {
	results := make(chan Result, 1)
	go func() {
		defer close(results)
		results <- o.Run(ctx, variant)
	}()
	return results
}

// Run executes the benchmark on the calling goroutine.
//
// A sink failure aborts the run: no further lines are written and the Result
// carries no report. An unrecognized variant streams nothing and still reports.
func (o *Orchestrator) Run(ctx context.Context, variant pattern.Variant) Result {
	if !o.started.CompareAndSwap(false, true) {
		log.Printf("benchmark run refused: %v", ErrAlreadyRun)
		return Result{Variant: variant, Aborted: true}
	}

	runID := o.opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	r := &run{
		o:       o,
		id:      runID,
		variant: variant,
		timing:  metrics.NewTiming(),
	}
	result := r.execute(ctx)
	o.setState(StateDone)
	r.progress(true)

	if result.Aborted {
		o.opts.Collector.RunFinished(metrics.OutcomeAborted)
	} else {
		o.opts.Collector.RunFinished(metrics.OutcomeCompleted)
	}
	logging.LogRun(runID, StateDone.String(), variant.String(), map[string]any{
		"aborted": result.Aborted,
		"bytes":   r.bytesFed,
	})
	return result
}

func (o *Orchestrator) setState(s State) {
	o.state.Store(int32(s))
}

// run holds the state of one execution.
type run struct {
	o       *Orchestrator
	id      string
	variant pattern.Variant
	timing  *metrics.Timing

	started      time.Time
	lastProgress time.Time
	bytesFed     int64
	chunksFed    int64
}

func (r *run) execute(ctx context.Context) Result {
	o := r.o
	opts := o.opts
	aborted := Result{RunID: r.id, Variant: r.variant, Aborted: true}

	o.setState(StateWarmup)
	logging.LogRun(r.id, StateWarmup.String(), r.variant.String(), map[string]any{"warmup": opts.Warmup})
	if err := opts.Sleep(ctx, opts.Warmup); err != nil {
		r.abort(err)
		return aborted
	}

	o.setState(StateRunning)
	memBefore := opts.Memory()

	o.pipeline.SetPaintObserver(func(d time.Duration) {
		r.timing.Update(d)
		opts.Collector.PaintObserved(d)
	})
	unregister := sync.OnceFunc(func() { o.pipeline.SetPaintObserver(nil) })
	defer unregister()

	if err := r.writeLine(ctx, startMarker); err != nil {
		r.abort(err)
		return aborted
	}

	r.started = opts.Clock()
	deadline := r.started.Add(opts.Duration)
	logging.LogRun(r.id, StateRunning.String(), r.variant.String(), map[string]any{
		"chunk":    opts.ChunkSize,
		"duration": opts.Duration,
	})

	total, err := r.stream(ctx, deadline)
	if err != nil {
		r.abort(err)
		return aborted
	}

	o.setState(StateFinalizing)
	r.progress(true)
	for _, line := range []string{resetLine, endMarker} {
		if err := r.writeLine(ctx, line); err != nil {
			r.abort(err)
			return aborted
		}
	}

	unregister()
	memAfter := opts.Memory()

	report := newReport(r.id, r.variant, r.timing.Snapshot())
	report.Width, report.Height = o.pipeline.TerminalSize()
	report.BufferSize = o.pipeline.BufferSize()
	report.Total = total
	report.MemoryDelta = memAfter - memBefore
	report.BytesFed = r.bytesFed
	report.ChunksFed = r.chunksFed

	for _, line := range report.Lines() {
		if err := r.writeLine(ctx, line); err != nil {
			r.abort(err)
			return aborted
		}
	}
	return Result{RunID: r.id, Variant: r.variant, Report: report}
}

// stream feeds the prelude and the generated chunks, returning the elapsed
// wall time. Unrecognized variants feed nothing and take no time.
func (r *run) stream(ctx context.Context, deadline time.Time) (time.Duration, error) {
	opts := r.o.opts
	src, ok := pattern.Build(r.variant)
	if !ok {
		log.Printf("run %s: unrecognized variant %s, streaming nothing", r.id, r.variant)
		return 0, nil
	}

	start := opts.Clock()
	if len(src.Prelude) > 0 {
		if err := r.o.sink.Feed(ctx, r.track(single(src.Prelude)), opts.FeedTimeout); err != nil {
			return 0, err
		}
	}
	gen := stream.New(src.Cycle, opts.ChunkSize, deadline, stream.WithClock(opts.Clock))
	if err := r.o.sink.Feed(ctx, r.track(gen.Chunks()), opts.FeedTimeout); err != nil {
		return 0, err
	}
	return opts.Clock().Sub(start), nil
}

// track counts chunks as the sink pulls them.
func (r *run) track(chunks iter.Seq[[]byte]) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for chunk := range chunks {
			r.bytesFed += int64(len(chunk))
			r.chunksFed++
			r.o.opts.Collector.ChunkFed(len(chunk))
			r.progress(false)
			if !yield(chunk) {
				return
			}
		}
	}
}

func (r *run) progress(force bool) {
	opts := r.o.opts
	if opts.OnProgress == nil {
		return
	}
	now := opts.Clock()
	if !force && now.Sub(r.lastProgress) < opts.ProgressInterval {
		return
	}
	r.lastProgress = now

	var elapsed time.Duration
	if !r.started.IsZero() {
		elapsed = now.Sub(r.started)
	}
	opts.OnProgress(Progress{
		RunID:     r.id,
		Variant:   r.variant,
		State:     r.o.State(),
		BytesFed:  r.bytesFed,
		ChunksFed: r.chunksFed,
		Samples:   r.timing.Count(),
		Elapsed:   elapsed,
		Duration:  opts.Duration,
	})
}

func (r *run) writeLine(ctx context.Context, text string) error {
	return r.o.sink.Feed(ctx, single([]byte(text+newline)), r.o.opts.FeedTimeout)
}

// abort logs why the run ended early. Nothing is surfaced to the caller beyond
// the aborted Result.
func (r *run) abort(err error) {
	reason := "error"
	switch {
	case errors.Is(err, ErrSinkTimeout):
		reason = "sink timeout"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		reason = "cancelled"
	}
	logging.LogRun(r.id, "abort", r.variant.String(), map[string]any{
		"reason": reason,
		"state":  r.o.State().String(),
	})
}

func single(chunk []byte) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		yield(chunk)
	}
}
