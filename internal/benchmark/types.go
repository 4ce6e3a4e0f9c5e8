// internal/benchmark/types.go
package benchmark

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/mwiater/termbench/internal/metrics"
	"github.com/mwiater/termbench/internal/pattern"
	"github.com/mwiater/termbench/internal/stream"
)

const (
	// DefaultWarmup is the settle delay before measurement starts.
	DefaultWarmup = 2000 * time.Millisecond
	// DefaultDuration is how long chunks are streamed.
	DefaultDuration = 30000 * time.Millisecond
	// DefaultChunkSize is the size of each streamed chunk.
	DefaultChunkSize = stream.DefaultChunkSize
	// DefaultFeedTimeout bounds every call to Sink.Feed.
	DefaultFeedTimeout = 5000 * time.Millisecond
)

var (
	// ErrSinkTimeout is wrapped by sinks that could not deliver within the feed timeout.
	ErrSinkTimeout = errors.New("sink feed timed out")
	// ErrAlreadyRun is logged when an orchestrator is asked to run a second time.
	ErrAlreadyRun = errors.New("orchestrator already ran")
)

// Sink delivers bytes to the render pipeline under test. Chunks must be
// delivered in iteration order. Feed returns an error wrapping ErrSinkTimeout
// when a chunk cannot be handed over within timeout.
type Sink interface {
	Feed(ctx context.Context, chunks iter.Seq[[]byte], timeout time.Duration) error
}

// PaintObserver receives the duration of one paint cycle. It is called from the
// pipeline's own goroutine.
type PaintObserver func(time.Duration)

// Pipeline is the read side of the render pipeline under test.
type Pipeline interface {
	// SetPaintObserver registers fn for paint cycles; nil unregisters.
	SetPaintObserver(fn PaintObserver)
	// TerminalSize returns the current width and height in cells.
	TerminalSize() (width, height int)
	// BufferSize returns the configured scroll-back buffer size in lines.
	BufferSize() int
}

// State is a phase of a benchmark run.
type State int32

const (
	StateIdle State = iota
	StateWarmup
	StateRunning
	StateFinalizing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWarmup:
		return "warmup"
	case StateRunning:
		return "running"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Progress is a periodic view of a run in flight.
type Progress struct {
	RunID     string
	Variant   pattern.Variant
	State     State
	BytesFed  int64
	ChunksFed int64
	Samples   int64
	Elapsed   time.Duration
	Duration  time.Duration
}

// Fraction returns the share of the streaming window already elapsed, in [0, 1].
func (p Progress) Fraction() float64 {
	if p.State >= StateFinalizing {
		return 1
	}
	if p.Duration <= 0 || p.State < StateRunning {
		return 0
	}
	f := float64(p.Elapsed) / float64(p.Duration)
	if f > 1 {
		return 1
	}
	return f
}

// Result is delivered once per run. Report is nil when the run was aborted.
type Result struct {
	RunID   string
	Variant pattern.Variant
	Report  *Report
	Aborted bool
}

// Options tunes a run. The zero values of the function fields select the real
// clock, a context-aware sleep, and heap accounting through runtime.MemStats.
type Options struct {
	Warmup      time.Duration
	Duration    time.Duration
	ChunkSize   int
	FeedTimeout time.Duration

	// RunID identifies the run in logs and the report; generated when empty.
	RunID string

	Clock  func() time.Time
	Sleep  func(ctx context.Context, d time.Duration) error
	Memory func() int64

	Collector *metrics.Collector
	// OnProgress is called on the run goroutine, at most once per ProgressInterval.
	OnProgress       func(Progress)
	ProgressInterval time.Duration
}

// DefaultOptions returns the fixed benchmark timings.
func DefaultOptions() Options {
	return Options{
		Warmup:           DefaultWarmup,
		Duration:         DefaultDuration,
		ChunkSize:        DefaultChunkSize,
		FeedTimeout:      DefaultFeedTimeout,
		ProgressInterval: 100 * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.FeedTimeout <= 0 {
		o.FeedTimeout = DefaultFeedTimeout
	}
	if o.Warmup < 0 {
		o.Warmup = 0
	}
	if o.Duration < 0 {
		o.Duration = 0
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Sleep == nil {
		o.Sleep = sleepContext
	}
	if o.Memory == nil {
		o.Memory = HeapInUse
	}
	return o
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
