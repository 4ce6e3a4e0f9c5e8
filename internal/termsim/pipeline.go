// internal/termsim/pipeline.go
package termsim

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mwiater/termbench/internal/benchmark"
)

const (
	DefaultWidth      = 80
	DefaultHeight     = 24
	DefaultBufferSize = 1000
	DefaultQueueDepth = 64
	// DefaultMaxBatch caps how many queued chunks one paint cycle absorbs.
	DefaultMaxBatch = 16
)

// ErrClosed is returned by Feed once the pipeline has been closed.
var ErrClosed = errors.New("termsim: pipeline closed")

// Options sizes the emulated terminal and its input queue.
type Options struct {
	Width      int
	Height     int
	BufferSize int
	QueueDepth int
	MaxBatch   int
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.BufferSize < 0 {
		o.BufferSize = 0
	}
	if o.QueueDepth <= 0 {
		o.QueueDepth = DefaultQueueDepth
	}
	if o.MaxBatch <= 0 {
		o.MaxBatch = DefaultMaxBatch
	}
	return o
}

// Stats counts the work done by the render goroutine.
type Stats struct {
	Paints     int64
	Chunks     int64
	Bytes      int64
	Graphemes  int64
	Sequences  int64
	Scrollback int
}

type item struct {
	data []byte
	ack  chan struct{}
}

// Pipeline is a headless terminal: Feed enqueues output, a render goroutine
// decodes it into a Screen and paints a frame per batch. Each paint cycle is
// timed and reported to the registered observer.
type Pipeline struct {
	opts   Options
	queue  chan item
	quit   chan struct{}
	doneCh chan struct{}

	observer atomic.Pointer[benchmark.PaintObserver]

	mu     sync.Mutex
	screen *Screen
	frame  string
	stats  Stats

	started   atomic.Bool
	startOnce sync.Once
	closeOnce sync.Once
}

// NewPipeline returns a stopped pipeline. Call Start to begin painting.
func NewPipeline(opts Options) *Pipeline {
	opts = opts.withDefaults()
	return &Pipeline{
		opts:   opts,
		queue:  make(chan item, opts.QueueDepth),
		quit:   make(chan struct{}),
		doneCh: make(chan struct{}),
		screen: NewScreen(opts.Width, opts.Height, opts.BufferSize),
	}
}

// Start launches the render goroutine. It stops when ctx is done or Close is
// called.
func (p *Pipeline) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		p.started.Store(true)
		go p.loop(ctx)
	})
}

// Close stops the render goroutine and waits for it when it was started.
func (p *Pipeline) Close() error {
	p.closeOnce.Do(func() {
		close(p.quit)
	})
	if p.started.Load() {
		<-p.doneCh
	}
	return nil
}

func (p *Pipeline) loop(ctx context.Context) {
	defer close(p.doneCh)
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.quit:
			return
		case it := <-p.queue:
			p.paint(it)
		}
	}
}

// paint absorbs first plus whatever else is queued, up to MaxBatch items, and
// renders one frame. Batches holding only Sync markers do not paint.
func (p *Pipeline) paint(first item) {
	start := time.Now()
	var acks []chan struct{}
	wrote := false

	p.mu.Lock()
	it := first
	for n := 0; ; n++ {
		if it.ack != nil {
			acks = append(acks, it.ack)
		} else {
			_, _ = p.screen.Write(it.data)
			wrote = true
			p.stats.Chunks++
			p.stats.Bytes += int64(len(it.data))
		}
		if n+1 >= p.opts.MaxBatch {
			break
		}
		var ok bool
		select {
		case it, ok = <-p.queue:
		default:
		}
		if !ok {
			break
		}
	}
	if wrote {
		p.frame = p.screen.Render()
		p.stats.Paints++
		p.stats.Graphemes = p.screen.graphemes
		p.stats.Sequences = p.screen.sequences
		p.stats.Scrollback = p.screen.sbLen
	}
	p.mu.Unlock()

	if wrote {
		elapsed := time.Since(start)
		if fn := p.observer.Load(); fn != nil && *fn != nil {
			(*fn)(elapsed)
		}
	}
	for _, ack := range acks {
		close(ack)
	}
}

// Feed enqueues chunks in order. Each chunk must be accepted within timeout;
// otherwise Feed returns an error wrapping benchmark.ErrSinkTimeout.
func (p *Pipeline) Feed(ctx context.Context, chunks iter.Seq[[]byte], timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	n := 0
	for chunk := range chunks {
		n++
		timer.Reset(timeout)
		select {
		case p.queue <- item{data: chunk}:
		case <-ctx.Done():
			return ctx.Err()
		case <-p.quit:
			return ErrClosed
		case <-timer.C:
			return fmt.Errorf("termsim: chunk %d not accepted within %v: %w", n, timeout, benchmark.ErrSinkTimeout)
		}
	}
	return nil
}

// Sync blocks until everything fed before the call has been painted.
func (p *Pipeline) Sync(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case p.queue <- item{ack: ack}:
	case <-ctx.Done():
		return ctx.Err()
	case <-p.quit:
		return ErrClosed
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.quit:
		return ErrClosed
	}
}

// SetPaintObserver registers fn for paint cycles; nil unregisters.
func (p *Pipeline) SetPaintObserver(fn benchmark.PaintObserver) {
	if fn == nil {
		p.observer.Store(nil)
		return
	}
	p.observer.Store(&fn)
}

// TerminalSize returns the dimensions of the emulated screen.
func (p *Pipeline) TerminalSize() (width, height int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.screen.Size()
}

func (p *Pipeline) BufferSize() int {
	return p.opts.BufferSize
}

// Stats returns a snapshot of the render counters.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Rows returns the visible screen as plain text.
func (p *Pipeline) Rows() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.screen.Rows()
}

// Frame returns the most recently painted frame.
func (p *Pipeline) Frame() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame
}

// Palette returns a palette slot assigned through OSC 4.
func (p *Pipeline) Palette(index int) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.screen.Palette(index)
}

var (
	_ benchmark.Sink     = (*Pipeline)(nil)
	_ benchmark.Pipeline = (*Pipeline)(nil)
)
