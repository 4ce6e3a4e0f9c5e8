// internal/termsim/writer_sink.go
package termsim

import (
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/mwiater/termbench/internal/benchmark"
)

// WriterSink streams chunks to a real output such as the controlling
// terminal. Each completed write counts as one paint cycle, so the observer
// sees how long the downstream terminal took to absorb every chunk.
type WriterSink struct {
	w          io.Writer
	width      int
	height     int
	bufferSize int

	writes  chan []byte
	results chan error
	quit    chan struct{}
	once    sync.Once
	wedged  atomic.Bool

	observer atomic.Pointer[benchmark.PaintObserver]

	fd      *uintptr
	getSize func(fd uintptr) (width, height int, err error)
}

// NewWriterSink starts a writer goroutine for w. When w is a terminal its
// real size is reported; otherwise the sizes in opts are used.
func NewWriterSink(w io.Writer, opts Options) *WriterSink {
	opts = opts.withDefaults()
	s := &WriterSink{
		w:          w,
		width:      opts.Width,
		height:     opts.Height,
		bufferSize: opts.BufferSize,
		writes:     make(chan []byte),
		results:    make(chan error, 1),
		quit:       make(chan struct{}),
		getSize:    term.GetSize,
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(f.Fd()) {
		fd := f.Fd()
		s.fd = &fd
	}
	go s.loop()
	return s
}

func (s *WriterSink) loop() {
	for {
		select {
		case <-s.quit:
			return
		case chunk := <-s.writes:
			start := time.Now()
			_, err := s.w.Write(chunk)
			if fn := s.observer.Load(); fn != nil && *fn != nil {
				(*fn)(time.Since(start))
			}
			s.results <- err
		}
	}
}

// Feed writes chunks in order. A chunk that is not written within timeout
// wedges the sink: this and every later Feed return an error wrapping
// benchmark.ErrSinkTimeout.
func (s *WriterSink) Feed(ctx context.Context, chunks iter.Seq[[]byte], timeout time.Duration) error {
	if s.wedged.Load() {
		return fmt.Errorf("termsim: writer wedged by an earlier write: %w", benchmark.ErrSinkTimeout)
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	n := 0
	for chunk := range chunks {
		n++
		timer.Reset(timeout)
		select {
		case s.writes <- chunk:
		case <-ctx.Done():
			return ctx.Err()
		case <-s.quit:
			return ErrClosed
		case <-timer.C:
			s.wedged.Store(true)
			return fmt.Errorf("termsim: chunk %d not written within %v: %w", n, timeout, benchmark.ErrSinkTimeout)
		}
		select {
		case err := <-s.results:
			if err != nil {
				return fmt.Errorf("termsim: write chunk %d: %w", n, err)
			}
		case <-ctx.Done():
			s.wedged.Store(true)
			return ctx.Err()
		case <-timer.C:
			s.wedged.Store(true)
			return fmt.Errorf("termsim: chunk %d not written within %v: %w", n, timeout, benchmark.ErrSinkTimeout)
		}
	}
	return nil
}

// Close stops the writer goroutine. A write already in progress is left to
// finish on its own.
func (s *WriterSink) Close() error {
	s.once.Do(func() {
		close(s.quit)
	})
	return nil
}

func (s *WriterSink) SetPaintObserver(fn benchmark.PaintObserver) {
	if fn == nil {
		s.observer.Store(nil)
		return
	}
	s.observer.Store(&fn)
}

// TerminalSize reports the current size of the terminal behind the writer,
// falling back to the configured size when it is not a terminal.
func (s *WriterSink) TerminalSize() (width, height int) {
	if s.fd != nil {
		if w, h, err := s.getSize(*s.fd); err == nil && w > 0 && h > 0 {
			return w, h
		}
	}
	return s.width, s.height
}

func (s *WriterSink) BufferSize() int {
	return s.bufferSize
}

var (
	_ benchmark.Sink     = (*WriterSink)(nil)
	_ benchmark.Pipeline = (*WriterSink)(nil)
)
