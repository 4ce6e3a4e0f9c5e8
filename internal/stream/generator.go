// internal/stream/generator.go
// Package stream turns a fixed pattern into a deadline-bounded sequence of chunks.
package stream

import (
	"iter"
	"time"
)

// DefaultChunkSize is the size of every chunk except a trailing partial one.
const DefaultChunkSize = 200

// Generator repeats a source buffer in fixed-size chunks until a deadline.
//
// The deadline is checked each time a chunk is pulled. Once it has passed, the
// generator emits the unconsumed remainder of the current cycle (if the cursor
// is mid-cycle) and then reports exhaustion. A Generator is single use and is
// not safe for concurrent pulls.
type Generator struct {
	source    []byte
	chunkSize int
	deadline  time.Time
	now       func() time.Time

	offset  int
	emitted int64
	done    bool
}

// Option customizes a Generator.
type Option func(*Generator)

// WithClock replaces time.Now as the deadline clock.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// New returns a generator over source. It panics if source is empty or
// chunkSize is not positive.
func New(source []byte, chunkSize int, deadline time.Time, opts ...Option) *Generator {
	if len(source) == 0 {
		panic("stream: empty source")
	}
	if chunkSize <= 0 {
		panic("stream: chunk size must be positive")
	}
	g := &Generator{
		source:    source,
		chunkSize: chunkSize,
		deadline:  deadline,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next returns the next chunk. The returned slice is freshly allocated and may
// be retained by the caller. ok is false once the sequence is exhausted.
func (g *Generator) Next() (chunk []byte, ok bool) {
	if g.done {
		return nil, false
	}
	if g.now().Before(g.deadline) {
		chunk = make([]byte, g.chunkSize)
		g.fill(chunk)
		g.emitted += int64(len(chunk))
		return chunk, true
	}

	g.done = true
	if g.offset == 0 {
		return nil, false
	}
	chunk = make([]byte, len(g.source)-g.offset)
	copy(chunk, g.source[g.offset:])
	g.offset = 0
	g.emitted += int64(len(chunk))
	return chunk, true
}

// fill copies from the cursor into buf, wrapping at the end of the source.
func (g *Generator) fill(buf []byte) {
	written := 0
	for written < len(buf) {
		n := copy(buf[written:], g.source[g.offset:])
		written += n
		g.offset += n
		if g.offset >= len(g.source) {
			g.offset = 0
		}
	}
}

// Chunks adapts the generator to a range-over-func sequence. Ranging a second
// time yields nothing once the generator has been drained.
func (g *Generator) Chunks() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for {
			chunk, ok := g.Next()
			if !ok {
				return
			}
			if !yield(chunk) {
				return
			}
		}
	}
}

// Emitted returns the number of bytes produced so far.
func (g *Generator) Emitted() int64 {
	return g.emitted
}

// Done reports whether the generator has been exhausted.
func (g *Generator) Done() bool {
	return g.done
}
