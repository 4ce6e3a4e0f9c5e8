// internal/tui/run.go
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mwiater/termbench/internal/benchmark"
	"github.com/mwiater/termbench/internal/pattern"
)

// StartFunc launches a run with the given progress callback and returns its
// result channel.
type StartFunc func(ctx context.Context, onProgress func(benchmark.Progress)) <-chan benchmark.Result

// Run shows live progress while start executes. Quitting the view cancels the
// run; Run still waits for its result before returning.
func Run(ctx context.Context, variant pattern.Variant, out io.Writer, start StartFunc) (benchmark.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newModel(variant, cancel)
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if out != nil {
		opts = append(opts, tea.WithOutput(out))
	}
	p := tea.NewProgram(m, opts...)

	results := start(ctx, func(pr benchmark.Progress) {
		p.Send(ProgressMsg(pr))
	})

	final := make(chan benchmark.Result, 1)
	go func() {
		r := <-results
		final <- r
		p.Send(ResultMsg(r))
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) && !errors.Is(err, tea.ErrInterrupted) {
		cancel()
		return <-final, fmt.Errorf("run progress view: %w", err)
	}
	cancel()
	return <-final, nil
}
