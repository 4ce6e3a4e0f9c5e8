// internal/tui/model_test.go
package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/mwiater/termbench/internal/benchmark"
	"github.com/mwiater/termbench/internal/pattern"
)

// TestUpdate verifies quit keys cancel the run, window resizes size the bar,
// and progress and result messages drive the view state.
func TestUpdate(t *testing.T) {
	cancelled := false
	m := newModel(pattern.CJKColor24, func() { cancelled = true })

	if m.Init() == nil {
		t.Error("Expected Init to start the spinner")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("Expected a quit command, but got nil")
	}
	if !cancelled || !m.quitting {
		t.Errorf("Expected quit to cancel the run")
	}

	m = newModel(pattern.ASCII, nil)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	m = updated.(*model)
	if m.width != 60 || m.bar.Width != 52 {
		t.Errorf("Expected width 60 and bar width 52, got %d and %d", m.width, m.bar.Width)
	}
	updated, _ = m.Update(tea.WindowSizeMsg{Width: 400, Height: 20})
	m = updated.(*model)
	if m.bar.Width != maxBarWidth {
		t.Errorf("Expected bar width capped at %d, got %d", maxBarWidth, m.bar.Width)
	}

	progress := benchmark.Progress{
		Variant:   pattern.ASCII,
		State:     benchmark.StateRunning,
		BytesFed:  4096,
		ChunksFed: 21,
		Samples:   7,
		Elapsed:   time.Second,
		Duration:  4 * time.Second,
	}
	updated, cmd = m.Update(ProgressMsg(progress))
	m = updated.(*model)
	if cmd != nil {
		t.Errorf("Progress should not produce a command")
	}
	if m.last.BytesFed != 4096 || m.last.State != benchmark.StateRunning {
		t.Errorf("Progress not recorded: %+v", m.last)
	}

	updated, cmd = m.Update(ResultMsg(benchmark.Result{Variant: pattern.ASCII}))
	m = updated.(*model)
	if cmd == nil || m.result == nil || m.last.State != benchmark.StateDone {
		t.Errorf("Result should finish the program")
	}
}

func TestView(t *testing.T) {
	m := newModel(pattern.MixedColor256, nil)
	_, _ = m.Update(ProgressMsg(benchmark.Progress{
		State:     benchmark.StateRunning,
		BytesFed:  2048,
		ChunksFed: 10,
		Samples:   3,
		Elapsed:   time.Second,
		Duration:  3 * time.Second,
	}))

	view := ansi.Strip(m.View())
	for _, want := range []string{
		"mixed-color256",
		"ASCII+CJK / 256 colors",
		"running",
		"Streaming... 2s left",
		"2.0 KiB fed in 10 chunks, 3 paints",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected view to contain %q, got:\n%s", want, view)
		}
	}

	_, _ = m.Update(ResultMsg(benchmark.Result{Aborted: true}))
	if view := ansi.Strip(m.View()); !strings.Contains(view, "Run aborted.") {
		t.Errorf("Expected aborted notice, got:\n%s", view)
	}
}

func TestPhaseTextAndBytes(t *testing.T) {
	if got := phaseText(benchmark.Progress{State: benchmark.StateWarmup}); got != "Warming up..." {
		t.Errorf("warmup text: %q", got)
	}
	if got := phaseText(benchmark.Progress{State: benchmark.StateRunning, Elapsed: 5 * time.Second, Duration: time.Second}); got != "Streaming... 0s left" {
		t.Errorf("overrun text: %q", got)
	}
	cases := map[int64]string{0: "0 B", 1023: "1023 B", 1536: "1.5 KiB", 5 << 20: "5.0 MiB"}
	for n, want := range cases {
		if got := formatBytes(n); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", n, got, want)
		}
	}
}
