// internal/tui/model.go
// Package tui renders live progress of a benchmark run.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mwiater/termbench/internal/benchmark"
	"github.com/mwiater/termbench/internal/pattern"
)

// ProgressMsg carries a progress snapshot from the run goroutine.
type ProgressMsg benchmark.Progress

// ResultMsg carries the final result and ends the program.
type ResultMsg benchmark.Result

const (
	defaultBarWidth = 40
	maxBarWidth     = 80
)

type model struct {
	variant  pattern.Variant
	spinner  spinner.Model
	bar      progress.Model
	last     benchmark.Progress
	result   *benchmark.Result
	quitting bool
	cancel   func()
	width    int
}

// newModel creates the progress model. cancel is invoked when the user quits
// before the run finishes.
func newModel(variant pattern.Variant, cancel func()) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &model{
		variant: variant,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(defaultBarWidth)),
		last:    benchmark.Progress{Variant: variant, State: benchmark.StateIdle},
		cancel:  cancel,
	}
}

// Init starts the spinner animation.
func (m *model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(max(msg.Width-8, 10), maxBarWidth)
		return m, nil

	case ProgressMsg:
		m.last = benchmark.Progress(msg)
		return m, nil

	case ResultMsg:
		r := benchmark.Result(msg)
		m.result = &r
		m.last.State = benchmark.StateDone
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) View() string {
	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(renderVariantBadge(m.variant))
	b.WriteString(renderAxesBadge(m.variant))
	b.WriteString(renderStateBadge(m.last.State))
	b.WriteString("\n\n  ")

	switch {
	case m.result != nil && m.result.Aborted:
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("Run aborted."))
	case m.result != nil:
		b.WriteString("Run complete.")
	case m.quitting:
		b.WriteString("Cancelling...")
	default:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(phaseText(m.last))
	}
	b.WriteString("\n\n  ")
	b.WriteString(m.bar.ViewAs(m.last.Fraction()))
	b.WriteString("\n\n")

	stat := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	b.WriteString(stat.Render(fmt.Sprintf("  %s fed in %d chunks, %d paints",
		formatBytes(m.last.BytesFed), m.last.ChunksFed, m.last.Samples)))
	b.WriteString("\n")
	b.WriteString(stat.Render("  (q to cancel)"))
	b.WriteString("\n")
	return b.String()
}

func phaseText(p benchmark.Progress) string {
	switch p.State {
	case benchmark.StateWarmup:
		return "Warming up..."
	case benchmark.StateRunning:
		remaining := max(p.Duration-p.Elapsed, 0).Round(100 * time.Millisecond)
		return fmt.Sprintf("Streaming... %s left", remaining)
	case benchmark.StateFinalizing:
		return "Writing report..."
	case benchmark.StateDone:
		return "Done."
	default:
		return "Starting..."
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
