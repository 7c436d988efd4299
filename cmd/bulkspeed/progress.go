package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bulkspeed/bulkspeed/internal/pagespeed"
	"github.com/bulkspeed/bulkspeed/internal/runner"
)

type progressMsg struct {
	done  int
	total int
	url   string
}

type batchDoneMsg struct {
	outcomes []runner.Outcome
}

// runModel is the live progress view for an interactive run. The batch runs
// in its own goroutine; the model only receives progress and completion
// messages. Ctrl+C cancels the batch context, which the runner honors at the
// next task boundary.
type runModel struct {
	bar       progress.Model
	percent   float64
	last      string
	done      int
	total     int
	cancel    context.CancelFunc
	cancelled bool
	finished  bool
	outcomes  []runner.Outcome
}

func newRunModel(total int, cancel context.CancelFunc) runModel {
	return runModel{
		bar:    progress.New(progress.WithDefaultGradient()),
		total:  total,
		cancel: cancel,
	}
}

func (m runModel) Init() tea.Cmd {
	return nil
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.cancel()
			m.cancelled = true
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.bar.Width = min(msg.Width-4, 60)
		return m, nil
	case progressMsg:
		m.done = msg.done
		m.last = msg.url
		m.percent = float64(msg.done) / float64(msg.total)
		return m, nil
	case batchDoneMsg:
		m.outcomes = msg.outcomes
		m.finished = true
		return m, tea.Quit
	}
	return m, nil
}

func (m runModel) View() string {
	if m.finished {
		return ""
	}
	status := "Starting..."
	if m.last != "" {
		status = "Tested: " + m.last
	}
	if m.cancelled {
		status = "Cancelling after the current task..."
	}
	return fmt.Sprintf("%s\n%s %d/%d URLs\n", status, m.bar.ViewAs(m.percent), m.done, m.total)
}

// runWithProgress drives the batch under a bubbletea progress UI and returns
// the collected outcomes once the batch (or its cancellation) completes.
func runWithProgress(ctx context.Context, cancel context.CancelFunc, r *runner.Runner, list []string, devices []pagespeed.Device) ([]runner.Outcome, error) {
	p := tea.NewProgram(newRunModel(len(list), cancel))
	r.OnProgress = func(done, total int, url string) {
		p.Send(progressMsg{done: done, total: total, url: url})
	}

	go func() {
		p.Send(batchDoneMsg{outcomes: r.Run(ctx, list, devices)})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("progress ui: %w", err)
	}
	return final.(runModel).outcomes, nil
}
