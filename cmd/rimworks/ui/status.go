package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"rimworks/internal/dashboard"
)

// jobsChangedMsg is sent when the jobs directory changed on disk.
type jobsChangedMsg struct{}

// jobStatusScreen shows jobs grouped by chemical type. With an operator set
// it shows only that operator's jobs.
type jobStatusScreen struct {
	env      *env
	operator string
	agg      *dashboard.Aggregator

	dash     dashboard.Dashboard
	viewport viewport.Model
	err      string

	watcher *dashboard.Watcher
	done    chan struct{}
}

func newJobStatusScreen(e *env, operator string) *jobStatusScreen {
	return &jobStatusScreen{
		env:      e,
		operator: operator,
		agg:      dashboard.NewAggregator(e.Store.Jobs()),
		viewport: viewport.New(80, 20),
	}
}

func (s *jobStatusScreen) Title() string {
	if s.operator != "" {
		return "Assigned Jobs"
	}
	return "Job Status"
}

func (s *jobStatusScreen) Help() string {
	return "↑/↓ scroll  •  r refresh  •  e export xlsx  •  esc back"
}

func (s *jobStatusScreen) SetSize(w, h int) {
	s.viewport.Width = max(w-4, 20)
	s.viewport.Height = max(h-8, 5)
}

// Activate reloads jobs and, when watching is enabled, starts following the
// jobs directory until the screen is covered or closed.
func (s *jobStatusScreen) Activate() tea.Cmd {
	s.reload()
	if !s.env.Watch {
		return nil
	}
	w, err := dashboard.NewWatcher(s.env.Store.Jobs().Dir(), s.env.Config.GetWatchDebounce())
	if err != nil {
		s.env.log.Warn("job watcher unavailable", zap.Error(err))
		return nil
	}
	if err := w.Start(s.env.ctx); err != nil {
		w.Stop()
		s.env.log.Warn("job watcher unavailable", zap.Error(err))
		return nil
	}
	s.watcher = w
	s.done = make(chan struct{})
	return waitForJobs(w, s.done)
}

// Deactivate stops the watcher.
func (s *jobStatusScreen) Deactivate() {
	if s.watcher == nil {
		return
	}
	close(s.done)
	s.watcher.Stop()
	s.watcher = nil
}

// waitForJobs blocks until the watcher reports a change or done is closed.
func waitForJobs(w *dashboard.Watcher, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-w.Changes():
			return jobsChangedMsg{}
		case <-done:
			return nil
		}
	}
}

func (s *jobStatusScreen) reload() {
	var (
		d   dashboard.Dashboard
		err error
	)
	if s.operator != "" {
		d, err = s.agg.ForOperator(s.env.ctx, s.operator)
	} else {
		d, err = s.agg.Load(s.env.ctx)
	}
	if err != nil {
		s.env.log.Error("failed to load jobs", zap.Error(err))
		s.err = "Could not read jobs: " + err.Error()
		return
	}
	s.err = ""
	s.dash = d
	s.viewport.SetContent(s.render())
}

func (s *jobStatusScreen) render() string {
	st := s.env.styles
	var sb strings.Builder
	for _, w := range s.dash.Warnings {
		sb.WriteString(st.Warning.Render("skipped "+w.String()) + "\n")
	}
	if len(s.dash.Warnings) > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(RenderDashboard(st, s.dash))
	return sb.String()
}

func (s *jobStatusScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case jobsChangedMsg:
		s.reload()
		if s.watcher != nil {
			return waitForJobs(s.watcher, s.done)
		}
		return nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			s.env.pop()
			return nil
		case "r":
			s.reload()
			return nil
		case "e":
			s.export()
			return nil
		}
	}
	var cmd tea.Cmd
	s.viewport, cmd = s.viewport.Update(msg)
	return cmd
}

// export writes the current grouping next to the data directory.
func (s *jobStatusScreen) export() {
	data, err := s.agg.ExportXLSX(s.dash)
	if err != nil {
		s.err = "Export failed: " + err.Error()
		return
	}
	name := "job_status.xlsx"
	if s.operator != "" {
		name = "jobs_" + s.operator + ".xlsx"
	}
	path := filepath.Join(s.env.Store.Root(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		s.err = "Export failed: " + err.Error()
		return
	}
	s.env.log.Info("dashboard exported", zap.String("path", path), zap.Int("jobs", s.dash.Total()))
	s.env.notify(fmt.Sprintf("Exported %d jobs to %s.", s.dash.Total(), path))
}

func (s *jobStatusScreen) View() string {
	st := s.env.styles
	title := "Job Status"
	if s.operator != "" {
		title = "Jobs assigned to " + s.operator
	}
	out := st.Title.Render(title) + "\n" + s.viewport.View()
	if s.err != "" {
		out += "\n" + st.Error.Render(s.err)
	}
	return out
}
