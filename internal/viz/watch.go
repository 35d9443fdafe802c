package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/cgsolve/internal/cg"
)

type TickMsg time.Time

// WatchModel steps a CG run one iteration per tick and charts the
// residual history.
type WatchModel struct {
	run       *cg.Run
	title     string
	interval  time.Duration
	running   bool
	residuals []float64
	err       error
}

func NewWatchModel(run *cg.Run, title string, interval time.Duration) WatchModel {
	if interval <= 0 {
		interval = time.Second / 30
	}
	return WatchModel{
		run:       run,
		title:     title,
		interval:  interval,
		running:   true,
		residuals: []float64{run.ResidualNorm()},
	}
}

func (m WatchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m WatchModel) Init() tea.Cmd {
	return m.tick()
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "s":
			if !m.running {
				m.step()
			}
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *WatchModel) step() {
	if m.run.Done() {
		return
	}
	if err := m.run.Step(); err != nil {
		m.err = err
		return
	}
	m.residuals = append(m.residuals, m.run.ResidualNorm())
}

func (m WatchModel) Residuals() []float64 { return m.residuals }
func (m WatchModel) Running() bool        { return m.running }

func (m WatchModel) View() string {
	var s strings.Builder
	s.WriteString(Title.Render(strings.ToUpper(m.title)) + "\n\n")

	status := StatusRunning.Render("RUNNING")
	switch {
	case m.run.Done():
		status = PhaseStyle(m.run.Phase().String()).Render(strings.ToUpper(m.run.Phase().String()))
	case !m.running:
		status = StatusPaused.Render("PAUSED")
	}
	s.WriteString(status + "\n\n")

	if chart := ResidualPlot(m.residuals, 60, 10); chart != "" {
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	progress := float64(m.run.Iterations()) / float64(m.run.MaxIterations())
	s.WriteString(metric("Iteration", fmt.Sprintf("%d / %d", m.run.Iterations(), m.run.MaxIterations())))
	s.WriteString(MetricLabel.Render("") + ProgressBar(progress, 30) + "\n")
	s.WriteString(metric("Residual", fmt.Sprintf("%.3e", m.run.ResidualNorm())))
	s.WriteString(metric("Tolerance", fmt.Sprintf("%.1e", m.run.Tolerance())))
	if m.err != nil {
		s.WriteString(StatusFailed.Render(m.err.Error()) + "\n")
	}

	s.WriteString("\n" + KeyHint.Render("space pause • s step • q quit"))
	return s.String()
}
