// Package progress renders job progress while the backend executes a plan.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/vibecoder/internal/api"
	"github.com/felixgeelhaar/vibecoder/internal/job"
)

// UpdateMsg carries a poll observation into the running view.
type UpdateMsg job.Update

// DoneMsg ends the view. Err is nil when the job finished cleanly.
type DoneMsg struct {
	Err error
}

var (
	statusStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// Model is the BubbleTea model for the job progress view.
type Model struct {
	spinner   spinner.Model
	latest    job.Update
	startTime time.Time
	done      bool
	err       error
}

// NewModel creates a progress model ready to receive updates.
func NewModel() Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{spinner: s, startTime: time.Now()}
}

// Init starts the spinner animation.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles poll observations and spinner ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case UpdateMsg:
		m.latest = job.Update(msg)
		return m, nil

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the spinner, a progress bar, and the current step.
func (m Model) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	p := m.latest.Progress

	status := p.Status
	if status == "" {
		status = "submitting"
	}
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(statusStyle.Render(humanizeStatus(status)))
	b.WriteString("\n\n")

	b.WriteString(renderBar(p.ProgressPercentage))
	fmt.Fprintf(&b, " %d%%\n", p.ProgressPercentage)

	if p.CurrentStep != "" {
		b.WriteString(stepStyle.Render(p.CurrentStep))
		b.WriteString("\n")
	}
	if m.latest.Err != nil {
		b.WriteString(warningStyle.Render("progress check failed, retrying"))
		b.WriteString("\n")
	}

	elapsed := formatDuration(time.Since(m.startTime))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("elapsed %s", elapsed)))
	b.WriteString("\n")

	return b.String()
}

func renderBar(percentage int) string {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}
	const width = 30
	filled := width * percentage / 100
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

func humanizeStatus(status string) string {
	return strings.ReplaceAll(status, "_", " ")
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// Tracker bridges the poll loop to a display. Interactive terminals get the
// animated BubbleTea view; CI and piped output get one line per status
// change.
type Tracker struct {
	writer      io.Writer
	interactive bool

	program *tea.Program
	runDone chan struct{}

	mu         sync.Mutex
	lastStatus string
	lastStep   string
}

// NewTracker creates a tracker. Interactive display is disabled when the
// environment looks like CI.
func NewTracker(w io.Writer, interactive bool) *Tracker {
	if w == nil {
		w = os.Stdout
	}
	if os.Getenv("CI") == "true" || os.Getenv("GITHUB_ACTIONS") == "true" {
		interactive = false
	}
	return &Tracker{writer: w, interactive: interactive}
}

// Start begins rendering. For the interactive view this launches the
// BubbleTea program on its own goroutine.
func (t *Tracker) Start() {
	if !t.interactive {
		return
	}
	t.program = tea.NewProgram(NewModel(), tea.WithOutput(t.writer))
	t.runDone = make(chan struct{})
	go func() {
		defer close(t.runDone)
		_, _ = t.program.Run()
	}()
}

// Update implements job.ProgressFunc.
func (t *Tracker) Update(u job.Update) {
	if t.program != nil {
		t.program.Send(UpdateMsg(u))
		return
	}
	t.printPlain(u)
}

// printPlain writes a line only when the status or step changes, so CI logs
// stay readable over a long poll.
func (t *Tracker) printPlain(u job.Update) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if u.Err != nil {
		fmt.Fprintf(t.writer, "⟲ progress check failed (attempt %d), retrying\n", u.Attempt)
		return
	}
	if u.Progress.Status == t.lastStatus && u.Progress.CurrentStep == t.lastStep {
		return
	}
	t.lastStatus = u.Progress.Status
	t.lastStep = u.Progress.CurrentStep

	symbol := "▶"
	switch u.Progress.Status {
	case api.JobStatusCompleted:
		symbol = "✓"
	case api.JobStatusFailed:
		symbol = "✗"
	}
	line := fmt.Sprintf("%s %s | %d%%", symbol, humanizeStatus(u.Progress.Status), u.Progress.ProgressPercentage)
	if u.Progress.CurrentStep != "" {
		line += " | " + u.Progress.CurrentStep
	}
	fmt.Fprintln(t.writer, line)
}

// Finish stops the display and waits for the interactive view to unwind.
func (t *Tracker) Finish(err error) {
	if t.program == nil {
		return
	}
	t.program.Send(DoneMsg{Err: err})
	<-t.runDone
	t.program = nil
}
