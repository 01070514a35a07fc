package scenario

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Progress shows the status of every scenario of a replay while it runs.
type Progress struct {
	program *tea.Program
	done    chan error

	mu       sync.Mutex
	finished bool
}

// NewProgress creates a progress view of the named scenarios writing to w.
func NewProgress(w io.Writer, names []string, styles *Styles) *Progress {
	program := tea.NewProgram(newProgressModel(names, styles),
		tea.WithOutput(w),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)

	return &Progress{
		program: program,
		done:    make(chan error, 1),
	}
}

// Start runs the event loop in the background.
func (p *Progress) Start() {
	go func() {
		_, err := p.program.Run()
		p.done <- err
	}()
}

// Started marks scenario i as running.
func (p *Progress) Started(i int) {
	p.send(startedMsg(i))
}

// Finished records the report of scenario i.
func (p *Progress) Finished(i int, report *Report) {
	p.send(finishedMsg{index: i, report: report})
}

// Stop renders the final state and waits for the event loop to exit.
func (p *Progress) Stop() error {
	p.mu.Lock()
	p.finished = true
	p.mu.Unlock()

	p.program.Send(doneMsg{})

	return <-p.done
}

func (p *Progress) send(msg tea.Msg) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finished {
		return
	}

	p.program.Send(msg)
}

type rowStatus int

const (
	rowPending rowStatus = iota
	rowRunning
	rowPass
	rowFail
)

type progressRow struct {
	name   string
	status rowStatus
	steps  int
	failed int
}

type progressModel struct {
	styles  *Styles
	spinner spinner.Model
	rows    []progressRow
	start   time.Time
	elapsed time.Duration
	done    bool
}

type (
	startedMsg  int
	finishedMsg struct {
		index  int
		report *Report
	}
	doneMsg struct{}
)

func newProgressModel(names []string, styles *Styles) *progressModel {
	if styles == nil {
		styles = PlainStyles()
	}

	rows := make([]progressRow, len(names))
	for i, name := range names {
		rows[i] = progressRow{name: name}
	}

	return &progressModel{
		styles: styles,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(styles.Path),
		),
		rows:  rows,
		start: time.Now(),
	}
}

func (m *progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) { //nolint:ireturn // tea.Model is required by tea.Program
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}

		var cmd tea.Cmd

		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case startedMsg:
		if row := m.row(int(msg)); row != nil {
			row.status = rowRunning
		}

	case finishedMsg:
		row := m.row(msg.index)
		if row == nil || msg.report == nil {
			return m, nil
		}

		row.status = rowPass
		row.steps = len(msg.report.Steps)
		row.failed = 0

		for _, step := range msg.report.Steps {
			if step.Failed() {
				row.failed++
			}
		}

		if !msg.report.Passed() {
			row.status = rowFail
		}

	case doneMsg:
		m.done = true
		m.elapsed = time.Since(m.start)

		return m, tea.Quit
	}

	return m, nil
}

func (m *progressModel) row(i int) *progressRow {
	if i < 0 || i >= len(m.rows) {
		return nil
	}

	return &m.rows[i]
}

func (m *progressModel) View() string {
	var b strings.Builder

	completed, failed := 0, 0

	for _, row := range m.rows {
		fmt.Fprintf(&b, "%s %s", m.symbol(row.status), row.name)

		switch row.status {
		case rowPass:
			completed++
			fmt.Fprintf(&b, " %s", m.styles.Dim.Render(fmt.Sprintf("(%d steps)", row.steps)))
		case rowFail:
			completed++
			failed++
			fmt.Fprintf(&b, " %s", m.styles.Fail.Render(fmt.Sprintf("(%d of %d steps failed)", row.failed, row.steps)))
		case rowPending, rowRunning:
		}

		b.WriteString("\n")
	}

	summary := fmt.Sprintf("%d/%d scenarios", completed, len(m.rows))
	if failed > 0 {
		summary += ", " + m.styles.Fail.Render(fmt.Sprintf("%d failed", failed))
	}

	if m.done {
		summary += " " + m.styles.Dim.Render(fmt.Sprintf("in %s", m.elapsed.Round(time.Millisecond)))
	}

	b.WriteString("\n" + summary + "\n")

	return b.String()
}

func (m *progressModel) symbol(status rowStatus) string {
	switch status {
	case rowRunning:
		return m.spinner.View()
	case rowPass:
		return m.styles.Pass.Render(m.styles.SymbolPass)
	case rowFail:
		return m.styles.Fail.Render(m.styles.SymbolFail)
	default:
		return m.styles.Pending.Render(m.styles.SymbolPending)
	}
}
