package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sweeplab/sweep/internal/display"
	"github.com/sweeplab/sweep/internal/event"
	"github.com/sweeplab/sweep/internal/spec"
	"github.com/sweeplab/sweep/internal/variant"
)

// row is the dashboard line for one variant.
type row struct {
	id        string
	params    string
	state     variant.State
	stage     string // "train (2/4)" while running
	note      string // last stage failure, shown muted
	startedAt time.Time
	duration  time.Duration // fixed once terminal
	artifacts int
}

// Model holds the dashboard state. Rows keep dispatch order; the index
// maps variant IDs to their position.
type Model struct {
	runID    string
	pipeline string
	rows     []row
	index    map[string]int
	breaches []string
	spin     spinner.Model
	started  time.Time
	width    int
	height   int
	done     bool
	quitting bool
}

// NewModel creates a dashboard model with every variant pending.
func NewModel(p *spec.Pipeline, runID string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = display.Primary

	rows := make([]row, len(p.Variants))
	index := make(map[string]int, len(p.Variants))
	for i, v := range p.Variants {
		rows[i] = row{
			id:     v.ID(),
			params: formatParams(v.Params),
			state:  variant.StatePending,
		}
		index[rows[i].id] = i
	}

	return Model{
		runID:    runID,
		pipeline: p.Name,
		rows:     rows,
		index:    index,
		spin:     sp,
		started:  time.Now(),
	}
}

// Init starts the spinner and the redraw tick.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, tick())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		// Elapsed times are derived in View; the tick only forces a redraw.
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case busMsg:
		return m.applyEvent(msg.ev)
	}

	return m, nil
}

// applyEvent folds one bus event into the dashboard state. Events for
// unknown variants are ignored.
func (m Model) applyEvent(ev event.Event) (tea.Model, tea.Cmd) {
	switch ev := ev.(type) {
	case event.RunStartedEvent:
		m.runID = ev.RunID
		m.pipeline = ev.Pipeline
		m.started = ev.Timestamp()

	case event.VariantStartedEvent:
		if i, ok := m.index[ev.VariantID]; ok {
			m.rows[i].state = variant.StateRunning
			m.rows[i].startedAt = ev.Timestamp()
		}

	case event.StageStartedEvent:
		if i, ok := m.index[ev.VariantID]; ok {
			m.rows[i].stage = fmt.Sprintf("%s (%d/%d)", ev.Stage, ev.Index+1, ev.Total)
		}

	case event.StageFinishedEvent:
		if i, ok := m.index[ev.VariantID]; ok {
			m.rows[i].artifacts += ev.Artifacts
			if ev.Status == event.StageFailed {
				m.rows[i].note = ev.Stage + " failed"
			}
		}

	case event.VariantFinishedEvent:
		if i, ok := m.index[ev.VariantID]; ok {
			m.rows[i].state = variant.State(ev.State)
			m.rows[i].duration = ev.Duration
			m.rows[i].stage = ""
		}

	case event.IsolationBreachEvent:
		m.breaches = append(m.breaches, ev.VariantID+": "+ev.Path)

	case event.RunFinishedEvent:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(display.Title.Render(m.pipeline))
	b.WriteString("  ")
	b.WriteString(display.Subtitle.Render("run " + m.runID))
	b.WriteString("\n\n")

	idWidth := 0
	for _, r := range m.rows {
		if len(r.id) > idWidth {
			idWidth = len(r.id)
		}
	}

	for _, r := range m.rows {
		b.WriteString(" ")
		b.WriteString(m.stateCell(r.state))
		b.WriteString(fmt.Sprintf(" %-*s ", idWidth, r.id))
		b.WriteString(m.detailCell(r))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.tallyLine())
	b.WriteString("\n")

	for _, breach := range m.breaches {
		b.WriteString(display.ErrorMsg.Render("isolation breach: " + breach))
		b.WriteString("\n")
	}

	b.WriteString(display.HelpBar.Render(display.HelpKey.Render("q") + " quit"))
	b.WriteString("\n")

	return b.String()
}

// stateColWidth fits "! SOFT_FAILED" plus one trailing space.
const stateColWidth = 14

// stateCell renders the state column, padded to a fixed printable width.
// Running rows get the spinner in place of the state icon.
func (m Model) stateCell(st variant.State) string {
	var cell string
	if st == variant.StateRunning {
		cell = m.spin.View() + " " + display.StateStyle(st).Render(st.String())
	} else {
		cell = display.StateBadge(st)
	}
	if pad := stateColWidth - lipgloss.Width(cell); pad > 0 {
		cell += strings.Repeat(" ", pad)
	}
	return cell
}

// detailCell renders the right-hand side of a row: what the variant is
// doing, or how it ended.
func (m Model) detailCell(r row) string {
	switch {
	case r.state == variant.StateRunning:
		detail := r.stage
		if r.note != "" {
			detail += "  " + display.Warning.Render(r.note)
		}
		return detail + "  " + display.Muted.Render(elapsed(time.Since(r.startedAt)))
	case r.state.Terminal():
		detail := fmt.Sprintf("%d artifacts", r.artifacts)
		if r.note != "" {
			detail += "  " + display.Warning.Render(r.note)
		}
		return detail + "  " + display.Muted.Render(elapsed(r.duration))
	default:
		return display.Muted.Render(r.params)
	}
}

// tallyLine renders the run totals so far.
func (m Model) tallyLine() string {
	var succeeded, softFailed, hardFailed, cancelled, running int
	for _, r := range m.rows {
		switch r.state {
		case variant.StateSucceeded:
			succeeded++
		case variant.StateSoftFailed:
			softFailed++
		case variant.StateHardFailed:
			hardFailed++
		case variant.StateCancelled:
			cancelled++
		case variant.StateRunning:
			running++
		}
	}

	line := display.Summary(succeeded, softFailed, hardFailed, cancelled)
	if running > 0 {
		line += display.Muted.Render(fmt.Sprintf("  · %d running", running))
	}
	if pending := len(m.rows) - succeeded - softFailed - hardFailed - cancelled - running; pending > 0 {
		line += display.Muted.Render(fmt.Sprintf("  · %d pending", pending))
	}
	return line
}

func formatParams(params []spec.Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, p.Key+"="+p.Value)
	}
	return strings.Join(parts, " ")
}

func elapsed(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return d.Round(100 * time.Millisecond).String()
}
