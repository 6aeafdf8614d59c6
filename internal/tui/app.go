// Package tui renders a live dashboard for an in-flight run. The view is
// read-only: every state change arrives over the event bus, and the
// program quits on its own once the run finishes.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sweeplab/sweep/internal/event"
	"github.com/sweeplab/sweep/internal/spec"
)

// App wraps the Bubbletea program and its bus subscription.
type App struct {
	bus     *event.Bus
	sub     uint64
	program *tea.Program
}

// New creates a dashboard for the given pipeline and subscribes it to
// the bus, so events published between construction and Run are queued
// rather than lost. Program.Send blocks until the receive loop is up
// and becomes a no-op once the program exits, so the forwarding handler
// cannot wedge the run after the dashboard is gone.
func New(bus *event.Bus, p *spec.Pipeline, runID string) *App {
	a := &App{
		bus:     bus,
		program: tea.NewProgram(NewModel(p, runID), tea.WithAltScreen()),
	}
	a.sub = bus.SubscribeAll(func(ev event.Event) {
		a.program.Send(busMsg{ev: ev})
	})
	return a
}

// Run starts the dashboard and blocks until the run finishes or the user
// quits.
func (a *App) Run() error {
	defer a.bus.Unsubscribe(a.sub)

	_, err := a.program.Run()
	return err
}

// Quit asks a running dashboard to exit. The run command uses it when
// the orchestration aborts without a run.finished event.
func (a *App) Quit() {
	a.program.Quit()
}

// Messages

type busMsg struct {
	ev event.Event
}

type tickMsg time.Time

// Commands

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
