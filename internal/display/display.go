// Package display holds the lipgloss palette and the state colouring
// shared by the CLI summary and the live TUI. Report renderers stay
// colour-free so their output is byte-identical wherever it runs;
// anything that paints a terminal goes through this package instead.
package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sweeplab/sweep/internal/logging"
	"github.com/sweeplab/sweep/internal/stage"
	"github.com/sweeplab/sweep/internal/variant"
)

var (
	// Colors - all meet WCAG AA contrast (4.5:1) on black and dark surfaces
	PrimaryColor = lipgloss.Color("#A78BFA") // Purple
	SuccessColor = lipgloss.Color("#10B981") // Green
	WarningColor = lipgloss.Color("#F59E0B") // Amber
	ErrorColor   = lipgloss.Color("#F87171") // Red
	RunningColor = lipgloss.Color("#60A5FA") // Blue
	MutedColor   = lipgloss.Color("#9CA3AF") // Gray
	TextColor    = lipgloss.Color("#F9FAFB") // Light text
	BorderColor  = lipgloss.Color("#6B7280") // Gray

	// Convenience styles for colors
	Primary = lipgloss.NewStyle().Foreground(PrimaryColor)
	Success = lipgloss.NewStyle().Foreground(SuccessColor)
	Warning = lipgloss.NewStyle().Foreground(WarningColor)
	Error   = lipgloss.NewStyle().Foreground(ErrorColor)
	Info    = lipgloss.NewStyle().Foreground(RunningColor)
	Muted   = lipgloss.NewStyle().Foreground(MutedColor)
	Text    = lipgloss.NewStyle().Foreground(TextColor)

	// Base styles
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor)

	Subtitle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(BorderColor)

	HelpBar = lipgloss.NewStyle().
		Foreground(MutedColor).
		MarginTop(1)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(SuccessColor)

	ErrorMsg = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	SuccessMsg = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)
)

// stateNames maps lifecycle states to the words used in human-facing
// lines. Tables keep the raw uppercase form; prose uses these.
var stateNames = map[variant.State]string{
	variant.StatePending:    "pending",
	variant.StateRunning:    "running",
	variant.StateSucceeded:  "succeeded",
	variant.StateSoftFailed: "soft-failed",
	variant.StateHardFailed: "hard-failed",
	variant.StateCancelled:  "cancelled",
}

// StateName returns the human word for a lifecycle state.
func StateName(st variant.State) string {
	if name, ok := stateNames[st]; ok {
		return name
	}
	return strings.ToLower(st.String())
}

// StateColor returns the color for a variant lifecycle state.
func StateColor(st variant.State) lipgloss.Color {
	switch st {
	case variant.StateRunning:
		return RunningColor
	case variant.StateSucceeded:
		return SuccessColor
	case variant.StateSoftFailed:
		return WarningColor
	case variant.StateHardFailed:
		return ErrorColor
	case variant.StateCancelled:
		return MutedColor
	default:
		return MutedColor
	}
}

// StateIcon returns an icon for a variant lifecycle state.
func StateIcon(st variant.State) string {
	switch st {
	case variant.StatePending:
		return "○"
	case variant.StateRunning:
		return "●"
	case variant.StateSucceeded:
		return "✓"
	case variant.StateSoftFailed:
		return "!"
	case variant.StateHardFailed:
		return "✗"
	case variant.StateCancelled:
		return "⊘"
	default:
		return "●"
	}
}

// StateStyle returns a foreground style in the state's color.
func StateStyle(st variant.State) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(StateColor(st))
}

// StateBadge renders "icon STATE" in the state's color. The raw
// uppercase form matches the report tables.
func StateBadge(st variant.State) string {
	return StateStyle(st).Render(StateIcon(st) + " " + st.String())
}

// LevelStyle returns the style for a log level tag in log listings.
func LevelStyle(level string) lipgloss.Style {
	switch strings.ToUpper(level) {
	case logging.LevelDebug:
		return Muted
	case logging.LevelInfo:
		return Info
	case logging.LevelWarn:
		return Warning
	case logging.LevelError:
		return Error
	default:
		return Text
	}
}

// StatusColor returns the color for a stage outcome.
func StatusColor(s stage.Status) lipgloss.Color {
	switch s {
	case stage.StatusSucceeded:
		return SuccessColor
	case stage.StatusFailed:
		return ErrorColor
	case stage.StatusCancelled:
		return MutedColor
	default:
		return MutedColor
	}
}

// StatusIcon returns an icon for a stage outcome.
func StatusIcon(s stage.Status) string {
	switch s {
	case stage.StatusSucceeded:
		return "✓"
	case stage.StatusFailed:
		return "✗"
	case stage.StatusCancelled:
		return "⊘"
	default:
		return "●"
	}
}

// Summary renders the run tally as one coloured line. Succeeded always
// appears; the failure buckets appear only when non-zero.
func Summary(succeeded, softFailed, hardFailed, cancelled int) string {
	parts := []string{
		Success.Render(fmt.Sprintf("%s %d succeeded", StateIcon(variant.StateSucceeded), succeeded)),
	}
	if softFailed > 0 {
		parts = append(parts, Warning.Render(fmt.Sprintf("%s %d soft-failed", StateIcon(variant.StateSoftFailed), softFailed)))
	}
	if hardFailed > 0 {
		parts = append(parts, Error.Render(fmt.Sprintf("%s %d hard-failed", StateIcon(variant.StateHardFailed), hardFailed)))
	}
	if cancelled > 0 {
		parts = append(parts, Muted.Render(fmt.Sprintf("%s %d cancelled", StateIcon(variant.StateCancelled), cancelled)))
	}
	return strings.Join(parts, "  ")
}
