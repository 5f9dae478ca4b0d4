package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/user/clipcutter/tui/layout"
	"github.com/user/clipcutter/tui/styles"
)

// StatusBarState describes the one-line header of the progress view.
type StatusBarState struct {
	RunID   string
	Quality string
	State   string
	Paused  bool
}

// StatusBar renders the run identity on the left and its state on the right.
func StatusBar(state StatusBarState, width int) string {
	icon := "▶"
	stateStyle := styles.Key
	switch {
	case state.Paused:
		icon, stateStyle = "⏸", styles.Warning
	case state.State == "finished":
		icon, stateStyle = "✓", styles.Success
	case state.State == "cancelled":
		icon, stateStyle = "■", styles.Failure
	}

	runID := state.RunID
	if len(runID) > 8 {
		runID = runID[:8]
	}
	left := styles.Header.Render(" clipcutter") + styles.SecondaryText.Render("  run "+runID+"  quality "+state.Quality)

	label := state.State
	if state.Paused {
		label = "paused"
	}
	right := stateStyle.Render(icon+" "+label) + " "

	// Truncate when both halves don't fit
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return layout.PadToWidth(left, width)
	}
	return left + strings.Repeat(" ", gap) + right
}
