package components

import (
	"fmt"
	"strings"

	"github.com/user/clipcutter/tui/layout"
	"github.com/user/clipcutter/tui/styles"
)

// BatchProgressState is what the progress box shows.
type BatchProgressState struct {
	Total     int
	Completed int
	Failed    int
	Skipped   int
	// Progress is the overall fraction in [0, 1].
	Progress float64
	// Current is the label of the clip being encoded, empty between jobs.
	Current         string
	CurrentProgress float64
	Attempt         int
	Paused          bool
	Finished        bool
	Cancelled       bool
	Elapsed         string
	ETA             string
}

// ProgressBar renders a bar of width cells followed by a percentage.
func ProgressBar(fraction float64, width int, paused bool) string {
	fraction = min(max(fraction, 0), 1)
	barWidth := max(width-5, 4)
	filled := int(fraction * float64(barWidth))
	fillStyle, emptyStyle := styles.Bar(paused)
	return fillStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", barWidth-filled)) +
		styles.PrimaryText.Render(fmt.Sprintf(" %3d%%", int(fraction*100)))
}

// BatchProgress renders the overall progress box: bar, counters, timing and
// the clip in flight.
func BatchProgress(state BatchProgressState, width int) string {
	if width < 10 {
		return ""
	}
	inner := width - 4

	var lines []string
	lines = append(lines, " "+ProgressBar(state.Progress, inner, state.Paused))

	counts := styles.PrimaryText.Render(fmt.Sprintf(" %d/%d clips", state.Completed+state.Failed+state.Skipped, state.Total))
	if state.Completed > 0 {
		counts += "  " + styles.Success.Render(fmt.Sprintf("%d done", state.Completed))
	}
	if state.Failed > 0 {
		counts += "  " + styles.Failure.Render(fmt.Sprintf("%d failed", state.Failed))
	}
	if state.Skipped > 0 {
		counts += "  " + styles.Warning.Render(fmt.Sprintf("%d skipped", state.Skipped))
	}
	lines = append(lines, counts)

	lines = append(lines, styles.SecondaryText.Render(fmt.Sprintf(" elapsed %s   eta %s", state.Elapsed, state.ETA)))

	switch {
	case state.Cancelled:
		lines = append(lines, " "+styles.Warning.Render("Batch cancelled"))
	case state.Finished:
		lines = append(lines, " "+styles.Success.Render("Batch complete"))
	case state.Current != "":
		label := state.Current
		if state.Attempt > 1 {
			label = fmt.Sprintf("%s (attempt %d)", label, state.Attempt)
		}
		lines = append(lines, " "+styles.PrimaryText.Render(layout.Ellipsize(label, inner-1)))
		lines = append(lines, " "+ProgressBar(state.CurrentProgress, inner, state.Paused))
	case state.Paused:
		lines = append(lines, " "+styles.Warning.Render("Paused"))
	}

	return RenderInfoBox("Batch", lines, width)
}
