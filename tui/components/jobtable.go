package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/user/clipcutter/clip"
	"github.com/user/clipcutter/tui/layout"
	"github.com/user/clipcutter/tui/styles"
)

var statusIcons = map[clip.Status]string{
	clip.StatusPending:    "·",
	clip.StatusProcessing: "▶",
	clip.StatusCompleted:  "✓",
	clip.StatusFailed:     "✗",
	clip.StatusSkipped:    "–",
}

func statusStyle(s clip.Status) lipgloss.Style {
	switch s {
	case clip.StatusProcessing:
		return styles.Key
	case clip.StatusCompleted:
		return styles.Success
	case clip.StatusFailed:
		return styles.Failure
	case clip.StatusSkipped:
		return styles.Warning
	}
	return styles.DimText
}

// JobRow renders a single job as one table line of the given width.
func JobRow(job clip.Job, width int, current bool) string {
	icon := statusStyle(job.Status).Render(statusIcons[job.Status])

	// Percentage only once encoding has started
	var progress string
	switch job.Status {
	case clip.StatusProcessing, clip.StatusCompleted:
		progress = fmt.Sprintf("%3d%%", int(job.Progress*100))
	default:
		progress = "    "
	}

	retries := "  "
	if job.Retries > 0 {
		retries = fmt.Sprintf("↻%d", job.Retries)
	}

	// Label gets whatever width the fixed columns leave
	prefix := fmt.Sprintf("%3d ", job.Index+1)
	fixed := lipgloss.Width(prefix) + 2 + len(progress) + 1 + lipgloss.Width(retries) + 1
	labelWidth := max(width-fixed, 4)

	label := job.Request.Label
	if job.Error != "" && job.Status.Terminal() {
		label += " - " + job.Error
	}
	label = layout.PadToWidth(layout.Ellipsize(label, labelWidth), labelWidth)

	text := styles.SecondaryText
	if current {
		text = styles.Highlight
	}
	return styles.DimText.Render(prefix) + icon + " " +
		text.Render(label) + " " +
		styles.SecondaryText.Render(retries) + " " +
		styles.PrimaryText.Render(progress)
}

// JobTable renders the job list inside a box, scrolled so current stays in view.
func JobTable(jobs []clip.Job, current, width, height int) string {
	if width < 20 || height < 3 {
		return ""
	}
	// Inside the border
	inner := width - 2
	rows := height - 2

	start := layout.Window(current, len(jobs), rows)
	end := min(start+rows, len(jobs))

	lines := make([]string, 0, rows)
	for i := start; i < end; i++ {
		lines = append(lines, JobRow(jobs[i], inner, i == current))
	}
	if len(jobs) == 0 {
		lines = append(lines, styles.DimText.Render(" no clips"))
	}
	lines = layout.NormalizeLines(lines, rows)

	title := fmt.Sprintf("Clips %d-%d of %d", min(start+1, len(jobs)), end, len(jobs))
	return RenderInfoBox(title, lines, width)
}
