package layout

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// PadToWidth pads or truncates s to exactly width cells. Truncation is
// ANSI-aware so styled text and wide runes are cut cleanly.
func PadToWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	w := lipgloss.Width(s)
	if w > width {
		s = ansi.Truncate(s, width, "")
		w = lipgloss.Width(s)
	}
	if w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

// Ellipsize shortens plain or styled text to width cells, ending in "…".
func Ellipsize(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

// NormalizeLines pads or truncates lines to exactly height entries.
func NormalizeLines(lines []string, height int) []string {
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return lines
}

// SideBySide joins two rendered blocks horizontally with a one-column gap.
func SideBySide(left, right string, leftWidth, rightWidth int) string {
	l := strings.Split(left, "\n")
	r := strings.Split(right, "\n")
	height := max(len(l), len(r))
	l = NormalizeLines(l, height)
	r = NormalizeLines(r, height)

	rows := make([]string, height)
	for i := range rows {
		rows[i] = PadToWidth(l[i], leftWidth) + " " + PadToWidth(r[i], rightWidth)
	}
	return strings.Join(rows, "\n")
}
