// Package components renders the pieces of the batch progress view.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/user/clipcutter/tui/layout"
	"github.com/user/clipcutter/tui/styles"
)

// RenderInfoBox draws a rounded box with the title set into the top border:
//
//	╭─ Title ────╮
//	│ content    │
//	╰────────────╯
//
// Content lines are padded or cut to fit; styling is up to the caller.
func RenderInfoBox(title string, contentLines []string, width int) string {
	if width < 4 {
		return ""
	}
	inner := width - 2
	border := lipgloss.NewStyle().Foreground(styles.Purple)

	head := styles.Header.Render(" " + title + " ")
	fill := inner - 1 - lipgloss.Width(head)
	if fill < 0 {
		head = layout.PadToWidth(head, inner-1)
		fill = 0
	}

	lines := make([]string, 0, len(contentLines)+2)
	lines = append(lines, border.Render("╭─")+head+border.Render(strings.Repeat("─", fill)+"╮"))
	for _, line := range contentLines {
		lines = append(lines, border.Render("│")+layout.PadToWidth(line, inner)+border.Render("│"))
	}
	lines = append(lines, border.Render("╰"+strings.Repeat("─", inner)+"╯"))
	return strings.Join(lines, "\n")
}
