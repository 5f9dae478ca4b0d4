package layout

import (
	"fmt"
	"strings"

	"github.com/user/clipcutter/tui/styles"
)

// Container clips content to a Width x Height box. When lines are cut the
// last visible line says how many are hidden.
type Container struct {
	Width  int
	Height int
}

// Render returns content constrained to exactly Width columns and Height lines.
func (c Container) Render(content string) string {
	if c.Height <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")

	if hidden := len(lines) - c.Height; hidden > 0 {
		lines = lines[:c.Height]
		lines[c.Height-1] = styles.DimText.Render(fmt.Sprintf("↓ %d more", hidden+1))
	}
	lines = NormalizeLines(lines, c.Height)
	for i, line := range lines {
		lines[i] = PadToWidth(line, c.Width)
	}
	return strings.Join(lines, "\n")
}

// Window returns the start index of a height-row window over total rows
// that keeps focus visible, roughly centred.
func Window(focus, total, height int) int {
	if height <= 0 || total <= height || focus < 0 {
		return 0
	}
	start := focus - height/2
	if start < 0 {
		start = 0
	}
	if start > total-height {
		start = total - height
	}
	return start
}
