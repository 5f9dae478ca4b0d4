package components

import (
	"strings"

	"github.com/user/clipcutter/tui/layout"
	"github.com/user/clipcutter/tui/styles"
)

// KeyBinding is one entry of the help line.
type KeyBinding struct {
	Key  string
	Desc string
}

// Bindings returns the keys that apply in the current state.
func Bindings(paused, stopped bool) []KeyBinding {
	if stopped {
		return []KeyBinding{{"q", "quit"}}
	}
	toggle := KeyBinding{"p", "pause"}
	if paused {
		toggle = KeyBinding{"p", "resume"}
	}
	return []KeyBinding{toggle, {"c", "cancel"}, {"q", "cancel and quit"}}
}

// HelpLine renders bindings on one line.
func HelpLine(bindings []KeyBinding, width int) string {
	parts := make([]string, len(bindings))
	for i, b := range bindings {
		parts[i] = styles.Key.Render(b.Key) + " " + styles.SecondaryText.Render(b.Desc)
	}
	return layout.PadToWidth(" "+strings.Join(parts, styles.DimText.Render(" • ")), width)
}
