// Package styles holds the Lipgloss palette shared by the TUI and console logging.
package styles

import "github.com/charmbracelet/lipgloss"

// Palette, Ciapre theme.
const (
	DeepPurple    = lipgloss.Color("#191C27") // background
	Purple        = lipgloss.Color("#5C4F4B") // borders, dim text
	BrightPurple  = lipgloss.Color("#724D7C") // highlight
	Lavender      = lipgloss.Color("#AEA47A") // secondary text
	LightLavender = lipgloss.Color("#F3DBB2") // primary text
	Pink          = lipgloss.Color("#D33061") // headers
	Cyan          = lipgloss.Color("#3097C6") // info, keys
	Amber         = lipgloss.Color("#CC8B3F") // in progress, paused
	Red           = lipgloss.Color("#AC3835") // failures
	Green         = lipgloss.Color("#A6A75D") // success
)

var (
	PrimaryText   = lipgloss.NewStyle().Foreground(LightLavender)
	SecondaryText = lipgloss.NewStyle().Foreground(Lavender)
	DimText       = lipgloss.NewStyle().Foreground(Purple)
	Header        = lipgloss.NewStyle().Foreground(Pink).Bold(true)
	Key           = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	Success       = lipgloss.NewStyle().Foreground(Green).Bold(true)
	Warning       = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	Failure       = lipgloss.NewStyle().Foreground(Red).Bold(true)
)

// Highlight marks the job currently being encoded.
var Highlight = lipgloss.NewStyle().
	Background(BrightPurple).
	Foreground(LightLavender).
	Bold(true)

// Bar returns the filled and empty styles of a progress bar.
func Bar(paused bool) (filled, empty lipgloss.Style) {
	if paused {
		return lipgloss.NewStyle().Foreground(Amber), DimText
	}
	return lipgloss.NewStyle().Foreground(Green), lipgloss.NewStyle().Foreground(Amber)
}
