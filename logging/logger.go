// Package logging provides the leveled console and file logger used by every command.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/user/clipcutter/tui/styles"
)

// ColorMode selects when console output is colored.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode validates a --color flag value.
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(strings.ToLower(s)); m {
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	}
	return ColorAuto, fmt.Errorf("invalid color mode %q (want auto, always or never)", s)
}

// Options configure a Logger.
type Options struct {
	Verbose bool
	Color   ColorMode
	File    string
	// Out and Err default to os.Stdout and os.Stderr.
	Out io.Writer
	Err io.Writer
}

var levelStyles = map[string]lipgloss.Style{
	"INFO":    lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true),
	"SUCCESS": lipgloss.NewStyle().Foreground(styles.Green).Bold(true),
	"WARN":    lipgloss.NewStyle().Foreground(styles.Amber).Bold(true),
	"ERROR":   lipgloss.NewStyle().Foreground(styles.Red).Bold(true),
	"DEBUG":   lipgloss.NewStyle().Foreground(styles.Lavender),
}

// Logger writes timestamped, leveled lines to the console and optionally to a file.
// It is safe for concurrent use.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	errOut  io.Writer
	file    *os.File
	color   bool
	verbose bool
	muted   bool
	now     func() time.Time
}

// New creates a Logger. Call Close when done if File was set.
func New(opts Options) (*Logger, error) {
	l := &Logger{
		out:     opts.Out,
		errOut:  opts.Err,
		verbose: opts.Verbose,
		now:     time.Now,
	}
	if l.out == nil {
		l.out = os.Stdout
	}
	if l.errOut == nil {
		l.errOut = os.Stderr
	}

	switch opts.Color {
	case ColorAlways:
		l.color = true
	case ColorNever:
		l.color = false
	default:
		f, ok := l.out.(*os.File)
		l.color = ok && isatty.IsTerminal(f.Fd()) &&
			os.Getenv("NO_COLOR") == "" && strings.ToLower(os.Getenv("TERM")) != "dumb"
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		l.file = f
	}
	return l, nil
}

// Verbose reports whether Debug lines are emitted.
func (l *Logger) Verbose() bool {
	return l.verbose
}

// Mute stops console output while keeping the file sink. The TUI mutes the
// logger while it owns the terminal.
func (l *Logger) Mute(muted bool) {
	l.mu.Lock()
	l.muted = muted
	l.mu.Unlock()
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

func (l *Logger) line(level, text string) {
	ts := l.now().Format("2006-01-02 15:04:05")
	plain := ts + " [" + level + "] " + text + "\n"

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.muted {
		out := l.out
		if level == "ERROR" {
			out = l.errOut
		}
		if l.color {
			_, _ = io.WriteString(out, ts+" "+levelStyles[level].Render("["+level+"]")+" "+text+"\n")
		} else {
			_, _ = io.WriteString(out, plain)
		}
	}
	if l.file != nil {
		_, _ = io.WriteString(l.file, plain)
	}
}

// Info logs at INFO level.
func (l *Logger) Info(format string, args ...any) {
	l.line("INFO", fmt.Sprintf(format, args...))
}

// Success logs at SUCCESS level.
func (l *Logger) Success(format string, args ...any) {
	l.line("SUCCESS", fmt.Sprintf(format, args...))
}

// Warn logs at WARN level.
func (l *Logger) Warn(format string, args ...any) {
	l.line("WARN", fmt.Sprintf(format, args...))
}

// Error logs at ERROR level, to the error stream.
func (l *Logger) Error(format string, args ...any) {
	l.line("ERROR", fmt.Sprintf(format, args...))
}

// Debug logs only when the logger is verbose.
func (l *Logger) Debug(format string, args ...any) {
	if !l.verbose {
		return
	}
	l.line("DEBUG", fmt.Sprintf(format, args...))
}
