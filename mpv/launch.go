// Package mpv opens produced clips in the mpv player.
package mpv

import (
	"fmt"
	"os/exec"

	"github.com/user/clipcutter/deps"
)

// PlayOptions tune a playback window.
type PlayOptions struct {
	// Title replaces the window title; empty keeps mpv's default.
	Title string
	// Start is the initial position in seconds.
	Start float64
	// Loop replays the file until the window is closed.
	Loop bool
}

// Args builds the mpv command line for path.
func Args(path string, opts PlayOptions) []string {
	var args []string
	if opts.Title != "" {
		args = append(args, "--title="+opts.Title)
	}
	if opts.Start > 0 {
		args = append(args, fmt.Sprintf("--start=%.3f", opts.Start))
	}
	if opts.Loop {
		args = append(args, "--loop-file=inf")
	}
	return append(args, "--", path)
}

// Play starts mpv on path without waiting for it. The binary is located with
// r, so a bundled mpv wins over the one on PATH. Call Wait on the returned
// command to block until the window closes.
func Play(r *deps.Resolver, path string, opts PlayOptions) (*exec.Cmd, error) {
	bin, err := r.Resolve("mpv")
	if err != nil {
		return nil, err
	}
	cmd := exec.Command(bin, Args(path, opts)...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start mpv: %w", err)
	}
	return cmd, nil
}
