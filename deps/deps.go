// Package deps locates the external binaries the tool shells out to.
package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	MpvInstallURL    = "https://mpv.io/installation/"
	FfmpegInstallURL = "https://ffmpeg.org/download.html"
)

// BundleDirName is the directory, next to the executable, that may hold
// bundled ffmpeg and ffprobe binaries.
const BundleDirName = "ffmpeg_bin"

// DependencyError contains information about a missing dependency
type DependencyError struct {
	Name       string
	InstallURL string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s not found. Install from: %s", e.Name, e.InstallURL)
}

// PlatformName returns the bundle subdirectory for the running OS.
func PlatformName() string {
	switch runtime.GOOS {
	case "windows":
		return "windows"
	case "darwin":
		return "macos"
	}
	return "linux"
}

// Resolver finds binaries, preferring bundled copies over the system PATH.
type Resolver struct {
	// BundledDir is an explicit bundle directory checked before the one next to the executable.
	BundledDir string

	executable func() (string, error)
	lookPath   func(string) (string, error)
	goos       string
}

// NewResolver creates a Resolver that checks bundledDir first. bundledDir may be empty.
func NewResolver(bundledDir string) *Resolver {
	return &Resolver{
		BundledDir: bundledDir,
		executable: os.Executable,
		lookPath:   exec.LookPath,
		goos:       runtime.GOOS,
	}
}

// Candidates lists the bundled locations checked for name, in order.
func (r *Resolver) Candidates(name string) []string {
	file := name
	if r.goos == "windows" {
		file += ".exe"
	}
	platform := PlatformName()

	var dirs []string
	if r.BundledDir != "" {
		dirs = append(dirs, filepath.Join(r.BundledDir, platform), r.BundledDir)
	}
	if exe, err := r.executable(); err == nil {
		base := filepath.Join(filepath.Dir(exe), BundleDirName)
		dirs = append(dirs, filepath.Join(base, platform), base)
	}

	paths := make([]string, 0, len(dirs))
	for _, d := range dirs {
		paths = append(paths, filepath.Join(d, file))
	}
	return paths
}

// Resolve returns the path of name: the first bundled candidate that exists,
// else the PATH entry. It returns a *DependencyError if neither is found.
func (r *Resolver) Resolve(name string) (string, error) {
	for _, p := range r.Candidates(name) {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	if p, err := r.lookPath(name); err == nil {
		return p, nil
	}
	return "", &DependencyError{Name: name, InstallURL: installURL(name)}
}

func installURL(name string) string {
	if name == "mpv" {
		return MpvInstallURL
	}
	return FfmpegInstallURL
}

// Version runs the binary's version flag and returns the first line of its
// output. mpv takes --version, the ffmpeg tools -version.
func Version(ctx context.Context, path string) (string, error) {
	flag := "-version"
	if strings.HasPrefix(strings.ToLower(filepath.Base(path)), "mpv") {
		flag = "--version"
	}
	out, err := exec.CommandContext(ctx, path, flag).Output()
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", filepath.Base(path), flag, err)
	}
	line, _, _ := bufio.NewReader(bytes.NewReader(out)).ReadLine()
	return strings.TrimSpace(string(line)), nil
}
