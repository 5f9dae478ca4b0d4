package clip

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// unsafeChars matches characters not allowed in output file names on common filesystems.
var unsafeChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// SanitizeLabel replaces characters that cannot appear in a file name with underscores.
// An empty result becomes "clip".
func SanitizeLabel(label string) string {
	name := strings.TrimSpace(unsafeChars.ReplaceAllString(label, "_"))
	name = strings.TrimRight(name, ". ")
	if name == "" {
		return "clip"
	}
	return name
}

// OutputPath returns <dir>/<sanitized label>.mp4.
func OutputPath(dir, label string) string {
	return filepath.Join(dir, SanitizeLabel(label)+".mp4")
}

// PathSet hands out output paths that are unique within one batch.
type PathSet struct {
	used map[string]bool
}

// NewPathSet creates an empty PathSet.
func NewPathSet() *PathSet {
	return &PathSet{used: make(map[string]bool)}
}

// Reserve marks path as taken, e.g. by a request already queued.
func (s *PathSet) Reserve(path string) {
	s.used[strings.ToLower(path)] = true
}

// Unique returns path, or path with a " (n)" suffix before the extension if
// an earlier call already returned it. Comparison ignores case.
func (s *PathSet) Unique(path string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	candidate := path
	for n := 2; s.used[strings.ToLower(candidate)]; n++ {
		candidate = fmt.Sprintf("%s (%d)%s", base, n, ext)
	}
	s.used[strings.ToLower(candidate)] = true
	return candidate
}
