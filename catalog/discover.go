// Package catalog builds the recording catalog from a directory of video
// files: start times come from file names, everything else from ffprobe.
package catalog

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// VideoExtensions lists the recognised video file extensions (lowercase, with leading dot).
var VideoExtensions = map[string]bool{
	".mkv":  true,
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
}

// Discover walks dir and returns every video file, sorted lexicographically.
func Discover(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if VideoExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
