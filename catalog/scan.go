package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/clipcutter/clip"
)

// Issue describes a file that was skipped or only partly catalogued.
type Issue struct {
	Path string
	Err  error
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %v", i.Path, i.Err)
}

// Scan discovers the videos under dir and builds a sorted catalog. Files
// whose names carry no start time are reported and left out. Files that
// cannot be probed are kept with an unknown duration and reported.
func Scan(ctx context.Context, dir string, prober Prober) ([]clip.Recording, []Issue, error) {
	files, err := Discover(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("discover %s: %w", dir, err)
	}

	var recs []clip.Recording
	var issues []Issue
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, issues, err
		}
		start, ok := ParseStartTime(path)
		if !ok {
			issues = append(issues, Issue{Path: path, Err: errNoStartTime})
			continue
		}
		rec := clip.Recording{Path: path, Start: start}

		info, err := prober.Probe(ctx, path)
		if err != nil {
			issues = append(issues, Issue{Path: path, Err: fmt.Errorf("probe failed, duration unknown: %w", err)})
		} else {
			rec.Duration = info.Duration
			rec.Width = info.Width
			rec.Height = info.Height
			rec.Bitrate = info.Bitrate
			rec.FrameRate = info.FrameRate
		}
		recs = append(recs, rec)
	}
	return clip.SortRecordings(recs), issues, nil
}

var errNoStartTime = errors.New("no start time in file name")
