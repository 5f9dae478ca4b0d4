// Package clip holds the clip extraction data model: source recordings, clip
// requests, the jobs derived from them, and the rules that map one onto the other.
package clip

import (
	"sort"
	"time"
)

// Recording is one continuously captured source video file.
type Recording struct {
	Path      string
	Start     time.Time
	Duration  float64 // seconds; <= 0 means unknown
	Width     int
	Height    int
	Bitrate   int64 // bits per second
	FrameRate float64
}

// HasDuration reports whether the recording's duration is known.
func (r Recording) HasDuration() bool {
	return r.Duration > 0
}

// End returns Start + Duration. It is only meaningful when HasDuration is true.
func (r Recording) End() time.Time {
	return r.Start.Add(seconds(r.Duration))
}

// SortRecordings returns a copy of recs ordered by start time.
// Recordings with equal start times keep their input order.
func SortRecordings(recs []Recording) []Recording {
	sorted := make([]Recording, len(recs))
	copy(sorted, recs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})
	return sorted
}

// seconds converts fractional seconds to a time.Duration.
func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
