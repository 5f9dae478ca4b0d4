package clip

import "time"

// OpenEndedWindow is the coverage assumed for the last recording when its
// duration is unknown.
const OpenEndedWindow = 25 * time.Hour

// CoverageEnd returns the end of the window during which recs[i] is assumed
// to hold footage. recs must be sorted by start.
func CoverageEnd(recs []Recording, i int) time.Time {
	rec := recs[i]
	if rec.HasDuration() {
		return rec.End()
	}
	if i+1 < len(recs) {
		return recs[i+1].Start
	}
	return rec.Start.Add(OpenEndedWindow)
}

// Match finds the first recording, in start order, whose coverage window
// contains [start, end). The second result is false when no recording does;
// that is an expected outcome, not an error.
func Match(catalog []Recording, start, end time.Time) (Recording, bool) {
	recs := SortRecordings(catalog)
	for i, rec := range recs {
		if rec.Start.After(start) {
			break
		}
		if !end.After(CoverageEnd(recs, i)) {
			return rec, true
		}
	}
	return Recording{}, false
}
