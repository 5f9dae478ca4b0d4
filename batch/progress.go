package batch

import "time"

// OverallProgress combines finished jobs and the in-flight job's fraction
// into a batch fraction in [0, 1].
func OverallProgress(finished int, current float64, total int) float64 {
	if total <= 0 {
		return 0
	}
	p := (float64(finished) + current) / float64(total)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// EstimateRemaining extrapolates the average time per completed job over the
// jobs still to run. It reports false until at least one job has completed.
func EstimateRemaining(elapsed time.Duration, completed, remaining int) (time.Duration, bool) {
	if completed <= 0 {
		return 0, false
	}
	if remaining <= 0 {
		return 0, true
	}
	return elapsed / time.Duration(completed) * time.Duration(remaining), true
}
