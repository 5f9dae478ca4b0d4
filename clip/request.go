package clip

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Request is a single requested clip: a wall-clock range, a label and the file to write.
type Request struct {
	Start      time.Time
	End        time.Time
	Label      string
	OutputPath string
}

// Duration returns the requested clip length.
func (r Request) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Validate checks that the request has a positive range and an output path.
func (r Request) Validate() error {
	if !r.End.After(r.Start) {
		return fmt.Errorf("clip %q: end %s is not after start %s",
			r.Label, r.End.Format(time.DateTime), r.Start.Format(time.DateTime))
	}
	if r.OutputPath == "" {
		return fmt.Errorf("clip %q: output path is empty", r.Label)
	}
	return nil
}

// Quality is a named multiplier applied to the source bitrate.
type Quality int

const (
	QualityHigh Quality = iota
	QualityMedium
	QualityLow
)

// Qualities lists every profile, best first.
var Qualities = []Quality{QualityHigh, QualityMedium, QualityLow}

// Multiplier returns the bitrate factor for the profile.
func (q Quality) Multiplier() float64 {
	switch q {
	case QualityHigh:
		return 1.0
	case QualityMedium:
		return 0.5
	case QualityLow:
		return 0.3
	}
	return 1.0
}

func (q Quality) String() string {
	switch q {
	case QualityHigh:
		return "high"
	case QualityMedium:
		return "medium"
	case QualityLow:
		return "low"
	}
	return fmt.Sprintf("quality(%d)", int(q))
}

// ParseQuality accepts a profile name, case-insensitively.
func ParseQuality(s string) (Quality, error) {
	for _, q := range Qualities {
		if strings.EqualFold(strings.TrimSpace(s), q.String()) {
			return q, nil
		}
	}
	return QualityHigh, fmt.Errorf("unknown quality %q (want high, medium or low)", s)
}

// TargetBitrate scales a source bitrate by the profile multiplier, rounding to
// the nearest bit per second.
func TargetBitrate(source int64, q Quality) int64 {
	return int64(math.Round(float64(source) * q.Multiplier()))
}

// OffsetPolicy widens every clip in a batch and enforces a minimum length.
// All values are in seconds.
type OffsetPolicy struct {
	StartLeniency float64
	EndLeniency   float64
	MinDuration   float64
}

// DefaultOffsetPolicy returns no leniency and a 10 second minimum.
func DefaultOffsetPolicy() OffsetPolicy {
	return OffsetPolicy{MinDuration: 10}
}

// Validate rejects negative values.
func (p OffsetPolicy) Validate() error {
	if p.StartLeniency < 0 || p.EndLeniency < 0 || p.MinDuration < 0 {
		return fmt.Errorf("offset policy values must not be negative (start=%g end=%g min=%g)",
			p.StartLeniency, p.EndLeniency, p.MinDuration)
	}
	return nil
}

// Apply widens [start, end) by the leniencies. If the widened range is still
// shorter than MinDuration the end is pushed out; the start never moves to
// satisfy the minimum.
func (p OffsetPolicy) Apply(start, end time.Time) (time.Time, time.Time) {
	adjStart := start.Add(-seconds(p.StartLeniency))
	adjEnd := end.Add(seconds(p.EndLeniency))
	if minDur := seconds(p.MinDuration); adjEnd.Sub(adjStart) < minDur {
		adjEnd = adjStart.Add(minDur)
	}
	return adjStart, adjEnd
}
