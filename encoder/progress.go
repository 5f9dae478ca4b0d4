package encoder

import (
	"strconv"
	"strings"
)

// ParseProgressLine extracts the elapsed output time, in microseconds, from
// one line of ffmpeg's -progress output. ffmpeg reports out_time_ms in
// microseconds as well, so both keys are read the same way.
func ParseProgressLine(line string) (int64, bool) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return 0, false
	}
	key = strings.TrimSpace(key)
	if key != "out_time_us" && key != "out_time_ms" {
		return 0, false
	}
	us, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || us < 0 {
		return 0, false
	}
	return us, true
}

// Fraction converts elapsed microseconds into a fraction of duration seconds,
// clamped to [0, 1].
func Fraction(elapsedUS int64, duration float64) float64 {
	if duration <= 0 || elapsedUS <= 0 {
		return 0
	}
	f := float64(elapsedUS) / 1_000_000 / duration
	if f > 1 {
		return 1
	}
	return f
}
