package catalog

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// startTimePatterns are tried in order. Each captures year, month, day,
// hour, minute and optionally second.
var startTimePatterns = []*regexp.Regexp{
	// 20260201_090101, with any prefix or suffix
	regexp.MustCompile(`(\d{4})(\d{2})(\d{2})_(\d{2})(\d{2})(\d{2})`),
	// 20260201_0901
	regexp.MustCompile(`(\d{4})(\d{2})(\d{2})_(\d{2})(\d{2})`),
	// 2026-01-15 10-45-02, 2026.01.15 10.45.02, 2026-01-15_10-45-00
	regexp.MustCompile(`(\d{4})[-.](\d{2})[-.](\d{2})[\s_](\d{2})[-.](\d{2})[-.](\d{2})`),
	// 2026-01-15 10-45
	regexp.MustCompile(`(\d{4})[-.](\d{2})[-.](\d{2})[\s_](\d{2})[-.](\d{2})`),
	// dashcam: 2026/2/1 16:01:33, possibly spread across directories
	regexp.MustCompile(`(\d{4})/(\d{1,2})/(\d{1,2})\s+(\d{1,2}):(\d{2}):(\d{2})`),
	// dashcam without seconds
	regexp.MustCompile(`(\d{4})/(\d{1,2})/(\d{1,2})\s+(\d{1,2}):(\d{2})`),
}

// ParseStartTime recovers a recording's start time from its path, in the
// local time zone. The full path is searched first so dashcam layouts that
// encode the date in directories are found, then the bare file name.
func ParseStartTime(path string) (time.Time, bool) {
	full := filepath.ToSlash(path)
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	for _, s := range []string{full, stem} {
		for _, re := range startTimePatterns {
			m := re.FindStringSubmatch(s)
			if m == nil {
				continue
			}
			if t, ok := buildTime(m[1:]); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func buildTime(parts []string) (time.Time, bool) {
	n := make([]int, 6)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, false
		}
		n[i] = v
	}
	year, month, day, hour, minute, sec := n[0], n[1], n[2], n[3], n[4], n[5]
	if month < 1 || month > 12 || day < 1 || hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.Local)
	// time.Date normalises out-of-range days; reject instead.
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
