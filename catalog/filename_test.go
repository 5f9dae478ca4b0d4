package catalog

import (
	"testing"
	"time"
)

func TestParseStartTime(t *testing.T) {
	tests := []struct {
		path string
		want string // time.DateTime, empty for no match
	}{
		{"/rec/2026-01-15 10-45-02.mkv", "2026-01-15 10:45:02"},
		{"/rec/2026.01.15 10.45.02.mp4", "2026-01-15 10:45:02"},
		{"/rec/2026-01-15_10-45-00.MOV", "2026-01-15 10:45:00"},
		{"/rec/abcxyz_20260201_090101.mp4", "2026-02-01 09:01:01"},
		{"/rec/cam_20260201_0901.mp4", "2026-02-01 09:01:00"},
		{"/rec/2026-01-15 10-45.mkv", "2026-01-15 10:45:00"},
		{"/dashcam/2026/2/1 16:01:33.mp4", "2026-02-01 16:01:33"},
		{"/dashcam/2026/02/01 16:01.mp4", "2026-02-01 16:01:00"},
		{"/rec/holiday.mp4", ""},
		{"/rec/20261345_250000.mp4", ""},
		{"/rec/2026-02-30 10-00-00.mp4", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := ParseStartTime(tt.path)
			if tt.want == "" {
				if ok {
					t.Fatalf("ParseStartTime() = %v, want no match", got)
				}
				return
			}
			want, _ := time.ParseInLocation(time.DateTime, tt.want, time.Local)
			if !ok || !got.Equal(want) {
				t.Fatalf("ParseStartTime() = %v, %v; want %v", got, ok, want)
			}
		})
	}
}
