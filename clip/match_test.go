package clip

import (
	"testing"
	"time"
)

func at(hhmmss string) time.Time {
	t, err := time.ParseInLocation(time.DateTime, "2026-01-15 "+hhmmss, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

// TestMatchContainedClip verifies a clip inside a known-duration recording matches it.
func TestMatchContainedClip(t *testing.T) {
	rec := Recording{Path: "a.mp4", Start: at("10:00:00"), Duration: 3600}
	got, ok := Match([]Recording{rec}, at("10:10:00"), at("10:20:00"))
	if !ok {
		t.Fatal("expected a match")
	}
	if got.Path != "a.mp4" {
		t.Fatalf("Path = %q, want a.mp4", got.Path)
	}

	job := NewJob(0, Request{Start: at("10:10:00"), End: at("10:20:00")})
	job.Recording = &got
	if job.Seek() != 600 {
		t.Fatalf("Seek() = %v, want 600", job.Seek())
	}
	if job.Length() != 600 {
		t.Fatalf("Length() = %v, want 600", job.Length())
	}
}

func TestMatchBoundaries(t *testing.T) {
	rec := Recording{Path: "a.mp4", Start: at("10:00:00"), Duration: 3600}

	tests := []struct {
		name       string
		start, end string
		want       bool
	}{
		{"whole recording", "10:00:00", "11:00:00", true},
		{"ends exactly at coverage end", "10:59:00", "11:00:00", true},
		{"ends one second past", "10:59:00", "11:00:01", false},
		{"starts before recording", "09:59:59", "10:10:00", false},
		{"entirely after", "11:30:00", "11:40:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Match([]Recording{rec}, at(tt.start), at(tt.end))
			if ok != tt.want {
				t.Fatalf("Match() ok = %v, want %v", ok, tt.want)
			}
		})
	}
}

// TestMatchUnknownDurationUsesNextStart verifies that an open-ended recording
// only covers up to the start of the following one.
func TestMatchUnknownDurationUsesNextStart(t *testing.T) {
	catalog := []Recording{
		{Path: "second.mp4", Start: at("12:00:00")},
		{Path: "first.mp4", Start: at("08:00:00")},
	}

	if _, ok := Match(catalog, at("11:55:00"), at("12:05:00")); ok {
		t.Fatal("clip spanning the recording boundary should not match")
	}

	got, ok := Match(catalog, at("11:50:00"), at("12:00:00"))
	if !ok || got.Path != "first.mp4" {
		t.Fatalf("Match() = %q, %v; want first.mp4, true", got.Path, ok)
	}

	got, ok = Match(catalog, at("12:05:00"), at("12:15:00"))
	if !ok || got.Path != "second.mp4" {
		t.Fatalf("Match() = %q, %v; want second.mp4, true", got.Path, ok)
	}
}

func TestMatchLastRecordingOpenEnded(t *testing.T) {
	rec := Recording{Path: "last.mp4", Start: at("10:00:00")}

	if _, ok := Match([]Recording{rec}, at("10:00:00"), rec.Start.Add(OpenEndedWindow)); !ok {
		t.Fatal("expected clip ending at the 25h horizon to match")
	}
	if _, ok := Match([]Recording{rec}, at("10:00:00"), rec.Start.Add(OpenEndedWindow+time.Second)); ok {
		t.Fatal("expected clip past the 25h horizon not to match")
	}
}

func TestMatchEarliestStartWins(t *testing.T) {
	catalog := []Recording{
		{Path: "late.mp4", Start: at("10:05:00"), Duration: 3600},
		{Path: "early.mp4", Start: at("10:00:00"), Duration: 3600},
	}
	got, ok := Match(catalog, at("10:10:00"), at("10:20:00"))
	if !ok || got.Path != "early.mp4" {
		t.Fatalf("Match() = %q, %v; want early.mp4, true", got.Path, ok)
	}
}

func TestMatchEmptyCatalog(t *testing.T) {
	if _, ok := Match(nil, at("10:00:00"), at("10:01:00")); ok {
		t.Fatal("empty catalog should never match")
	}
}

func TestSortRecordingsDoesNotMutateInput(t *testing.T) {
	in := []Recording{{Path: "b", Start: at("11:00:00")}, {Path: "a", Start: at("10:00:00")}}
	out := SortRecordings(in)
	if out[0].Path != "a" || out[1].Path != "b" {
		t.Fatalf("SortRecordings() order = %q,%q; want a,b", out[0].Path, out[1].Path)
	}
	if in[0].Path != "b" {
		t.Fatal("SortRecordings() reordered its input")
	}
}
