package clip

import (
	"errors"
	"testing"
	"time"
)

func TestJobLifecycle(t *testing.T) {
	now := time.Now()
	job := NewJob(0, Request{Start: at("10:00:00"), End: at("10:01:00")})

	if err := job.Complete(0, now); err == nil {
		t.Fatal("pending job must not complete directly")
	}
	if err := job.Begin(Recording{Path: "a.mp4"}, now); err != nil {
		t.Fatalf("Begin() = %v", err)
	}
	job.BeginAttempt(1)
	job.SetProgress(0.4)
	job.SetProgress(0.2)
	if job.Progress != 0.4 {
		t.Fatalf("Progress = %v, want 0.4 (no regression)", job.Progress)
	}
	job.SetProgress(3)
	if job.Progress != 1 {
		t.Fatalf("Progress = %v, want clamp to 1", job.Progress)
	}

	job.BeginAttempt(2)
	if job.Progress != 0 || job.Retries != 1 {
		t.Fatalf("after retry Progress = %v Retries = %d; want 0, 1", job.Progress, job.Retries)
	}

	if err := job.Complete(1024, now); err != nil {
		t.Fatalf("Complete() = %v", err)
	}
	if job.Progress != 1 || job.OutputSize != 1024 {
		t.Fatalf("Complete left Progress = %v OutputSize = %d", job.Progress, job.OutputSize)
	}

	err := job.Fail(FailureEncoderExit, "late", now)
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("Fail() after complete = %v, want TransitionError", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusSkipped, true},
		{StatusPending, StatusCompleted, false},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusSkipped, false},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusProcessing, false},
		{StatusSkipped, StatusPending, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestParseStatusRoundTrip(t *testing.T) {
	for s := range statusNames {
		got, err := ParseStatus(s.String())
		if err != nil || got != s {
			t.Fatalf("ParseStatus(%q) = %v, %v", s, got, err)
		}
	}
}

func TestJobCloneIsIndependent(t *testing.T) {
	job := NewJob(0, Request{})
	_ = job.Begin(Recording{Path: "a.mp4"}, time.Now())
	c := job.Clone()
	c.Recording.Path = "changed"
	if job.Recording.Path != "a.mp4" {
		t.Fatal("Clone() shares the recording")
	}
}
