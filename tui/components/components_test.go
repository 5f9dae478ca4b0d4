package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/user/clipcutter/clip"
)

func TestRenderInfoBoxWidth(t *testing.T) {
	box := RenderInfoBox("Batch", []string{"short", strings.Repeat("x", 100)}, 30)
	lines := strings.Split(box, "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w != 30 {
			t.Errorf("line %d width = %d, want 30", i, w)
		}
	}
	if !strings.Contains(lines[0], "Batch") {
		t.Errorf("title missing from %q", lines[0])
	}
}

func TestProgressBar(t *testing.T) {
	bar := ProgressBar(0.5, 25, false)
	if !strings.HasSuffix(bar, " 50%") {
		t.Fatalf("bar = %q, want 50%% suffix", bar)
	}
	if got := strings.Count(bar, "█"); got != 10 {
		t.Fatalf("filled cells = %d, want 10", got)
	}
	if over := ProgressBar(3, 25, false); !strings.HasSuffix(over, "100%") {
		t.Fatalf("over-full bar = %q", over)
	}
}

func TestJobRowShowsFailureReason(t *testing.T) {
	job := clip.NewJob(4, clip.Request{Label: "kick"})
	job.Status = clip.StatusFailed
	job.Error = clip.ReasonSourceNotFound

	row := JobRow(job, 60, false)
	if !strings.Contains(row, "5") || !strings.Contains(row, "kick - source recording not found") {
		t.Fatalf("row = %q", row)
	}
	if w := lipgloss.Width(row); w != 60 {
		t.Fatalf("row width = %d, want 60", w)
	}
}

func TestJobTableScrollsToCurrent(t *testing.T) {
	var jobs []clip.Job
	for i := 0; i < 20; i++ {
		jobs = append(jobs, clip.NewJob(i, clip.Request{Label: "clip"}))
	}
	table := JobTable(jobs, 15, 50, 7)
	if !strings.Contains(table, "Clips 14-18 of 20") {
		t.Fatalf("table title wrong:\n%s", table)
	}
	if lines := strings.Split(table, "\n"); len(lines) != 7 {
		t.Fatalf("table has %d lines, want 7", len(lines))
	}
}

func TestBindings(t *testing.T) {
	if b := Bindings(true, false); b[0].Desc != "resume" {
		t.Fatalf("paused bindings = %v", b)
	}
	if b := Bindings(false, true); len(b) != 1 || b[0].Key != "q" {
		t.Fatalf("stopped bindings = %v", b)
	}
}
