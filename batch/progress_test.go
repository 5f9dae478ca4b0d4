package batch

import (
	"testing"
	"time"
)

func TestOverallProgress(t *testing.T) {
	tests := []struct {
		finished int
		current  float64
		total    int
		want     float64
	}{
		{0, 0, 4, 0},
		{1, 0.5, 4, 0.375},
		{4, 0, 4, 1},
		{4, 0.5, 4, 1},
		{0, 0, 0, 0},
	}
	for _, tt := range tests {
		if got := OverallProgress(tt.finished, tt.current, tt.total); got != tt.want {
			t.Errorf("OverallProgress(%d, %v, %d) = %v, want %v", tt.finished, tt.current, tt.total, got, tt.want)
		}
	}
}

func TestEstimateRemaining(t *testing.T) {
	if _, ok := EstimateRemaining(time.Minute, 0, 3); ok {
		t.Fatal("ETA must be unknown before the first completion")
	}
	eta, ok := EstimateRemaining(60*time.Second, 2, 3)
	if !ok || eta != 90*time.Second {
		t.Fatalf("EstimateRemaining() = %v, %v; want 90s, true", eta, ok)
	}
	eta, ok = EstimateRemaining(time.Minute, 5, 0)
	if !ok || eta != 0 {
		t.Fatalf("EstimateRemaining() = %v, %v; want 0, true", eta, ok)
	}
}
