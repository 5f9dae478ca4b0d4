package db

import (
	"time"

	"github.com/user/clipcutter/clip"
)

// StoredRequest is a clip request saved for a later run.
type StoredRequest struct {
	ID       int64
	Position int
	clip.Request
}

// Run is one batch as recorded in the runs table.
type Run struct {
	ID         string
	Quality    string
	Total      int
	Completed  int
	Failed     int
	Skipped    int
	Cancelled  bool
	StartedAt  time.Time
	FinishedAt *time.Time
}

// RunJob is the persisted outcome of one job within a run. Position is
// 1-based.
type RunJob struct {
	Position      int
	Label         string
	OutputPath    string
	RecordingPath string
	Status        string
	Failure       string
	Log           string
	Filesize      int64
	Retries       int
	StartedAt     *time.Time
	FinishedAt    *time.Time
}
