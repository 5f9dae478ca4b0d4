package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/user/clipcutter/batch"
	"github.com/user/clipcutter/clip"
)

// Recorder persists batch events into the runs and run_jobs tables.
type Recorder struct {
	DB *sql.DB
}

// NewRecorder returns a Recorder writing to db.
func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{DB: db}
}

// Notify implements batch.Notifier.
func (r *Recorder) Notify(_ context.Context, ev batch.Event) error {
	switch ev.Type {
	case batch.EventBatchStarted:
		return InsertRun(r.DB, ev.RunID, ev.Quality, ev.Total, ev.Time)

	case batch.EventJobStarted:
		if ev.Job == nil {
			return nil
		}
		return MarkJobProcessing(r.DB, ev.RunID, *ev.Job)

	case batch.EventJobFinished:
		if ev.Job == nil {
			return nil
		}
		return r.saveFinished(ev.RunID, *ev.Job)

	case batch.EventBatchFinished:
		if ev.Report == nil {
			return nil
		}
		rep := ev.Report
		// Jobs skipped by cancellation never produce their own event.
		for _, job := range rep.Jobs {
			if job.Status == clip.StatusSkipped && job.Error == clip.ReasonBatchCancelled {
				if err := MarkJobError(r.DB, ev.RunID, job); err != nil {
					return err
				}
			}
		}
		return FinishRun(r.DB, ev.RunID, rep.Completed, rep.Failed, rep.Skipped, rep.Cancelled, rep.FinishedAt)
	}
	return nil
}

func (r *Recorder) saveFinished(runID string, job clip.Job) error {
	switch job.Status {
	case clip.StatusCompleted:
		return MarkJobComplete(r.DB, runID, job)
	case clip.StatusFailed, clip.StatusSkipped:
		return MarkJobError(r.DB, runID, job)
	}
	return fmt.Errorf("job %d finished in state %s", job.Index+1, job.Status)
}
