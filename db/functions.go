package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/user/clipcutter/clip"
)

// ErrAmbiguousRun is returned by SelectRun when a prefix matches more than one run.
var ErrAmbiguousRun = errors.New("run id prefix is ambiguous")

// Times are stored as RFC 3339 text so they survive the round trip with
// their zone intact.
const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpsertRecording inserts a recording or refreshes the probe data of an
// already known path.
func UpsertRecording(db *sql.DB, rec clip.Recording, scannedAt time.Time) error {
	_, err := db.Exec(UpsertRecordingSQL,
		rec.Path, formatTime(rec.Start), rec.Duration,
		rec.Width, rec.Height, rec.Bitrate, rec.FrameRate,
		formatTime(scannedAt))
	if err != nil {
		return fmt.Errorf("upsert recording %s: %w", rec.Path, err)
	}
	return nil
}

// SelectRecordings returns the stored catalog sorted by start time.
func SelectRecordings(db *sql.DB) ([]clip.Recording, error) {
	rows, err := db.Query(SelectRecordingsSQL)
	if err != nil {
		return nil, fmt.Errorf("select recordings: %w", err)
	}
	defer rows.Close()

	var recs []clip.Recording
	for rows.Next() {
		var r clip.Recording
		var start string
		if err := rows.Scan(&r.Path, &start, &r.Duration, &r.Width, &r.Height, &r.Bitrate, &r.FrameRate); err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		// Start is stored as text
		if r.Start, err = parseTime(start); err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Stable, so equal start times keep scan order
	return clip.SortRecordings(recs), nil
}

// DeleteRecordings empties the catalog and returns how many rows went.
func DeleteRecordings(db *sql.DB) (int64, error) {
	res, err := db.Exec(DeleteRecordingsSQL)
	if err != nil {
		return 0, fmt.Errorf("delete recordings: %w", err)
	}
	return res.RowsAffected()
}

// InsertClipRequest appends a request to the saved queue and returns its ID.
func InsertClipRequest(db *sql.DB, req clip.Request) (int64, error) {
	res, err := db.Exec(InsertClipRequestSQL,
		formatTime(req.Start), formatTime(req.End), req.Label, req.OutputPath)
	if err != nil {
		return 0, fmt.Errorf("insert clip request: %w", err)
	}
	return res.LastInsertId()
}

// InsertClipRequests appends requests in order inside one transaction.
func InsertClipRequests(db *sql.DB, reqs []clip.Request) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin insert clip requests: %w", err)
	}
	// All or nothing
	for _, req := range reqs {
		if _, err := tx.Exec(InsertClipRequestSQL,
			formatTime(req.Start), formatTime(req.End), req.Label, req.OutputPath); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert clip request %q: %w", req.Label, err)
		}
	}
	return tx.Commit()
}

// SelectClipRequests returns the saved queue in insertion order.
func SelectClipRequests(db *sql.DB) ([]StoredRequest, error) {
	rows, err := db.Query(SelectClipRequestsSQL)
	if err != nil {
		return nil, fmt.Errorf("select clip requests: %w", err)
	}
	defer rows.Close()

	var reqs []StoredRequest
	for rows.Next() {
		var r StoredRequest
		var start, end string
		if err := rows.Scan(&r.ID, &r.Position, &start, &end, &r.Label, &r.OutputPath); err != nil {
			return nil, fmt.Errorf("scan clip request: %w", err)
		}
		if r.Start, err = parseTime(start); err != nil {
			return nil, err
		}
		if r.End, err = parseTime(end); err != nil {
			return nil, err
		}
		reqs = append(reqs, r)
	}
	return reqs, rows.Err()
}

// DeleteClipRequests empties the saved queue.
func DeleteClipRequests(db *sql.DB) (int64, error) {
	res, err := db.Exec(DeleteClipRequestsSQL)
	if err != nil {
		return 0, fmt.Errorf("delete clip requests: %w", err)
	}
	return res.RowsAffected()
}

// InsertRun records the start of a batch.
func InsertRun(db *sql.DB, id string, quality clip.Quality, total int, startedAt time.Time) error {
	_, err := db.Exec(InsertRunSQL, id, quality.String(), total, formatTime(startedAt))
	if err != nil {
		return fmt.Errorf("insert run %s: %w", id, err)
	}
	return nil
}

// FinishRun stores the final tallies of a batch.
func FinishRun(db *sql.DB, id string, completed, failed, skipped int, cancelled bool, finishedAt time.Time) error {
	_, err := db.Exec(FinishRunSQL, completed, failed, skipped, cancelled, formatTime(finishedAt), id)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	return nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		var finished sql.NullString
		if err := rows.Scan(&r.ID, &r.Quality, &r.Total, &r.Completed, &r.Failed, &r.Skipped, &r.Cancelled, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		var err error
		if r.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		// NULL while the run is still going
		if r.FinishedAt, err = parseNullTime(finished); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SelectRuns returns up to limit runs, newest first.
func SelectRuns(db *sql.DB, limit int) ([]Run, error) {
	rows, err := db.Query(SelectRunsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

// SelectRun finds a run by its ID or a unique prefix of it. It returns
// sql.ErrNoRows when nothing matches and ErrAmbiguousRun when the prefix
// is shared.
func SelectRun(db *sql.DB, idPrefix string) (Run, error) {
	rows, err := db.Query(SelectRunsByPrefixSQL, idPrefix)
	if err != nil {
		return Run{}, fmt.Errorf("select run %s: %w", idPrefix, err)
	}
	defer rows.Close()

	runs, err := scanRuns(rows)
	if err != nil {
		return Run{}, err
	}
	// Exactly one match wins
	switch len(runs) {
	case 0:
		return Run{}, sql.ErrNoRows
	case 1:
		return runs[0], nil
	}
	return Run{}, fmt.Errorf("%w: %s", ErrAmbiguousRun, idPrefix)
}

// saveRunJob writes the current state of job under runID.
func saveRunJob(db *sql.DB, runID string, job clip.Job) error {
	// Skipped jobs have no recording
	var recPath string
	if job.Recording != nil {
		recPath = job.Recording.Path
	}
	_, err := db.Exec(UpsertRunJobSQL,
		runID, job.Index+1, job.Request.Label, job.Request.OutputPath, recPath,
		job.Status.String(), job.Failure.String(), job.Error, job.OutputSize, job.Retries,
		nullTime(job.StartedAt), nullTime(job.FinishedAt))
	if err != nil {
		return fmt.Errorf("save job %d of run %s: %w", job.Index+1, runID, err)
	}
	return nil
}

// MarkJobProcessing records that job has been handed to the encoder.
func MarkJobProcessing(db *sql.DB, runID string, job clip.Job) error {
	if job.Status != clip.StatusProcessing {
		return fmt.Errorf("mark job processing: job %d is %s", job.Index+1, job.Status)
	}
	return saveRunJob(db, runID, job)
}

// MarkJobComplete records a successfully encoded clip.
func MarkJobComplete(db *sql.DB, runID string, job clip.Job) error {
	if job.Status != clip.StatusCompleted {
		return fmt.Errorf("mark job complete: job %d is %s", job.Index+1, job.Status)
	}
	return saveRunJob(db, runID, job)
}

// MarkJobError records a failed or skipped job along with its reason.
func MarkJobError(db *sql.DB, runID string, job clip.Job) error {
	if job.Status != clip.StatusFailed && job.Status != clip.StatusSkipped {
		return fmt.Errorf("mark job error: job %d is %s", job.Index+1, job.Status)
	}
	return saveRunJob(db, runID, job)
}

// SelectRunJobs returns the jobs of a run ordered by position.
func SelectRunJobs(db *sql.DB, runID string) ([]RunJob, error) {
	rows, err := db.Query(SelectRunJobsSQL, runID)
	if err != nil {
		return nil, fmt.Errorf("select jobs of run %s: %w", runID, err)
	}
	defer rows.Close()

	var jobs []RunJob
	for rows.Next() {
		var j RunJob
		var started, finished sql.NullString
		if err := rows.Scan(&j.Position, &j.Label, &j.OutputPath, &j.RecordingPath, &j.Status,
			&j.Failure, &j.Log, &j.Filesize, &j.Retries, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan run job: %w", err)
		}
		if j.StartedAt, err = parseNullTime(started); err != nil {
			return nil, err
		}
		if j.FinishedAt, err = parseNullTime(finished); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
