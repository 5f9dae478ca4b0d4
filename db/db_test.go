package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/user/clipcutter/batch"
	"github.com/user/clipcutter/clip"
)

var base = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

func openTest(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenPath(filepath.Join(t.TempDir(), "nested", "data.db"))
	if err != nil {
		t.Fatalf("OpenPath() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenPathIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")
	for i := 0; i < 2; i++ {
		db, err := OpenPath(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n); err != nil {
			t.Fatalf("count migrations: %v", err)
		}
		if n != 1 {
			t.Fatalf("open #%d: %d applied migrations, want 1", i+1, n)
		}
		db.Close()
	}
}

func TestListMigrationsSortsAndFilters(t *testing.T) {
	fsys := fstest.MapFS{
		"m/010_later.sql":    {Data: []byte("")},
		"m/002_early.sql":    {Data: []byte("")},
		"m/readme.md":        {Data: []byte("")},
		"m/nounderscore.sql": {Data: []byte("")},
		"m/abc_bad.sql":      {Data: []byte("")},
	}
	got, err := listMigrations(fsys, "m")
	if err != nil {
		t.Fatalf("listMigrations() error = %v", err)
	}
	if len(got) != 2 || got[0].version != 2 || got[1].version != 10 {
		t.Fatalf("listMigrations() = %+v, want versions [2 10]", got)
	}
}

func TestRecordingsRoundTrip(t *testing.T) {
	db := openTest(t)

	later := clip.Recording{Path: "/v/b.mp4", Start: base.Add(time.Hour), Duration: 1800.5, Width: 1920, Height: 1080, Bitrate: 4_000_000, FrameRate: 29.97}
	earlier := clip.Recording{Path: "/v/a.mp4", Start: base}
	for _, r := range []clip.Recording{later, earlier} {
		if err := UpsertRecording(db, r, base); err != nil {
			t.Fatalf("UpsertRecording() error = %v", err)
		}
	}

	// Re-scanning refreshes rather than duplicates.
	earlier.Duration = 600
	if err := UpsertRecording(db, earlier, base.Add(time.Minute)); err != nil {
		t.Fatalf("UpsertRecording() error = %v", err)
	}

	recs, err := SelectRecordings(db)
	if err != nil {
		t.Fatalf("SelectRecordings() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	if recs[0].Path != "/v/a.mp4" || recs[0].Duration != 600 {
		t.Fatalf("first = %+v, want a.mp4 with duration 600", recs[0])
	}
	if !recs[1].Start.Equal(later.Start) || recs[1].Bitrate != later.Bitrate || recs[1].FrameRate != later.FrameRate {
		t.Fatalf("second = %+v, want %+v", recs[1], later)
	}

	n, err := DeleteRecordings(db)
	if err != nil || n != 2 {
		t.Fatalf("DeleteRecordings() = %d, %v; want 2, nil", n, err)
	}
}

func TestClipRequestsKeepInsertionOrder(t *testing.T) {
	db := openTest(t)

	reqs := []clip.Request{
		{Start: base.Add(2 * time.Hour), End: base.Add(2*time.Hour + time.Minute), Label: "late", OutputPath: "/out/late.mp4"},
		{Start: base, End: base.Add(time.Minute), Label: "early", OutputPath: "/out/early.mp4"},
	}
	if err := InsertClipRequests(db, reqs); err != nil {
		t.Fatalf("InsertClipRequests() error = %v", err)
	}
	if _, err := InsertClipRequest(db, clip.Request{Start: base, End: base.Add(time.Second), Label: "extra", OutputPath: "/out/extra.mp4"}); err != nil {
		t.Fatalf("InsertClipRequest() error = %v", err)
	}

	got, err := SelectClipRequests(db)
	if err != nil {
		t.Fatalf("SelectClipRequests() error = %v", err)
	}
	want := []string{"late", "early", "extra"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, r := range got {
		if r.Label != want[i] || r.Position != i+1 {
			t.Fatalf("row %d = %q at %d, want %q at %d", i, r.Label, r.Position, want[i], i+1)
		}
	}
	if !got[0].Start.Equal(reqs[0].Start) || !got[0].End.Equal(reqs[0].End) {
		t.Fatalf("times not preserved: %v - %v", got[0].Start, got[0].End)
	}

	if n, err := DeleteClipRequests(db); err != nil || n != 3 {
		t.Fatalf("DeleteClipRequests() = %d, %v; want 3, nil", n, err)
	}
}

func TestSelectRunByPrefix(t *testing.T) {
	db := openTest(t)

	for i, id := range []string{"abc123", "abd456"} {
		if err := InsertRun(db, id, clip.QualityMedium, 1, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("InsertRun() error = %v", err)
		}
	}

	run, err := SelectRun(db, "abc")
	if err != nil || run.ID != "abc123" {
		t.Fatalf("SelectRun(abc) = %q, %v; want abc123", run.ID, err)
	}
	if run.FinishedAt != nil {
		t.Fatalf("FinishedAt = %v, want nil", run.FinishedAt)
	}
	if _, err := SelectRun(db, "ab"); !errors.Is(err, ErrAmbiguousRun) {
		t.Fatalf("SelectRun(ab) error = %v, want ErrAmbiguousRun", err)
	}
	if _, err := SelectRun(db, "zzz"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("SelectRun(zzz) error = %v, want sql.ErrNoRows", err)
	}

	runs, err := SelectRuns(db, 10)
	if err != nil || len(runs) != 2 || runs[0].ID != "abd456" {
		t.Fatalf("SelectRuns() = %+v, %v; want newest first", runs, err)
	}
}

func TestMarkJobRejectsWrongStatus(t *testing.T) {
	db := openTest(t)
	job := clip.NewJob(0, clip.Request{Label: "x"})
	if err := MarkJobComplete(db, "run", job); err == nil {
		t.Fatal("MarkJobComplete() on a pending job should fail")
	}
}

func TestRecorderPersistsBatch(t *testing.T) {
	db := openTest(t)
	rec := NewRecorder(db)
	ctx := context.Background()
	const runID = "run-1"

	notify := func(ev batch.Event) {
		t.Helper()
		ev.RunID = runID
		if err := rec.Notify(ctx, ev); err != nil {
			t.Fatalf("Notify(%s) error = %v", ev.Type, err)
		}
	}

	notify(batch.Event{Type: batch.EventBatchStarted, Time: base, Quality: clip.QualityHigh, Total: 3})

	source := clip.Recording{Path: "/v/a.mp4", Start: base}
	done := clip.NewJob(0, clip.Request{Start: base, End: base.Add(time.Minute), Label: "try", OutputPath: "/out/try.mp4"})
	if err := done.Begin(source, base.Add(time.Second)); err != nil {
		t.Fatal(err)
	}
	started := done.Clone()
	notify(batch.Event{Type: batch.EventJobStarted, Job: &started})

	done.BeginAttempt(2)
	if err := done.Complete(2048, base.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	notify(batch.Event{Type: batch.EventJobFinished, Job: &done})

	missing := clip.NewJob(1, clip.Request{Label: "gone", OutputPath: "/out/gone.mp4"})
	if err := missing.Fail(clip.FailureSourceNotFound, clip.ReasonSourceNotFound, base.Add(2*time.Minute)); err != nil {
		t.Fatal(err)
	}
	notify(batch.Event{Type: batch.EventJobFinished, Job: &missing})

	left := clip.NewJob(2, clip.Request{Label: "left", OutputPath: "/out/left.mp4"})
	if err := left.Skip(clip.ReasonBatchCancelled, base.Add(3*time.Minute)); err != nil {
		t.Fatal(err)
	}
	report := batch.Report{
		RunID:      runID,
		Quality:    clip.QualityHigh,
		Jobs:       []clip.Job{done, missing, left},
		Completed:  1,
		Failed:     1,
		Skipped:    1,
		Cancelled:  true,
		StartedAt:  base,
		FinishedAt: base.Add(3 * time.Minute),
	}
	notify(batch.Event{Type: batch.EventBatchFinished, Time: report.FinishedAt, Report: &report})

	run, err := SelectRun(db, runID)
	if err != nil {
		t.Fatalf("SelectRun() error = %v", err)
	}
	if run.Quality != "high" || run.Total != 3 || run.Completed != 1 || run.Failed != 1 || run.Skipped != 1 || !run.Cancelled {
		t.Fatalf("run = %+v", run)
	}
	if run.FinishedAt == nil || !run.FinishedAt.Equal(report.FinishedAt) {
		t.Fatalf("FinishedAt = %v, want %v", run.FinishedAt, report.FinishedAt)
	}

	jobs, err := SelectRunJobs(db, runID)
	if err != nil {
		t.Fatalf("SelectRunJobs() error = %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("len(jobs) = %d, want 3", len(jobs))
	}
	first := jobs[0]
	if first.Status != "completed" || first.Filesize != 2048 || first.Retries != 1 || first.RecordingPath != "/v/a.mp4" {
		t.Fatalf("first job = %+v", first)
	}
	if first.StartedAt == nil || !first.StartedAt.Equal(base.Add(time.Second)) {
		t.Fatalf("first StartedAt = %v", first.StartedAt)
	}
	if jobs[1].Status != "failed" || jobs[1].Failure != "source_not_found" || jobs[1].Log != clip.ReasonSourceNotFound {
		t.Fatalf("second job = %+v", jobs[1])
	}
	if jobs[2].Status != "skipped" || jobs[2].Log != clip.ReasonBatchCancelled || jobs[2].StartedAt != nil {
		t.Fatalf("third job = %+v", jobs[2])
	}
}
