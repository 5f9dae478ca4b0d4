package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/segmentio/kafka-go"

	"github.com/user/clipcutter/batch"
	"github.com/user/clipcutter/clip"
)

var base = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func completedJob(t *testing.T) clip.Job {
	t.Helper()
	job := clip.NewJob(1, clip.Request{Start: base, End: base.Add(time.Minute), Label: "try", OutputPath: "/out/try.mp4"})
	job.Start, job.End = base.Add(-5*time.Second), base.Add(time.Minute)
	rec := clip.Recording{Path: "/v/a.mp4", Start: base.Add(-time.Hour)}
	if err := job.Begin(rec, base); err != nil {
		t.Fatal(err)
	}
	job.BeginAttempt(2)
	if err := job.Complete(1024, base.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	return job
}

func TestKafkaPublisherEncodesJobEvent(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}
	job := completedJob(t)

	ev := batch.Event{Type: batch.EventJobFinished, RunID: "run-1", Time: base, Quality: clip.QualityLow, Total: 4, Job: &job}
	if err := p.Notify(context.Background(), ev); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "run-1" {
		t.Fatalf("Key = %q, want run-1", msg.Key)
	}

	var got eventPayload
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != "job_finished" || got.Quality != "low" || got.Total != 4 {
		t.Fatalf("payload = %+v", got)
	}
	if got.Job == nil {
		t.Fatal("job payload missing")
	}
	j := got.Job
	if j.Position != 2 || j.File != "try.mp4" || j.Status != "completed" || j.Retries != 1 || j.OutputSize != 1024 {
		t.Fatalf("job payload = %+v", j)
	}
	if j.Seek != 3595 || j.Duration != 65 {
		t.Fatalf("seek/duration = %v/%v, want 3595/65", j.Seek, j.Duration)
	}
	if got.Summary != nil {
		t.Fatalf("summary = %+v, want nil", got.Summary)
	}
}

func TestKafkaPublisherEncodesSummary(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}
	rep := batch.Report{RunID: "run-2", Completed: 2, Failed: 1, Cancelled: true, StartedAt: base, FinishedAt: base.Add(90 * time.Second)}

	if err := p.Notify(context.Background(), batch.Event{Type: batch.EventBatchFinished, RunID: "run-2", Time: rep.FinishedAt, Report: &rep}); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	var got eventPayload
	if err := json.Unmarshal(w.msgs[0].Value, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Summary == nil || got.Summary.Completed != 2 || got.Summary.Failed != 1 || !got.Summary.Cancelled || got.Summary.Elapsed != 90 {
		t.Fatalf("summary = %+v", got.Summary)
	}
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := &KafkaPublisher{writer: &fakeWriter{err: boom}}
	err := p.Notify(context.Background(), batch.Event{Type: batch.EventBatchStarted, RunID: "r"})
	if !errors.Is(err, boom) {
		t.Fatalf("Notify() error = %v, want wrapping %v", err, boom)
	}
}

func TestNewKafkaPublisherRequiresBrokers(t *testing.T) {
	if _, err := NewKafkaPublisher(nil, ""); err == nil {
		t.Fatal("expected an error without brokers")
	}
}

type fakeStore struct {
	exists  bool
	made    []string
	puts    []string
	checked int
}

func (s *fakeStore) BucketExists(_ context.Context, _ string) (bool, error) {
	s.checked++
	return s.exists, nil
}

func (s *fakeStore) MakeBucket(_ context.Context, name string, _ minio.MakeBucketOptions) error {
	s.made = append(s.made, name)
	s.exists = true
	return nil
}

func (s *fakeStore) FPutObject(_ context.Context, bucket, object, _ string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	s.puts = append(s.puts, bucket+"/"+object+" "+opts.ContentType)
	return minio.UploadInfo{Bucket: bucket, Key: object}, nil
}

func TestMinioUploaderUploadsCompletedClips(t *testing.T) {
	store := &fakeStore{}
	u := newMinioUploader(store, "")
	ctx := context.Background()

	done := completedJob(t)
	failed := clip.NewJob(0, clip.Request{Label: "x", OutputPath: "/out/x.mp4"})
	if err := failed.Fail(clip.FailureSourceNotFound, clip.ReasonSourceNotFound, base); err != nil {
		t.Fatal(err)
	}

	events := []batch.Event{
		{Type: batch.EventBatchStarted, RunID: "run-1"},
		{Type: batch.EventJobFinished, RunID: "run-1", Job: &failed},
		{Type: batch.EventJobFinished, RunID: "run-1", Job: &done},
		{Type: batch.EventJobFinished, RunID: "run-1", Job: &done},
	}
	for _, ev := range events {
		if err := u.Notify(ctx, ev); err != nil {
			t.Fatalf("Notify(%s) error = %v", ev.Type, err)
		}
	}

	if len(store.made) != 1 || store.made[0] != DefaultBucket {
		t.Fatalf("made = %v, want [%s]", store.made, DefaultBucket)
	}
	if store.checked != 1 {
		t.Fatalf("BucketExists called %d times, want 1", store.checked)
	}
	if len(store.puts) != 2 || store.puts[0] != "clips/run-1/try.mp4 video/mp4" {
		t.Fatalf("puts = %v", store.puts)
	}
	if got := u.Uploaded(); len(got) != 2 || got[0] != "run-1/try.mp4" {
		t.Fatalf("Uploaded() = %v", got)
	}
}

func TestObjectName(t *testing.T) {
	if got := ObjectName("abc", "/tmp/out/clip one.mp4"); got != "abc/clip one.mp4" {
		t.Fatalf("ObjectName() = %q", got)
	}
}
