package batch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/user/clipcutter/clip"
	"github.com/user/clipcutter/encoder"
)

type runFunc func(ctx context.Context, req encoder.Request, ctl encoder.Control, report encoder.ReportFunc) encoder.Result

// fakeDriver records every request and delegates to run.
type fakeDriver struct {
	mu    sync.Mutex
	calls []encoder.Request
	run   runFunc
}

func (d *fakeDriver) Run(ctx context.Context, req encoder.Request, ctl encoder.Control, report encoder.ReportFunc) encoder.Result {
	d.mu.Lock()
	d.calls = append(d.calls, req)
	d.mu.Unlock()
	if d.run == nil {
		report(encoder.Progress{Attempt: 1})
		report(encoder.Progress{Attempt: 1, Fraction: 0.5})
		return encoder.Result{Outcome: encoder.OutcomeCompleted, Attempts: 1}
	}
	return d.run(ctx, req, ctl, report)
}

func (d *fakeDriver) requests() []encoder.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]encoder.Request(nil), d.calls...)
}

// eventLog is a Notifier that keeps every event.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) Notify(_ context.Context, ev Event) error {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
	return nil
}

func (l *eventLog) types() []EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []EventType
	for _, ev := range l.events {
		out = append(out, ev.Type)
	}
	return out
}

func at(hhmmss string) time.Time {
	t, err := time.ParseInLocation(time.DateTime, "2026-01-15 "+hhmmss, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func request(t *testing.T, label, start, end string) clip.Request {
	t.Helper()
	return clip.Request{Start: at(start), End: at(end), Label: label, OutputPath: clip.OutputPath(t.TempDir(), label)}
}

// eventually polls cond until it holds or the test times out.
func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 2s")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

var catalog = []clip.Recording{
	{Path: "/videos/20260115_100000.mp4", Start: at("10:00:00"), Duration: 3600, Bitrate: 1_000_000},
	{Path: "/videos/20260115_140000.mp4", Start: at("14:00:00"), Duration: 3600, Bitrate: 2_000_000},
}

// stuckNotifier blocks on every job_finished event until release is closed,
// whatever its context says.
type stuckNotifier struct {
	release chan struct{}
}

func (n *stuckNotifier) Notify(_ context.Context, ev Event) error {
	if ev.Type == EventJobFinished {
		<-n.release
	}
	return nil
}

// ctxNotifier records whether the context of a held event was cancelled.
type ctxNotifier struct {
	mu  sync.Mutex
	err error
}

func (n *ctxNotifier) Notify(ctx context.Context, ev Event) error {
	if ev.Type != EventJobFinished {
		return nil
	}
	<-ctx.Done()
	n.mu.Lock()
	n.err = ctx.Err()
	n.mu.Unlock()
	return ctx.Err()
}

func (n *ctxNotifier) cancelled() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.err != nil
}
