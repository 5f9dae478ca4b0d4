package batch

import (
	"context"
	"time"

	"github.com/user/clipcutter/clip"
)

// EventType names a point in a batch's lifecycle.
type EventType string

const (
	EventBatchStarted  EventType = "batch_started"
	EventJobStarted    EventType = "job_started"
	EventJobFinished   EventType = "job_finished"
	EventBatchFinished EventType = "batch_finished"
)

// Event is delivered to every Notifier. Job is set for job events and Report
// for EventBatchFinished.
type Event struct {
	Type    EventType
	RunID   string
	Time    time.Time
	Quality clip.Quality
	Total   int
	Job     *clip.Job
	Report  *Report
}

// Notifier receives batch events in order on a goroutine of its own. Errors
// are logged and never affect the batch. The context is cancelled when a
// cancelled batch stops waiting for the notifier.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev Event) error

func (f NotifierFunc) Notify(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}
