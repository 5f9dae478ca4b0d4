// Package batch runs a list of clip requests through the encoder one at a
// time, with pause, resume, cancel and progress reporting.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/user/clipcutter/clip"
	"github.com/user/clipcutter/encoder"
)

// ErrAlreadyRunning is returned by Start while a batch is in progress.
var ErrAlreadyRunning = errors.New("a batch is already running")

// Driver runs one clip encode to a terminal outcome. *encoder.Driver implements it.
type Driver interface {
	Run(ctx context.Context, req encoder.Request, ctl encoder.Control, report encoder.ReportFunc) encoder.Result
}

// Logger is the subset of logging.Logger the orchestrator uses.
type Logger interface {
	Info(format string, args ...any)
	Success(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	Debug(format string, args ...any)
}

// Plan is the input to one batch.
type Plan struct {
	Requests []clip.Request
	Catalog  []clip.Recording
	Quality  clip.Quality
	Offsets  clip.OffsetPolicy
}

// State is the orchestrator's lifecycle.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateFinished
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	case StateCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Report is the terminal result of a batch.
type Report struct {
	RunID      string
	Quality    clip.Quality
	Jobs       []clip.Job
	Completed  int
	Failed     int
	Skipped    int
	Cancelled  bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// Total returns the number of jobs in the batch.
func (r Report) Total() int {
	return len(r.Jobs)
}

// Snapshot is a point-in-time copy of the batch for display.
type Snapshot struct {
	RunID     string
	State     State
	Paused    bool
	Jobs      []clip.Job
	Current   int // index of the job being worked on, -1 if none
	Total     int
	Completed int
	Failed    int
	Skipped   int
	Progress  float64
	Elapsed   time.Duration
	ETA       time.Duration
	ETAKnown  bool
}

// Finished returns the number of jobs in a terminal state.
func (s Snapshot) Finished() int {
	return s.Completed + s.Failed + s.Skipped
}

// Orchestrator owns the job list of one batch at a time.
type Orchestrator struct {
	driver       Driver
	log          Logger
	notifiers    []Notifier
	skipExisting bool
	poll         time.Duration
	notifyGrace  time.Duration
	now          func() time.Time
	newID        func() string

	paused atomic.Bool

	mu         sync.Mutex
	runID      string
	state      State
	quality    clip.Quality
	jobs       []clip.Job
	current    int
	startedAt  time.Time
	finishedAt time.Time
	cancel     context.CancelFunc
	done       chan struct{}
	report     Report
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithNotifiers adds event sinks.
func WithNotifiers(n ...Notifier) Option {
	return func(o *Orchestrator) { o.notifiers = append(o.notifiers, n...) }
}

// WithSkipExisting skips jobs whose output file already exists.
func WithSkipExisting(skip bool) Option {
	return func(o *Orchestrator) { o.skipExisting = skip }
}

// WithPollInterval sets how often a paused batch checks for resume or cancel.
func WithPollInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.poll = d
		}
	}
}

// WithNotifyGrace sets how long a cancelled batch waits for notifiers to
// deliver their queued events before Wait returns.
func WithNotifyGrace(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.notifyGrace = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an idle Orchestrator around driver.
func New(driver Driver, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		driver:  driver,
		log:     nopLogger{},
		poll:        100 * time.Millisecond,
		notifyGrace: 500 * time.Millisecond,
		now:         time.Now,
		newID:       uuid.NewString,
		current:     -1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start begins processing plan in the background. The batch stops early if
// ctx is cancelled or Cancel is called.
func (o *Orchestrator) Start(ctx context.Context, plan Plan) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateRunning {
		return ErrAlreadyRunning
	}
	if o.done != nil {
		// the previous batch may still be delivering its last events
		select {
		case <-o.done:
		default:
			return ErrAlreadyRunning
		}
	}

	jobs := make([]clip.Job, len(plan.Requests))
	for i, req := range plan.Requests {
		jobs[i] = clip.NewJob(i, req)
	}

	ctx, cancel := context.WithCancel(ctx)
	o.runID = o.newID()
	o.state = StateRunning
	o.quality = plan.Quality
	o.jobs = jobs
	o.current = -1
	o.startedAt = o.now()
	o.finishedAt = time.Time{}
	o.cancel = cancel
	o.done = make(chan struct{})
	o.report = Report{}
	o.paused.Store(false)

	go o.run(ctx, plan, o.runID, o.done)
	return nil
}

// Run processes plan and blocks until the batch ends.
func (o *Orchestrator) Run(ctx context.Context, plan Plan) (Report, error) {
	if err := o.Start(ctx, plan); err != nil {
		return Report{}, err
	}
	return o.Wait(), nil
}

// Wait blocks until the current batch ends and returns its report.
func (o *Orchestrator) Wait() Report {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()
	if done != nil {
		<-done
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return cloneReport(o.report)
}

// Pause holds the batch before the next job or retry. An encode already
// running is suspended where the platform allows it.
func (o *Orchestrator) Pause() {
	if !o.paused.Swap(true) {
		o.log.Info("batch paused")
	}
}

// Resume releases a paused batch.
func (o *Orchestrator) Resume() {
	if o.paused.Swap(false) {
		o.log.Info("batch resumed")
	}
}

// Paused reports whether the batch is held. It satisfies encoder.Control.
func (o *Orchestrator) Paused() bool {
	return o.paused.Load()
}

// Cancel kills the running encode and stops dispatching. Finished outputs
// are kept. Notifiers still delivering events get the notify grace, then
// their context is cancelled.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	cancel := o.cancel
	running := o.state == StateRunning
	o.mu.Unlock()
	if cancel == nil {
		return
	}
	if running {
		o.log.Warn("cancelling batch")
	}
	cancel()
}

// Snapshot returns a copy of the batch state. Callers never see live jobs.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := Snapshot{
		RunID:   o.runID,
		State:   o.state,
		Paused:  o.paused.Load(),
		Jobs:    make([]clip.Job, len(o.jobs)),
		Current: o.current,
		Total:   len(o.jobs),
	}
	for i, j := range o.jobs {
		s.Jobs[i] = j.Clone()
		switch j.Status {
		case clip.StatusCompleted:
			s.Completed++
		case clip.StatusFailed:
			s.Failed++
		case clip.StatusSkipped:
			s.Skipped++
		}
	}

	var currentFraction float64
	if o.current >= 0 && o.current < len(o.jobs) && o.jobs[o.current].Status == clip.StatusProcessing {
		currentFraction = o.jobs[o.current].Progress
	}
	s.Progress = OverallProgress(s.Finished(), currentFraction, s.Total)

	switch {
	case o.startedAt.IsZero():
	case o.finishedAt.IsZero():
		s.Elapsed = o.now().Sub(o.startedAt)
	default:
		s.Elapsed = o.finishedAt.Sub(o.startedAt)
	}
	s.ETA, s.ETAKnown = EstimateRemaining(s.Elapsed, s.Completed, s.Total-s.Finished())
	return s
}

func (o *Orchestrator) run(ctx context.Context, plan Plan, runID string, done chan struct{}) {
	defer close(done)
	events := newDispatcher(ctx, o.notifiers, o.log)

	o.log.Info("batch %s: %d clips, quality %s", runID, len(plan.Requests), plan.Quality)
	events.send(ctx.Done(), Event{Type: EventBatchStarted, RunID: runID, Time: o.now(), Quality: plan.Quality, Total: len(plan.Requests)})

	for i := range plan.Requests {
		if !o.waitWhilePaused(ctx) {
			break
		}
		o.runJob(ctx, events, runID, i, plan)
	}

	o.mu.Lock()
	cancelled := ctx.Err() != nil
	if cancelled {
		for i := range o.jobs {
			if o.jobs[i].Status == clip.StatusPending {
				_ = o.jobs[i].Skip(clip.ReasonBatchCancelled, o.now())
			}
		}
		o.state = StateCancelled
	} else {
		o.state = StateFinished
	}
	o.current = -1
	o.finishedAt = o.now()
	o.report = o.buildReport(cancelled)
	report := cloneReport(o.report)
	cancel := o.cancel
	o.mu.Unlock()

	o.log.Info("batch %s: %d completed, %d failed, %d skipped", runID, report.Completed, report.Failed, report.Skipped)
	events.send(ctx.Done(), Event{Type: EventBatchFinished, RunID: runID, Time: report.FinishedAt, Quality: report.Quality, Total: report.Total(), Report: &report})

	// Wait for the notifiers before Wait returns; a cancel bounds the wait.
	events.finish(ctx.Done(), o.notifyGrace)
	cancel()
}

// waitWhilePaused blocks while the batch is paused. It returns false once
// ctx is cancelled.
func (o *Orchestrator) waitWhilePaused(ctx context.Context) bool {
	for o.paused.Load() {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(o.poll):
		}
	}
	return ctx.Err() == nil
}

func (o *Orchestrator) runJob(ctx context.Context, events *dispatcher, runID string, i int, plan Plan) {
	o.mu.Lock()
	o.current = i
	job := &o.jobs[i]
	req := job.Request
	job.Start, job.End = plan.Offsets.Apply(req.Start, req.End)
	start, end := job.Start, job.End
	o.mu.Unlock()

	name := filepath.Base(req.OutputPath)

	if err := req.Validate(); err != nil {
		o.log.Error("%s: %v", name, err)
		o.finishJob(ctx, events, runID, i, func(j *clip.Job) error {
			return j.Fail(clip.FailureInvalid, err.Error(), o.now())
		})
		return
	}

	if o.skipExisting {
		if _, err := os.Stat(req.OutputPath); err == nil {
			o.log.Info("%s: output exists, skipping", name)
			o.finishJob(ctx, events, runID, i, func(j *clip.Job) error {
				return j.Skip(clip.ReasonOutputExists, o.now())
			})
			return
		}
	}

	rec, ok := clip.Match(plan.Catalog, start, end)
	if !ok {
		o.log.Warn("%s: no recording covers %s - %s", name, start.Format(time.DateTime), end.Format(time.DateTime))
		o.finishJob(ctx, events, runID, i, func(j *clip.Job) error {
			return j.Fail(clip.FailureSourceNotFound, clip.ReasonSourceNotFound, o.now())
		})
		return
	}

	o.mu.Lock()
	err := o.jobs[i].Begin(rec, o.now())
	encReq, reqErr := encoder.NewRequest(&o.jobs[i], plan.Quality)
	started := o.jobs[i].Clone()
	o.mu.Unlock()
	if err != nil {
		o.log.Error("%s: %v", name, err)
		return
	}
	events.send(ctx.Done(), Event{Type: EventJobStarted, RunID: runID, Time: started.StartedAt, Quality: plan.Quality, Total: len(plan.Requests), Job: &started})

	if reqErr != nil {
		o.log.Error("%s: %v", name, reqErr)
		o.finishJob(ctx, events, runID, i, func(j *clip.Job) error {
			return j.Fail(clip.FailureInvalid, reqErr.Error(), o.now())
		})
		return
	}

	o.log.Info("[%d/%d] %s from %s at %.3fs for %.3fs", i+1, len(plan.Requests), name, filepath.Base(rec.Path), encReq.Seek, encReq.Duration)
	res := o.driver.Run(ctx, encReq, o, func(p encoder.Progress) {
		o.mu.Lock()
		o.jobs[i].BeginAttempt(p.Attempt)
		o.jobs[i].SetProgress(p.Fraction)
		o.mu.Unlock()
	})

	o.finishJob(ctx, events, runID, i, func(j *clip.Job) error {
		j.BeginAttempt(res.Attempts)
		if res.Outcome == encoder.OutcomeCompleted {
			var size int64
			if info, err := os.Stat(req.OutputPath); err == nil {
				size = info.Size()
			}
			return j.Complete(size, o.now())
		}
		return j.Fail(res.Outcome.Failure(), res.Detail, o.now())
	})

	switch res.Outcome {
	case encoder.OutcomeCompleted:
		o.log.Success("%s: done", name)
	case encoder.OutcomeUserStopped:
		o.log.Warn("%s: %s", name, res.Detail)
	default:
		o.log.Error("%s: %s: %s", name, res.Outcome, res.Detail)
	}
}

// finishJob applies a terminal transition and emits EventJobFinished.
func (o *Orchestrator) finishJob(ctx context.Context, events *dispatcher, runID string, i int, apply func(*clip.Job) error) {
	o.mu.Lock()
	err := apply(&o.jobs[i])
	finished := o.jobs[i].Clone()
	total := len(o.jobs)
	quality := o.quality
	o.mu.Unlock()
	if err != nil {
		o.log.Error("job %d: %v", i+1, err)
		return
	}
	events.send(ctx.Done(), Event{Type: EventJobFinished, RunID: runID, Time: finished.FinishedAt, Quality: quality, Total: total, Job: &finished})
}

// buildReport must be called with o.mu held.
func (o *Orchestrator) buildReport(cancelled bool) Report {
	r := Report{
		RunID:      o.runID,
		Quality:    o.quality,
		Jobs:       o.jobs,
		Cancelled:  cancelled,
		StartedAt:  o.startedAt,
		FinishedAt: o.finishedAt,
	}
	for _, j := range o.jobs {
		switch j.Status {
		case clip.StatusCompleted:
			r.Completed++
		case clip.StatusFailed:
			r.Failed++
		case clip.StatusSkipped:
			r.Skipped++
		}
	}
	return r
}

func cloneReport(r Report) Report {
	jobs := make([]clip.Job, len(r.Jobs))
	for i, j := range r.Jobs {
		jobs[i] = j.Clone()
	}
	r.Jobs = jobs
	return r
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)    {}
func (nopLogger) Success(string, ...any) {}
func (nopLogger) Warn(string, ...any)    {}
func (nopLogger) Error(string, ...any)   {}
func (nopLogger) Debug(string, ...any)   {}
