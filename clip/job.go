package clip

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a Job.
type Status int

const (
	StatusPending Status = iota
	StatusProcessing
	StatusCompleted
	StatusFailed
	StatusSkipped
)

var statusNames = map[Status]string{
	StatusPending:    "pending",
	StatusProcessing: "processing",
	StatusCompleted:  "completed",
	StatusFailed:     "failed",
	StatusSkipped:    "skipped",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ParseStatus converts a stored status name back to a Status.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return StatusPending, fmt.Errorf("unknown status %q", name)
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusSkipped
}

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusFailed, StatusSkipped},
	StatusProcessing: {StatusCompleted, StatusFailed},
}

// CanTransition reports whether a job may move from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionError is returned when a job is asked to make an illegal move.
type TransitionError struct {
	From, To Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid job transition %s -> %s", e.From, e.To)
}

// Failure classifies why a job ended up failed.
type Failure int

const (
	FailureNone Failure = iota
	FailureSourceNotFound
	FailureStalledExhausted
	FailureEncoderExit
	FailureUserStopped
	FailureFilesystem
	FailureLaunch
	FailureInvalid
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return ""
	case FailureSourceNotFound:
		return "source_not_found"
	case FailureStalledExhausted:
		return "stalled_exhausted"
	case FailureEncoderExit:
		return "encoder_exit"
	case FailureUserStopped:
		return "user_stopped"
	case FailureFilesystem:
		return "filesystem"
	case FailureLaunch:
		return "launch"
	case FailureInvalid:
		return "invalid_request"
	}
	return fmt.Sprintf("failure(%d)", int(f))
}

// Reasons attached to jobs that never reach the encoder.
const (
	ReasonSourceNotFound = "source recording not found"
	ReasonStoppedByUser  = "stopped by user"
	ReasonBatchCancelled = "batch cancelled"
	ReasonOutputExists   = "output exists"
)

// Job is the mutable work item derived from a Request. Start and End hold the
// range after the offset policy has been applied.
type Job struct {
	Index      int
	Request    Request
	Start      time.Time
	End        time.Time
	Recording  *Recording
	Status     Status
	Progress   float64
	Failure    Failure
	Error      string
	Retries    int
	Attempts   int
	OutputSize int64
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewJob creates a pending job for the request at position index.
func NewJob(index int, req Request) Job {
	return Job{
		Index:   index,
		Request: req,
		Start:   req.Start,
		End:     req.End,
		Status:  StatusPending,
	}
}

// Seek returns the offset into the matched recording where the clip begins.
func (j *Job) Seek() float64 {
	if j.Recording == nil {
		return 0
	}
	return j.Start.Sub(j.Recording.Start).Seconds()
}

// Length returns the adjusted clip duration in seconds.
func (j *Job) Length() float64 {
	return j.End.Sub(j.Start).Seconds()
}

func (j *Job) transition(next Status) error {
	if !j.Status.CanTransition(next) {
		return &TransitionError{From: j.Status, To: next}
	}
	j.Status = next
	return nil
}

// Begin moves the job to processing against the matched recording.
func (j *Job) Begin(rec Recording, at time.Time) error {
	if err := j.transition(StatusProcessing); err != nil {
		return err
	}
	j.Recording = &rec
	j.StartedAt = at
	j.Progress = 0
	return nil
}

// BeginAttempt records that encoder attempt n (1-based) has started. Progress
// restarts from zero for every attempt.
func (j *Job) BeginAttempt(n int) {
	if n <= j.Attempts {
		return
	}
	j.Attempts = n
	j.Retries = n - 1
	j.Progress = 0
}

// SetProgress records a fraction complete. Values are clamped to [0, 1] and
// never move backwards.
func (j *Job) SetProgress(f float64) {
	if f > 1 {
		f = 1
	}
	if f > j.Progress {
		j.Progress = f
	}
}

// Complete marks the job done and forces progress to 1.
func (j *Job) Complete(size int64, at time.Time) error {
	if err := j.transition(StatusCompleted); err != nil {
		return err
	}
	j.Progress = 1
	j.OutputSize = size
	j.FinishedAt = at
	return nil
}

// Fail marks the job failed with a classification and a description.
func (j *Job) Fail(kind Failure, msg string, at time.Time) error {
	if err := j.transition(StatusFailed); err != nil {
		return err
	}
	j.Failure = kind
	j.Error = msg
	j.FinishedAt = at
	return nil
}

// Skip marks a pending job as never run.
func (j *Job) Skip(reason string, at time.Time) error {
	if err := j.transition(StatusSkipped); err != nil {
		return err
	}
	j.Error = reason
	j.FinishedAt = at
	return nil
}

// Clone returns a copy that shares no memory with j.
func (j Job) Clone() Job {
	if j.Recording != nil {
		rec := *j.Recording
		j.Recording = &rec
	}
	return j
}
