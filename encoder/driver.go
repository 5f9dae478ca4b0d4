// Package encoder drives one ffmpeg child process per clip: it builds the
// argument list, reads the progress stream, watches for stalls and retries.
package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/clipcutter/clip"
)

// Outcome classifies how an encode ended.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeStalled
	OutcomeExitNonZero
	OutcomeUserStopped
	OutcomeFilesystemError
	OutcomeLaunchFailed
	OutcomeStalledExhausted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeStalled:
		return "stalled"
	case OutcomeExitNonZero:
		return "encoder exit non-zero"
	case OutcomeUserStopped:
		return "user stopped"
	case OutcomeFilesystemError:
		return "filesystem error"
	case OutcomeLaunchFailed:
		return "launch failed"
	case OutcomeStalledExhausted:
		return "stalled exhausted"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Failure maps a terminal outcome onto the job failure kind.
func (o Outcome) Failure() clip.Failure {
	switch o {
	case OutcomeStalled, OutcomeStalledExhausted:
		return clip.FailureStalledExhausted
	case OutcomeExitNonZero:
		return clip.FailureEncoderExit
	case OutcomeUserStopped:
		return clip.FailureUserStopped
	case OutcomeFilesystemError:
		return clip.FailureFilesystem
	case OutcomeLaunchFailed:
		return clip.FailureLaunch
	}
	return clip.FailureNone
}

// Result is the terminal outcome of Driver.Run.
type Result struct {
	Outcome  Outcome
	Attempts int
	ExitCode int
	Detail   string
}

// Progress is one update published while an attempt runs.
type Progress struct {
	Attempt  int
	Fraction float64
}

// ReportFunc receives progress updates on the caller's goroutine.
type ReportFunc func(Progress)

// Control lets the caller hold an in-flight encode.
type Control interface {
	Paused() bool
}

// Logger is the subset of logging.Logger the driver uses.
type Logger interface {
	Debug(format string, args ...any)
	Warn(format string, args ...any)
}

// Options tune the driver. Zero values are replaced by DefaultOptions.
type Options struct {
	Binary          string
	StallTimeout    time.Duration
	MaxAttempts     int
	RetryBackoff    time.Duration
	PollInterval    time.Duration
	KillGrace       time.Duration
	DiagnosticLimit int
}

// DefaultOptions returns the production settings: a 10s stall watchdog and
// three attempts one second apart.
func DefaultOptions() Options {
	return Options{
		Binary:          "ffmpeg",
		StallTimeout:    10 * time.Second,
		MaxAttempts:     3,
		RetryBackoff:    time.Second,
		PollInterval:    100 * time.Millisecond,
		KillGrace:       2 * time.Second,
		DiagnosticLimit: 500,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Binary == "" {
		o.Binary = d.Binary
	}
	if o.StallTimeout <= 0 {
		o.StallTimeout = d.StallTimeout
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = d.MaxAttempts
	}
	if o.RetryBackoff < 0 {
		o.RetryBackoff = d.RetryBackoff
	}
	if o.PollInterval <= 0 {
		o.PollInterval = d.PollInterval
	}
	if o.KillGrace <= 0 {
		o.KillGrace = d.KillGrace
	}
	if o.DiagnosticLimit <= 0 {
		o.DiagnosticLimit = d.DiagnosticLimit
	}
	return o
}

// Driver owns at most one encoder process at a time.
type Driver struct {
	opts     Options
	launcher Launcher
	log      Logger
	now      func() time.Time
}

// NewDriver creates a Driver. A nil launcher uses ExecLauncher.
func NewDriver(opts Options, launcher Launcher, log Logger) *Driver {
	if launcher == nil {
		launcher = ExecLauncher{}
	}
	if log == nil {
		log = nopLogger{}
	}
	return &Driver{
		opts:     opts.withDefaults(),
		launcher: launcher,
		log:      log,
		now:      time.Now,
	}
}

// Options returns the effective settings.
func (d *Driver) Options() Options {
	return d.opts
}

// Run encodes req, retrying stalled attempts. Cancelling ctx kills the
// running process and ends with OutcomeUserStopped. report may be nil.
func (d *Driver) Run(ctx context.Context, req Request, ctl Control, report ReportFunc) Result {
	if report == nil {
		report = func(Progress) {}
	}
	if err := os.MkdirAll(filepath.Dir(req.Output), 0755); err != nil {
		return Result{Outcome: OutcomeFilesystemError, Detail: fmt.Sprintf("mkdir: %v", err)}
	}

	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return Result{Outcome: OutcomeUserStopped, Attempts: attempt - 1, Detail: clip.ReasonStoppedByUser}
		}
		report(Progress{Attempt: attempt})

		res := d.attempt(ctx, req, ctl, attempt, report)
		res.Attempts = attempt
		if res.Outcome != OutcomeStalled {
			return res
		}

		d.log.Warn("%s: attempt %d/%d stalled", filepath.Base(req.Output), attempt, d.opts.MaxAttempts)
		if attempt >= d.opts.MaxAttempts {
			return Result{
				Outcome:  OutcomeStalledExhausted,
				Attempts: attempt,
				Detail:   fmt.Sprintf("stalled after %d retries", attempt),
			}
		}
		if !d.backoff(ctx, ctl) {
			return Result{Outcome: OutcomeUserStopped, Attempts: attempt, Detail: clip.ReasonStoppedByUser}
		}
	}
}

// backoff sleeps between attempts and holds while paused. It returns false
// if ctx is cancelled first.
func (d *Driver) backoff(ctx context.Context, ctl Control) bool {
	timer := time.NewTimer(d.opts.RetryBackoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
	}
	for ctl != nil && ctl.Paused() {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(d.opts.PollInterval):
		}
	}
	return true
}

func (d *Driver) attempt(ctx context.Context, req Request, ctl Control, attempt int, report ReportFunc) Result {
	args := Args(req)
	d.log.Debug("attempt %d: %s %s", attempt, d.opts.Binary, strings.Join(args, " "))

	proc, err := d.launcher.Launch(d.opts.Binary, args)
	if err != nil {
		return Result{Outcome: OutcomeLaunchFailed, Detail: fmt.Sprintf("start %s: %v", d.opts.Binary, err)}
	}

	act := newActivity(d.now)
	diag := newTailBuffer(d.opts.DiagnosticLimit)

	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		act.readProgress(proc.Stdout())
	}()
	go func() {
		defer readers.Done()
		act.drain(proc.Stderr(), diag)
	}()

	exited := make(chan error, 1)
	go func() {
		readers.Wait()
		exited <- proc.Wait()
	}()

	ticker := time.NewTicker(d.opts.PollInterval)
	defer ticker.Stop()

	var reported float64
	publish := func() {
		if f := Fraction(act.elapsed(), req.Duration); f > reported {
			reported = f
			report(Progress{Attempt: attempt, Fraction: f})
		}
	}

	paused, suspended := false, false
	for {
		select {
		case err := <-exited:
			publish()
			res := d.classifyExit(err, diag.String())
			if res.Outcome == OutcomeCompleted && reported < 1 {
				report(Progress{Attempt: attempt, Fraction: 1})
			}
			return res

		case <-ctx.Done():
			_ = proc.Kill()
			d.reap(exited)
			return Result{Outcome: OutcomeUserStopped, Detail: clip.ReasonStoppedByUser}

		case <-ticker.C:
			publish()

			if ctl != nil && ctl.Paused() {
				if !paused {
					paused = true
					if err := proc.Suspend(); err != nil {
						d.log.Debug("encoder keeps running while paused: %v", err)
					} else {
						suspended = true
					}
				}
				act.touch()
				continue
			}
			if paused {
				paused = false
				if suspended {
					if err := proc.Resume(); err != nil {
						d.log.Warn("resume encoder: %v", err)
					}
					suspended = false
				}
				act.touch()
			}

			if idle := d.now().Sub(act.last()); idle > d.opts.StallTimeout {
				_ = proc.Kill()
				d.reap(exited)
				return Result{Outcome: OutcomeStalled, Detail: fmt.Sprintf("no encoder output for %s", idle.Round(time.Millisecond))}
			}
		}
	}
}

// reap waits for a killed process to close its streams and exit. A
// descendant that escaped the kill can hold the streams open; after
// KillGrace the attempt ends anyway and the readers finish on their own.
func (d *Driver) reap(exited <-chan error) {
	timer := time.NewTimer(d.opts.KillGrace)
	defer timer.Stop()
	select {
	case <-exited:
	case <-timer.C:
		d.log.Warn("encoder output still open %s after kill, moving on", d.opts.KillGrace)
	}
}

func (d *Driver) classifyExit(err error, diag string) Result {
	if err == nil {
		return Result{Outcome: OutcomeCompleted}
	}
	var ec exitCoder
	if errors.As(err, &ec) {
		code := ec.ExitCode()
		detail := strings.TrimSpace(diag)
		if detail == "" {
			detail = fmt.Sprintf("exit code %d", code)
		}
		return Result{Outcome: OutcomeExitNonZero, ExitCode: code, Detail: detail}
	}
	return Result{Outcome: OutcomeExitNonZero, ExitCode: -1, Detail: err.Error()}
}

// activity is shared between the stream readers and the poll loop. Readers
// only store; the poll loop only loads.
type activity struct {
	now       func() time.Time
	lastNanos atomic.Int64
	elapsedUS atomic.Int64
}

func newActivity(now func() time.Time) *activity {
	a := &activity{now: now}
	a.touch()
	return a
}

func (a *activity) touch() {
	a.lastNanos.Store(a.now().UnixNano())
}

func (a *activity) last() time.Time {
	return time.Unix(0, a.lastNanos.Load())
}

func (a *activity) elapsed() int64 {
	return a.elapsedUS.Load()
}

func (a *activity) setElapsed(us int64) {
	for {
		old := a.elapsedUS.Load()
		if us <= old || a.elapsedUS.CompareAndSwap(old, us) {
			return
		}
	}
}

const maxProgressLine = 4096

// readProgress consumes ffmpeg's -progress stream until EOF.
func (a *activity) readProgress(r io.Reader) {
	buf := make([]byte, 4096)
	var pending []byte
	for {
		n, err := r.Read(buf)
		if n > 0 {
			a.touch()
			pending = append(pending, buf[:n]...)
			for {
				i := bytes.IndexByte(pending, '\n')
				if i < 0 {
					break
				}
				if us, ok := ParseProgressLine(string(pending[:i])); ok {
					a.setElapsed(us)
				}
				pending = pending[i+1:]
			}
			if len(pending) > maxProgressLine {
				pending = pending[:0]
			}
		}
		if err != nil {
			return
		}
	}
}

// drain copies the diagnostic stream into sink until EOF.
func (a *activity) drain(r io.Reader, sink io.Writer) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			a.touch()
			_, _ = sink.Write(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
