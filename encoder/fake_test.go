package encoder

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// exitError mimics *exec.ExitError.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }
func (e *exitError) ExitCode() int { return e.code }

var errKilled = errors.New("signal: killed")

// script plays the role of the child process. It returns the exit error.
type script func(p *fakeProcess) error

type fakeProcess struct {
	stdoutR, stderrR *io.PipeReader
	stdoutW, stderrW *io.PipeWriter

	killCh   chan struct{}
	killOnce sync.Once
	done     chan struct{}
	exitErr  error

	killed   atomic.Bool
	suspends atomic.Int32
	resumes  atomic.Int32
}

func startFake(run script) *fakeProcess {
	p := &fakeProcess{
		killCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	p.stdoutR, p.stdoutW = io.Pipe()
	p.stderrR, p.stderrW = io.Pipe()
	go func() {
		err := run(p)
		if p.killed.Load() {
			err = errKilled
		}
		p.exitErr = err
		p.stdoutW.Close()
		p.stderrW.Close()
		close(p.done)
	}()
	return p
}

func (p *fakeProcess) progress(line string) { _, _ = io.WriteString(p.stdoutW, line+"\n") }
func (p *fakeProcess) diag(text string)     { _, _ = io.WriteString(p.stderrW, text) }

// hang blocks until the process is killed.
func (p *fakeProcess) hang() error {
	<-p.killCh
	return errKilled
}

func (p *fakeProcess) Stdout() io.Reader { return p.stdoutR }
func (p *fakeProcess) Stderr() io.Reader { return p.stderrR }

func (p *fakeProcess) Wait() error {
	<-p.done
	return p.exitErr
}

func (p *fakeProcess) Kill() error {
	p.killOnce.Do(func() {
		p.killed.Store(true)
		close(p.killCh)
		p.stdoutW.CloseWithError(io.ErrClosedPipe)
		p.stderrW.CloseWithError(io.ErrClosedPipe)
	})
	return nil
}

func (p *fakeProcess) Suspend() error {
	p.suspends.Add(1)
	return nil
}

func (p *fakeProcess) Resume() error {
	p.resumes.Add(1)
	return nil
}

// fakeLauncher hands out one script per attempt; the last one repeats.
type fakeLauncher struct {
	mu        sync.Mutex
	scripts   []script
	launchErr error
	args      [][]string
	procs     []*fakeProcess
}

func (l *fakeLauncher) Launch(name string, args []string) (Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.args = append(l.args, args)
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	i := len(l.procs)
	if i >= len(l.scripts) {
		i = len(l.scripts) - 1
	}
	p := startFake(l.scripts[i])
	l.procs = append(l.procs, p)
	return p, nil
}

func (l *fakeLauncher) launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.args)
}

// pauseSwitch is a Control the test flips.
type pauseSwitch struct{ on atomic.Bool }

func (s *pauseSwitch) Paused() bool { return s.on.Load() }

// heldProcess ignores Kill and never closes its streams, like a child whose
// escaped descendant keeps the pipes open.
type heldProcess struct {
	stdout, stderr *io.PipeReader
	killed         atomic.Bool
}

func newHeldProcess() *heldProcess {
	stdout, _ := io.Pipe()
	stderr, _ := io.Pipe()
	return &heldProcess{stdout: stdout, stderr: stderr}
}

func (p *heldProcess) Stdout() io.Reader { return p.stdout }
func (p *heldProcess) Stderr() io.Reader { return p.stderr }
func (p *heldProcess) Wait() error       { select {} }
func (p *heldProcess) Suspend() error    { return nil }
func (p *heldProcess) Resume() error     { return nil }

func (p *heldProcess) Kill() error {
	p.killed.Store(true)
	return nil
}

type launchFunc func(name string, args []string) (Process, error)

func (f launchFunc) Launch(name string, args []string) (Process, error) { return f(name, args) }
