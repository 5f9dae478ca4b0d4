package encoder

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// ErrSuspendUnsupported is returned by Process.Suspend on platforms that
// cannot stop a running child.
var ErrSuspendUnsupported = errors.New("suspending a process is not supported on this platform")

// Process is a running encoder child. Its two output streams must both be
// drained until EOF before Wait is called.
type Process interface {
	Stdout() io.Reader
	Stderr() io.Reader
	Wait() error
	Kill() error
	Suspend() error
	Resume() error
}

// Launcher starts encoder processes.
type Launcher interface {
	Launch(name string, args []string) (Process, error)
}

// ExecLauncher starts real child processes with os/exec.
type ExecLauncher struct{}

// Launch starts name with args and returns once the process is running.
func (ExecLauncher) Launch(name string, args []string) (Process, error) {
	cmd := exec.Command(name, args...)
	// Run in a process group of its own so Kill also reaches anything a
	// wrapper script started.
	configureCommand(cmd)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdout io.Reader
	stderr io.Reader
}

func (p *execProcess) Stdout() io.Reader { return p.stdout }
func (p *execProcess) Stderr() io.Reader { return p.stderr }
func (p *execProcess) Wait() error       { return p.cmd.Wait() }
func (p *execProcess) Kill() error       { return killProcess(p.cmd.Process) }
func (p *execProcess) Suspend() error    { return suspendProcess(p.cmd.Process) }
func (p *execProcess) Resume() error     { return resumeProcess(p.cmd.Process) }

// exitCoder is satisfied by *exec.ExitError.
type exitCoder interface {
	ExitCode() int
}
