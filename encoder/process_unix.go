//go:build unix

package encoder

import (
	"os"
	"os/exec"
	"syscall"
)

func configureCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// signalGroup signals the process group led by p, falling back to p alone.
func signalGroup(p *os.Process, sig syscall.Signal) error {
	if err := syscall.Kill(-p.Pid, sig); err == nil {
		return nil
	}
	return p.Signal(sig)
}

func killProcess(p *os.Process) error {
	return signalGroup(p, syscall.SIGKILL)
}

func suspendProcess(p *os.Process) error {
	return signalGroup(p, syscall.SIGSTOP)
}

func resumeProcess(p *os.Process) error {
	return signalGroup(p, syscall.SIGCONT)
}
