//go:build !unix

package encoder

import (
	"os"
	"os/exec"
)

func configureCommand(*exec.Cmd) {}

func killProcess(p *os.Process) error {
	return p.Kill()
}

func suspendProcess(*os.Process) error {
	return ErrSuspendUnsupported
}

func resumeProcess(*os.Process) error {
	return ErrSuspendUnsupported
}
