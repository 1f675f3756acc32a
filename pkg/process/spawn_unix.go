//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// setupDetachedAttributes puts the child in its own process group so a
// later termination signal reaches the whole tree without touching the
// supervisor.
func setupDetachedAttributes(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}
