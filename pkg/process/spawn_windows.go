//go:build windows

package process

import (
	"os/exec"
	"syscall"
)

// setupDetachedAttributes detaches the child into its own process group so
// console signals for the supervisor do not reach it.
func setupDetachedAttributes(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}
