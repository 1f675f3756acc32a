//go:build !windows

package process

import (
	"syscall"
)

// SendTerminationSignal sends SIGTERM to the recorded pid's process group,
// falling back to the pid itself if the group signal is rejected. Stop is
// fire-and-forget: there is no wait or exit confirmation.
func SendTerminationSignal(pid int) error {
	if err := syscall.Kill(-pid, syscall.SIGTERM); err == nil {
		return nil
	}
	return syscall.Kill(pid, syscall.SIGTERM)
}
