package process

import (
	"os"
	"os/exec"

	"github.com/mon-tools/jmx-supervisor/pkg/errors"
	"github.com/mon-tools/jmx-supervisor/pkg/logging"
)

// LaunchMode selects how the external process is run. It is an explicit
// argument to Spawn, never inferred from the argument vector.
type LaunchMode int

const (
	// LaunchModeDetached starts the process in its own process group,
	// disconnected from the supervisor's stdio, and does not wait on it.
	LaunchModeDetached LaunchMode = iota

	// LaunchModeForeground runs the process synchronously with inherited
	// stdio, for interactive diagnostic invocations.
	LaunchModeForeground
)

func (m LaunchMode) String() string {
	if m == LaunchModeForeground {
		return "foreground"
	}
	return "detached"
}

// Spec describes one invocation of the external binary.
type Spec struct {
	ExecutablePath   string
	Args             []string
	Environment      []string
	WorkingDirectory string
}

// Spawn starts the process described by spec. In detached mode it returns
// the child pid without waiting; in foreground mode it blocks until the
// process exits and returns 0.
func Spawn(spec Spec, mode LaunchMode, logger logging.Logger) (int, error) {
	if spec.ExecutablePath == "" {
		return 0, errors.NewValidationError("executable path is required", nil)
	}

	cmd := exec.Command(spec.ExecutablePath, spec.Args...)
	cmd.Dir = spec.WorkingDirectory
	if len(spec.Environment) > 0 {
		cmd.Env = append(os.Environ(), spec.Environment...)
	}

	if mode == LaunchModeForeground {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		logger.Infof("Running process in foreground, cmd: %s %v", spec.ExecutablePath, spec.Args)
		if err := cmd.Run(); err != nil {
			return 0, errors.NewProcessError("foreground process failed", err).WithContext("executable_path", spec.ExecutablePath)
		}
		return 0, nil
	}

	// Platform-specific process group setup lives in spawn_unix.go and
	// spawn_windows.go.
	setupDetachedAttributes(cmd)

	logger.Infof("Spawning detached process, cmd: %s %v", spec.ExecutablePath, spec.Args)
	if err := cmd.Start(); err != nil {
		return 0, errors.NewProcessError("failed to start the process", err).WithContext("executable_path", spec.ExecutablePath)
	}

	pid := cmd.Process.Pid

	// The collector is unmanaged after spawn: release the handle instead
	// of waiting on it.
	if err := cmd.Process.Release(); err != nil {
		logger.Warnf("Failed to release process handle, pid: %d, error: %v", pid, err)
	}

	logger.Infof("Spawned detached process, pid: %d", pid)
	return pid, nil
}
