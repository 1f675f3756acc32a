package pidfile

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/mon-tools/jmx-supervisor/pkg/errors"
	"github.com/mon-tools/jmx-supervisor/pkg/logging"
)

// DefaultName is the marker name for the external JMX collector.
const DefaultName = "jmxfetch"

// Config holds pid marker file configuration.
type Config struct {
	// Directory for the pid file. If empty, an OS-appropriate run
	// directory is used, falling back to the temp directory.
	Directory string

	// Name of the marker, without extension.
	Name string
}

// PidFile is the durable record of the external collector's process id.
// It is the only state of this module that outlives a single run.
type PidFile struct {
	path   string
	logger logging.Logger
}

// New creates a pid marker handle for the given configuration.
func New(config Config, logger logging.Logger) *PidFile {
	if config.Name == "" {
		config.Name = DefaultName
	}
	dir := config.Directory
	if dir == "" {
		dir = defaultDirectory()
	}
	return &PidFile{
		path:   filepath.Join(dir, config.Name+".pid"),
		logger: logger,
	}
}

// Path returns the marker file location.
func (f *PidFile) Path() string {
	return f.path
}

// WritePid persists pid to the marker file, readable by all and writable
// by the owner.
func (f *PidFile) WritePid(pid int) error {
	f.logger.Debugf("Writing pid file, pid: %d, path: %s", pid, f.path)

	if err := ensureDirectory(f.path); err != nil {
		return err
	}

	content := fmt.Sprintf("%d\n", pid)
	if err := os.WriteFile(f.path, []byte(content), 0644); err != nil {
		return errors.NewIOError("failed to write pid file", err).WithContext("pid_file", f.path).WithContext("pid", pid)
	}
	// WriteFile's mode only applies to newly created files; make the
	// permissions explicit for the overwrite case too.
	if err := os.Chmod(f.path, 0644); err != nil {
		f.logger.Warnf("Failed to set pid file permissions, path: %s, error: %v", f.path, err)
	}

	f.logger.Infof("Pid file written, pid: %d, path: %s", pid, f.path)
	return nil
}

// ReadPid returns the pid recorded in the marker file. A missing file is a
// not-found error; garbage content is a validation error.
func (f *PidFile) ReadPid() (int, error) {
	content, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errors.NewNotFoundError("pid file does not exist", err).WithContext("pid_file", f.path)
		}
		return 0, errors.NewIOError("failed to read pid file", err).WithContext("pid_file", f.path)
	}

	pidStr := strings.TrimSpace(string(content))
	pid, err := strconv.Atoi(pidStr)
	if err != nil || pid <= 0 {
		return 0, errors.NewValidationError("invalid pid in pid file", err).WithContext("pid_file", f.path).WithContext("content", pidStr)
	}

	return pid, nil
}

// Clean removes the marker file. Removing an already-absent marker is not
// an error.
func (f *PidFile) Clean() error {
	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return errors.NewIOError("failed to remove pid file", err).WithContext("pid_file", f.path)
	}
	return nil
}

func ensureDirectory(path string) error {
	dir := filepath.Dir(path)

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return errors.NewIOError("failed to create pid file directory", err).WithContext("directory", dir)
			}
			return nil
		}
		return errors.NewIOError("failed to access pid file directory", err).WithContext("directory", dir)
	}
	if !info.IsDir() {
		return errors.NewValidationError("pid file path is not a directory", nil).WithContext("path", dir)
	}
	return nil
}

// defaultDirectory picks a run directory the current user can plausibly
// write to, preferring the system run directory for root.
func defaultDirectory() string {
	if runtime.GOOS != "windows" && os.Geteuid() == 0 {
		if _, err := os.Stat("/run"); err == nil {
			return "/run"
		}
		return "/var/run"
	}
	return os.TempDir()
}
