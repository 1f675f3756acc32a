package jmx

import (
	"os"
	"path/filepath"
	"time"

	"github.com/mon-tools/jmx-supervisor/pkg/errors"
	"github.com/mon-tools/jmx-supervisor/pkg/logging"

	"gopkg.in/yaml.v3"
)

// StatusFileName is the supervisor-side status record, consumed by the
// external status viewer. The name is fixed by that consumer.
const StatusFileName = "jmx_status_python.yaml"

// statusDocument is what lands in the status file. Rebuilt wholesale on
// every run; there is no merge with previous content.
type statusDocument struct {
	Timestamp     float64           `yaml:"timestamp"`
	InvalidChecks map[string]string `yaml:"invalid_checks"`
}

// StatusReporter persists the set of checks that failed validation.
type StatusReporter struct {
	path   string
	logger logging.Logger
}

// NewStatusReporter creates a reporter writing into dir, or the temp
// directory when dir is empty.
func NewStatusReporter(dir string, logger logging.Logger) *StatusReporter {
	if dir == "" {
		dir = os.TempDir()
	}
	return &StatusReporter{
		path:   filepath.Join(dir, StatusFileName),
		logger: logger,
	}
}

// Path returns the status file location.
func (r *StatusReporter) Path() string {
	return r.path
}

// Write overwrites the status file with a timestamp and the invalid-check
// set. Callers log failures; they never escalate them.
func (r *StatusReporter) Write(invalidChecks map[string]string) error {
	document := statusDocument{
		Timestamp:     float64(time.Now().UnixNano()) / float64(time.Second),
		InvalidChecks: invalidChecks,
	}

	data, err := yaml.Marshal(&document)
	if err != nil {
		return errors.NewInternalError("failed to serialize status document", err)
	}
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return errors.NewIOError("failed to write status file", err).WithContext("status_file", r.path)
	}

	r.logger.Debugf("Status file written, path: %s, invalid checks: %d", r.path, len(invalidChecks))
	return nil
}

// Remove deletes the status file if present. Best-effort.
func (r *StatusReporter) Remove() {
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		r.logger.Debugf("Couldn't remove status file, path: %s, error: %v", r.path, err)
	}
}
