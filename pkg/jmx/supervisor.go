package jmx

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mon-tools/jmx-supervisor/pkg/errors"
	"github.com/mon-tools/jmx-supervisor/pkg/logging"
	"github.com/mon-tools/jmx-supervisor/pkg/pidfile"
	"github.com/mon-tools/jmx-supervisor/pkg/process"
	"github.com/mon-tools/jmx-supervisor/pkg/processstate"
)

const (
	// DefaultStatsdPort is where the statsd reporter sends metrics unless
	// configured otherwise.
	DefaultStatsdPort = 8125

	// DefaultCheckFrequency is the collector's main loop period.
	DefaultCheckFrequency = 15 * time.Second

	// collectorStatusFileName is the collector's own status file. Its
	// format is owned by the collector; the supervisor only names the path
	// on launch and removes it on stop.
	collectorStatusFileName = "jmx_status.yaml"
)

// SupervisorConfig configures a Supervisor.
type SupervisorConfig struct {
	// ConfDir is the directory of per-check configuration files.
	ConfDir string

	// JarPath is the collector jar handed to java -jar.
	JarPath string

	// CheckFrequency is the collection period. Defaults to
	// DefaultCheckFrequency.
	CheckFrequency time.Duration

	// LogLevel is the host agent's log level; it is translated into the
	// collector's vocabulary on launch.
	LogLevel string

	// LogFile is where the collector writes its own log.
	LogFile string

	// StatsdPort backs the default statsd reporter target.
	StatsdPort int

	// JavaBinPath and JavaOptions override whatever the check
	// configurations resolve to.
	JavaBinPath string
	JavaOptions string

	// PidDirectory overrides the pid marker location.
	PidDirectory string

	// StatusDirectory overrides the status file location. Empty means the
	// temp directory.
	StatusDirectory string
}

// Supervisor manages the lifecycle of the external JMX collector process:
// at most one instance, started from validated check configurations,
// stopped through the pid marker. Construct it once and pass it around;
// there is no ambient shared state.
type Supervisor struct {
	config  SupervisorConfig
	pidFile *pidfile.PidFile
	status  *StatusReporter
	logger  logging.Logger

	// Injection points for tests.
	spawn  func(spec process.Spec, mode process.LaunchMode, logger logging.Logger) (int, error)
	signal func(pid int) error
	probe  func(pid int) (bool, error)
}

// NewSupervisor creates a supervisor with defaults applied.
func NewSupervisor(config SupervisorConfig, logger logging.Logger) *Supervisor {
	if config.CheckFrequency == 0 {
		config.CheckFrequency = DefaultCheckFrequency
	}
	if config.StatsdPort == 0 {
		config.StatsdPort = DefaultStatsdPort
	}
	return &Supervisor{
		config:  config,
		pidFile: pidfile.New(pidfile.Config{Directory: config.PidDirectory}, logger),
		status:  NewStatusReporter(config.StatusDirectory, logger),
		logger:  logger,
		spawn:   process.Spawn,
		signal:  process.SendTerminationSignal,
		probe:   processstate.IsProcessRunning,
	}
}

// Init scans the config directory, records invalid checks, and launches the
// collector when at least one check is eligible. A collector already
// running is restarted for the collect command so configuration changes
// take effect; one-shot listing commands never trigger a restart. Returns
// true only if the collector was started. Faults are logged and swallowed,
// never propagated.
func (s *Supervisor) Init(command string, allowList []string, reporter string, mode process.LaunchMode) bool {
	if command == "" {
		command = CollectCommand
	}
	if !IsValidCommand(command) {
		s.logger.Errorf("Unknown collector command: %s", command)
		return false
	}
	if reporter == "" {
		reporter = fmt.Sprintf("statsd:%d", s.config.StatsdPort)
	}

	eligible, invalidChecks := s.classifyChecks(allowList)

	if len(invalidChecks) > 0 {
		if err := s.status.Write(invalidChecks); err != nil {
			s.logger.Errorf("Error while writing JMX status file: %v", err)
		}
	}

	if len(eligible) == 0 {
		s.logger.Debugf("No JMX checks found in %s, nothing to launch", s.config.ConfDir)
		return false
	}

	if command == CollectCommand && s.IsRunning() {
		s.logger.Warnf("JMX collector is already running, restarting it")
		s.Stop()
	}

	plan := BuildPlan(eligible, PlanOptions{
		Command:     command,
		Reporter:    reporter,
		CheckPeriod: s.config.CheckFrequency,
		LogLevel:    s.config.LogLevel,
		ConfDir:     s.config.ConfDir,
		LogFile:     s.config.LogFile,
		StatusFile:  s.collectorStatusPath(),
		JarPath:     s.config.JarPath,
		JavaBinPath: s.config.JavaBinPath,
		JavaOptions: s.config.JavaOptions,
	})

	return s.start(plan, mode)
}

// classifyChecks runs the scan and splits the results into eligible checks
// (scan order) and the invalid-check set.
func (s *Supervisor) classifyChecks(allowList []string) ([]EligibleCheck, map[string]string) {
	var eligible []EligibleCheck
	invalidChecks := make(map[string]string)

	for _, check := range ScanConfigDir(s.config.ConfDir, s.logger) {
		outcome := Classify(check.Document, check.Name, allowList, s.logger)
		switch outcome.Kind {
		case OutcomeEligible:
			eligible = append(eligible, EligibleCheck{
				Name:        check.Name,
				FileName:    check.FileName,
				JavaBinPath: outcome.JavaBinPath,
				JavaOptions: outcome.JavaOptions,
			})
		case OutcomeInvalid:
			s.logger.Errorf("%s check is not a valid jmx configuration: %s", check.Name, outcome.Reason)
			invalidChecks[check.Name] = outcome.Reason
		}
	}

	return eligible, invalidChecks
}

// start spawns the collector per the plan. On spawn failure the pid marker
// is left untouched and the supervisor stays in the absent state.
func (s *Supervisor) start(plan *LaunchPlan, mode process.LaunchMode) bool {
	if plan == nil {
		return false
	}

	spec := process.Spec{
		ExecutablePath: plan.JavaBinPath,
		Args:           plan.Args(),
	}

	s.logger.Infof("Starting the JMX collector, mode: %s, checks: %v", mode, plan.Checks)
	pid, err := s.spawn(spec, mode, s.logger)
	if err != nil {
		s.logger.Errorf("Couldn't launch the JMX collector. Is java in your PATH? error: %v", err)
		return false
	}

	if mode == process.LaunchModeForeground {
		// Synchronous run completed; nothing to record.
		return true
	}

	if err := s.pidFile.WritePid(pid); err != nil {
		s.logger.Errorf("Unable to write the collector pid file: %v", err)
	}
	return true
}

// IsRunning reports whether the pid marker names a live collector process.
// A marker naming a dead process is stale and counts as not running. Probe
// ambiguity is reported and conservatively treated as not running.
func (s *Supervisor) IsRunning() bool {
	pid, err := s.pidFile.ReadPid()
	if err != nil {
		if !errors.IsNotFoundError(err) {
			s.logger.Debugf("Couldn't read the collector pid file: %v", err)
		}
		return false
	}

	running, err := s.probe(pid)
	if err != nil {
		s.logger.Debugf("Couldn't determine if the JMX collector is running, assuming it's not, pid: %d, error: %v", pid, err)
		return false
	}
	return running
}

// Stop sends the recorded collector process a graceful termination signal,
// clears the pid marker, and removes the status files best-effort. With no
// marker present it logs and does nothing.
func (s *Supervisor) Stop() {
	pid, err := s.pidFile.ReadPid()
	if err != nil {
		s.logger.Errorf("Couldn't get the collector pid: %v", err)
		return
	}

	s.logger.Infof("Stopping the JMX collector, pid: %d", pid)
	if err := s.signal(pid); err != nil {
		s.logger.Errorf("Couldn't stop the collector, pid: %d, error: %v", pid, err)
		return
	}

	if err := s.pidFile.Clean(); err != nil {
		s.logger.Warnf("Couldn't clean the collector pid file: %v", err)
	}

	s.status.Remove()
	if err := os.Remove(s.collectorStatusPath()); err != nil && !os.IsNotExist(err) {
		s.logger.Debugf("Couldn't remove the collector status file: %v", err)
	}

	s.logger.Infof("JMX collector stopped")
}

// PidFilePath returns the pid marker location, mainly for status display.
func (s *Supervisor) PidFilePath() string {
	return s.pidFile.Path()
}

func (s *Supervisor) collectorStatusPath() string {
	dir := s.config.StatusDirectory
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, collectorStatusFileName)
}
