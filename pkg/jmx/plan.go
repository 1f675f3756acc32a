package jmx

import (
	"strconv"
	"strings"
	"time"
)

// CollectCommand starts the continuous collection loop in the external
// collector. It is the only command the supervisor restarts for.
const CollectCommand = "collect"

// ListCommands enumerates the one-shot introspection verbs the collector
// understands, with their help text.
var ListCommands = map[string]string{
	"list_everything":              "List every attribute available that has a type supported by the collector",
	"list_collected_attributes":    "List attributes that will actually be collected by your current instances configuration",
	"list_matching_attributes":     "List attributes that match at least one of your instances configuration",
	"list_not_matching_attributes": "List attributes that don't match any of your instances configuration",
	"list_limited_attributes":      "List attributes that do match one of your instances configuration but that are not being collected because it would exceed the number of metrics that can be collected",
}

// IsValidCommand reports whether command is a verb the collector accepts.
func IsValidCommand(command string) bool {
	if command == CollectCommand {
		return true
	}
	_, ok := ListCommands[command]
	return ok
}

// javaLogLevels maps the host agent's log-level vocabulary into the
// collector's log4j vocabulary.
var javaLogLevels = map[string]string{
	"critical": "FATAL",
	"fatal":    "FATAL",
	"error":    "ERROR",
	"warn":     "WARN",
	"warning":  "WARN",
	"info":     "INFO",
	"debug":    "DEBUG",
}

// MapLogLevel translates a host log level into the collector's vocabulary,
// defaulting to INFO.
func MapLogLevel(level string) string {
	if mapped, ok := javaLogLevels[strings.ToLower(level)]; ok {
		return mapped
	}
	return "INFO"
}

// EligibleCheck is one validated collector check, as fed to the planner.
type EligibleCheck struct {
	Name        string
	FileName    string
	JavaBinPath string
	JavaOptions string
}

// PlanOptions carries the shared runtime options the planner folds into the
// launch plan.
type PlanOptions struct {
	Command     string
	Reporter    string
	CheckPeriod time.Duration
	LogLevel    string
	ConfDir     string
	LogFile     string
	StatusFile  string
	JarPath     string

	// Explicit overrides; when empty, the first non-empty value across the
	// eligible checks wins, else the defaults.
	JavaBinPath string
	JavaOptions string
}

// LaunchPlan is the fully resolved invocation of the external collector.
type LaunchPlan struct {
	Checks      []string
	JavaBinPath string
	JavaOptions string
	Command     string
	Reporter    string
	CheckPeriod time.Duration
	LogLevel    string
	ConfDir     string
	LogFile     string
	StatusFile  string
	JarPath     string
}

// BuildPlan aggregates the eligible checks into one launch plan. With no
// eligible checks there is no plan and nothing may be launched. The
// javaBinPath/javaOptions tie-break is first-non-empty in scan order;
// disagreeing checks are not reconciled.
func BuildPlan(checks []EligibleCheck, options PlanOptions) *LaunchPlan {
	if len(checks) == 0 {
		return nil
	}

	javaBinPath := options.JavaBinPath
	javaOptions := options.JavaOptions
	fileNames := make([]string, 0, len(checks))
	for _, check := range checks {
		fileNames = append(fileNames, check.FileName)
		if javaBinPath == "" && check.JavaBinPath != "" {
			javaBinPath = check.JavaBinPath
		}
		if javaOptions == "" && check.JavaOptions != "" {
			javaOptions = check.JavaOptions
		}
	}
	if javaBinPath == "" {
		javaBinPath = "java"
	}

	return &LaunchPlan{
		Checks:      fileNames,
		JavaBinPath: javaBinPath,
		JavaOptions: javaOptions,
		Command:     options.Command,
		Reporter:    options.Reporter,
		CheckPeriod: options.CheckPeriod,
		LogLevel:    options.LogLevel,
		ConfDir:     options.ConfDir,
		LogFile:     options.LogFile,
		StatusFile:  options.StatusFile,
		JarPath:     options.JarPath,
	}
}

// Args assembles the collector's argument vector: extra java options first,
// then the jar, the selected checks, the fixed flags, and the command verb
// last.
func (p *LaunchPlan) Args() []string {
	var args []string
	if p.JavaOptions != "" {
		args = append(args, strings.Fields(p.JavaOptions)...)
	}
	args = append(args, "-jar", p.JarPath, "--check")
	args = append(args, p.Checks...)
	args = append(args,
		"--check_period", strconv.FormatInt(p.CheckPeriod.Milliseconds(), 10),
		"--conf_directory", p.ConfDir,
		"--log_level", MapLogLevel(p.LogLevel),
		"--log_location", p.LogFile,
		"--reporter", p.Reporter,
		"--status_location", p.StatusFile,
		p.Command,
	)
	return args
}
