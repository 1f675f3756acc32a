package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mon-tools/jmx-supervisor/pkg/jmx"
	"github.com/mon-tools/jmx-supervisor/pkg/logging"
	"github.com/mon-tools/jmx-supervisor/pkg/process"

	flags "github.com/jessevdk/go-flags"
)

type flagOptions struct {
	ConfDir        string   `long:"conf-dir" description:"directory of per-check configuration files"`
	JarPath        string   `long:"jar" description:"path to the collector jar"`
	Command        string   `long:"command" default:"collect" description:"collector command verb (collect or one of the list_* verbs)"`
	Checks         []string `long:"check" description:"explicit allow-list of check names (repeatable)"`
	Reporter       string   `long:"reporter" description:"reporter target: statsd:<port>, or console to run in the foreground"`
	StatsdPort     int      `long:"statsd-port" default:"8125" description:"statsd port for the default reporter"`
	CheckFrequency int      `long:"check-frequency" default:"15" description:"collection period in seconds"`
	LogLevel       string   `long:"log-level" default:"info" description:"log level (also mapped into the collector's vocabulary)"`
	JavaBinPath    string   `long:"java-bin-path" description:"java executable override"`
	JavaOptions    string   `long:"java-options" description:"extra options passed to the java binary"`
	CollectorLog   string   `long:"collector-log-file" description:"log file for the collector itself"`
	LogFile        string   `long:"log-file" description:"log file for jmxctl (rotated); stderr if unset"`
	Watch          bool     `long:"watch" description:"keep running and re-initialize when the config directory changes"`
	Stop           bool     `long:"stop" description:"stop a running collector and exit"`
	Status         bool     `long:"status" description:"print whether the collector is running and exit"`
}

func main() {
	var opts flagOptions
	parser := flags.NewParser(&opts, flags.HelpFlag)
	if _, err := parser.ParseArgs(os.Args[1:]); err != nil {
		fmt.Printf("Command line flags parsing failed: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewZapLogger(logging.ZapConfig{
		Level:    opts.LogLevel,
		FilePath: opts.LogFile,
	})
	if err != nil {
		fmt.Printf("Failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	supervisor := jmx.NewSupervisor(jmx.SupervisorConfig{
		ConfDir:        opts.ConfDir,
		JarPath:        opts.JarPath,
		CheckFrequency: time.Duration(opts.CheckFrequency) * time.Second,
		LogLevel:       opts.LogLevel,
		LogFile:        opts.CollectorLog,
		StatsdPort:     opts.StatsdPort,
		JavaBinPath:    opts.JavaBinPath,
		JavaOptions:    opts.JavaOptions,
	}, logger)

	if opts.Stop {
		supervisor.Stop()
		return
	}

	if opts.Status {
		if supervisor.IsRunning() {
			fmt.Println("running")
		} else {
			fmt.Println("not running")
			os.Exit(1)
		}
		return
	}

	if opts.ConfDir == "" || opts.JarPath == "" {
		fmt.Println("Both --conf-dir and --jar are required")
		os.Exit(1)
	}

	// The launch mode is decided here, once: a console reporter means an
	// interactive foreground run.
	mode := process.LaunchModeDetached
	if opts.Reporter == "console" {
		mode = process.LaunchModeForeground
	}

	initialize := func() {
		supervisor.Init(opts.Command, opts.Checks, opts.Reporter, mode)
	}
	initialize()

	if !opts.Watch || mode == process.LaunchModeForeground {
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := jmx.WatchConfigDir(ctx, opts.ConfDir, 2*time.Second, initialize, logger); err != nil {
		logger.Errorf("Failed to watch config directory: %v", err)
		os.Exit(1)
	}

	logger.Infof("Watching %s for configuration changes", opts.ConfDir)
	<-ctx.Done()
}
