package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	flag "github.com/ogier/pflag"

	"github.com/memvis/collector/config"
	"github.com/memvis/collector/runner"
	"github.com/memvis/collector/state"
	"github.com/memvis/collector/util"
)

func main() {
	var configFilename string
	var sourceOverride string
	var intervalOverride float64
	var verbose bool
	var quiet bool
	var useSyslog bool
	var exportLogfmt bool
	var testRun bool
	var reloadRun bool
	var showVersion bool

	flag.StringVarP(&configFilename, "config", "c", config.DefaultConfigFile, "Specify alternative path for config file")
	flag.StringVar(&sourceOverride, "source", "", "Override the telemetry source (\"selfhosted\" or \"synthetic\")")
	flag.Float64Var(&intervalOverride, "interval", 0, "Override the sampling interval in seconds")
	flag.BoolVarP(&verbose, "verbose", "v", false, "Outputs additional debugging information, use this if you're encountering errors or other problems")
	flag.BoolVarP(&quiet, "quiet", "q", false, "Only outputs error messages to the logs and hides informational and warning messages")
	flag.BoolVar(&useSyslog, "syslog", false, "Write all log output to the system log instead of stderr")
	flag.BoolVar(&exportLogfmt, "logfmt", false, "Write every snapshot as a logfmt line to stdout")
	flag.BoolVarP(&testRun, "test", "t", false, "Tests the configuration by collecting a single snapshot, and exits")
	flag.BoolVar(&reloadRun, "reload", false, "Reloads the collector daemon that's running on the host")
	flag.BoolVar(&showVersion, "version", false, "Shows the version of the collector")
	flag.Parse()

	if showVersion {
		fmt.Printf("%s\n", util.CollectorVersion)
		return
	}

	if reloadRun {
		pid, err := util.Reload()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		fmt.Printf("Successfully reloaded %s (PID %d)\n", util.CollectorExecutable, pid)
		return
	}

	logger := util.NewLogger(os.Stderr, verbose, quiet)
	if useSyslog {
		var err error
		logger, err = util.NewSyslogLogger(util.CollectorExecutable, verbose, quiet)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
	}

	globalCollectionOpts := state.CollectionOpts{
		TestRun:          testRun,
		ExportLogfmt:     exportLogfmt,
		IntervalOverride: intervalOverride,
		SourceOverride:   sourceOverride,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wg := sync.WaitGroup{}

	keepRunning, testRunSuccess, shutdown := runner.Run(ctx, &wg, globalCollectionOpts, logger, configFilename)

	if testRunSuccess != nil {
		success := <-testRunSuccess
		wg.Wait()
		if !success {
			os.Exit(1)
		}
		return
	}
	if !keepRunning {
		os.Exit(1)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	configChanged := make(chan struct{}, 1)
	stopWatch := make(chan struct{})
	err := config.Watch(configFilename, logger, func() {
		select {
		case configChanged <- struct{}{}:
		default:
		}
	}, stopWatch)
	if err != nil {
		logger.PrintVerbose("Not watching config file for changes: %s", err)
	}

ReadSignals:
	for {
		select {
		case sig := <-sigs:
			if sig != syscall.SIGHUP {
				break ReadSignals
			}
			logger.PrintInfo("Reloading configuration...")
		case <-configChanged:
			logger.PrintInfo("Config file changed, reloading...")
		}

		shutdown()
		wg.Wait()
		// A broken config keeps the collector idle until the next reload
		_, _, shutdown = runner.Run(ctx, &wg, globalCollectionOpts, logger, configFilename)
	}

	signal.Stop(sigs)
	close(stopWatch)

	logger.PrintInfo("Exiting...")
	shutdown()
	wg.Wait()
}
