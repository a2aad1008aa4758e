package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/memvis/collector/config"
	"github.com/memvis/collector/input/system"
	"github.com/memvis/collector/output/bus"
	"github.com/memvis/collector/output/logexport"
	"github.com/memvis/collector/reports"
	"github.com/memvis/collector/scheduler"
	"github.com/memvis/collector/selftest"
	"github.com/memvis/collector/state"
	"github.com/memvis/collector/util"
)

// Run - Reads the config and starts sampling, with all configured consumers
// attached to the snapshot bus. Consumers are tracked in wg; call shutdown and
// then wait on wg before running again (e.g. on reload).
func Run(ctx context.Context, wg *sync.WaitGroup, globalCollectionOpts state.CollectionOpts, logger *util.Logger, configFilename string) (keepRunning bool, testRunSuccess chan bool, shutdown func()) {
	keepRunning = false
	shutdown = func() {}

	conf, err := config.Read(logger, configFilename)
	if err != nil {
		logger.PrintError("Config Error: %s", err)
		// A later SIGHUP may fix the config
		keepRunning = !globalCollectionOpts.TestRun
		return
	}
	conf = applyCollectionOpts(conf, globalCollectionOpts)
	if err = conf.Validate(); err != nil {
		logger.PrintError("Config Error: %s", err)
		keepRunning = !globalCollectionOpts.TestRun
		return
	}

	errorReporter, err := util.NewErrorReporter(conf.SentryDsn, map[string]string{"source": conf.Source})
	if err != nil {
		logger.PrintWarning("Could not set up error reporting, continuing without: %s", err)
		errorReporter, _ = util.NewErrorReporter("", nil)
	}

	source, err := system.NewSource(conf, logger)
	if err != nil {
		logger.PrintError("Could not set up %s source: %s", conf.Source, err)
		keepRunning = !globalCollectionOpts.TestRun
		return
	}

	samplerOpts := SamplerOptions{
		RequireComplete:   conf.RequireComplete,
		ValidateSnapshots: conf.ValidateSnapshots,
		ErrorReporter:     errorReporter,
	}

	if globalCollectionOpts.TestRun {
		logger.PrintInfo("Running collector test with %s", util.CollectorNameAndVersion)
		wg.Add(1)
		// Buffered so the goroutine can finish without the caller reading the result
		testRunSuccess = make(chan bool, 1)
		go func() {
			defer wg.Done()
			testRunSuccess <- TestRun(ctx, source, samplerOpts, logger, os.Stdout)
			errorReporter.Close()
		}()
		return
	}

	groups, err := scheduler.GetSchedulerGroups(conf.ReportSchedule)
	if err != nil {
		logger.PrintError("Error: Could not get scheduler groups: %s", err)
		return
	}

	snapshotBus := bus.New(conf.SubscriberQueueSize)
	sampler := NewSampler(source, snapshotBus, logger.WithPrefix("sampler"), samplerOpts)

	consumerCtx, cancelConsumers := context.WithCancel(ctx)

	if conf.ExportLogfmt {
		exporter := logexport.NewExporter(os.Stdout, logger.WithPrefix("logfmt"))
		sub := snapshotBus.Subscribe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := exporter.Run(consumerCtx, sub); err != nil && consumerCtx.Err() == nil {
				logger.PrintError("Log export stopped: %s", err)
			}
		}()
	}

	var summary *reports.Reporter
	stopReports := make(chan bool)
	if reportsGroup, ok := groups["reports"]; ok {
		summary = reports.NewReporter(logger.WithPrefix("summary"), reports.NewSummaryReport)
		summarySub := snapshotBus.Subscribe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := summary.Consume(consumerCtx, summarySub); err != nil && consumerCtx.Err() == nil {
				logger.PrintError("Summary report stopped: %s", err)
			}
		}()
		stopReports = reportsGroup.Schedule(func() { summary.Flush() }, logger, "summary report")
	}
	stopStats := groups["stats"].Schedule(func() { logSamplerStats(sampler, logger) }, logger, "sampler statistics")

	sampler.Start(conf.IntervalDuration())
	logger.PrintInfo("Sampling %s source every %s", conf.Source, conf.IntervalDuration())

	shutdown = func() {
		sampler.Stop()
		close(stopReports)
		close(stopStats)
		snapshotBus.Close()
		cancelConsumers()
		if summary != nil {
			summary.Flush()
		}
		errorReporter.Close()
	}

	keepRunning = true
	return
}

func applyCollectionOpts(conf config.Config, opts state.CollectionOpts) config.Config {
	if opts.IntervalOverride != 0 {
		conf.Interval = opts.IntervalOverride
	}
	if opts.SourceOverride != "" {
		conf.Source = opts.SourceOverride
	}
	if opts.ExportLogfmt {
		conf.ExportLogfmt = true
	}
	return conf
}

// TestRun - Collects a single snapshot and prints it, returns whether all
// supported components could be collected
func TestRun(ctx context.Context, source system.Source, opts SamplerOptions, logger *util.Logger, w io.Writer) bool {
	opts.RequireComplete = false
	sampler := NewSampler(source, nil, logger, opts)

	snapshot, _ := sampler.CollectOnce(ctx)

	success := true
	for _, component := range state.Components {
		switch snapshot.Status[component].Freshness {
		case state.Fresh, state.Unsupported:
		default:
			success = false
		}
	}

	selftest.PrintSummary(os.Stderr, snapshot, logger.Verbose)

	exporter := logexport.NewExporter(w, logger)
	if err := exporter.Export(bus.Delivery{Snapshot: snapshot}); err != nil {
		logger.PrintError("Could not print snapshot: %s", err)
		success = false
	}

	if success {
		fmt.Fprintln(os.Stderr, "Test successful")
	}
	return success
}

func logSamplerStats(sampler *Sampler, logger *util.Logger) {
	stats := sampler.Stats()
	logger.PrintInfo("Sampler: %d ticks, %d published, %d omitted, failures: memory=%d paging=%d segmentation=%d",
		stats.Ticks, stats.Published, stats.Omitted,
		stats.Failures[state.MemoryComponent], stats.Failures[state.PagingComponent], stats.Failures[state.SegmentationComponent])
}
