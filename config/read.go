package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-ini/ini"
	"github.com/pkg/errors"

	"github.com/memvis/collector/util"
)

const DefaultConfigFile = "/etc/memvis-collector.conf"

// SectionName - INI section holding the collector settings. Keys in the
// unnamed default section are read too.
const SectionName = "memvis"

func getDefaultConfig() *Config {
	config := &Config{
		Interval:            1,
		Source:              SelfHostedSource,
		MaxPages:            64,
		MaxSegments:         64,
		SubscriberQueueSize: 16,
		ValidateSnapshots:   true,
		ReportSchedule:      DefaultReportSchedule,
		SyntheticSeed:       1,
	}

	// The environment variables are the default way to configure when running inside a container.
	if interval := os.Getenv("MEMVIS_INTERVAL"); interval != "" {
		if value, err := strconv.ParseFloat(interval, 64); err == nil {
			config.Interval = value
		}
	}
	if source := os.Getenv("MEMVIS_SOURCE"); source != "" {
		config.Source = source
	}
	if targetPids := os.Getenv("MEMVIS_TARGET_PIDS"); targetPids != "" {
		for _, s := range strings.Split(targetPids, ",") {
			if pid, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
				config.TargetPids = append(config.TargetPids, pid)
			}
		}
	}
	if targetProcesses := os.Getenv("MEMVIS_TARGET_PROCESSES"); targetProcesses != "" {
		for _, s := range strings.Split(targetProcesses, ",") {
			if name := strings.TrimSpace(s); name != "" {
				config.TargetProcesses = append(config.TargetProcesses, name)
			}
		}
	}
	if maxPages := os.Getenv("MEMVIS_MAX_PAGES"); maxPages != "" {
		config.MaxPages, _ = strconv.Atoi(maxPages)
	}
	if maxSegments := os.Getenv("MEMVIS_MAX_SEGMENTS"); maxSegments != "" {
		config.MaxSegments, _ = strconv.Atoi(maxSegments)
	}
	if queueSize := os.Getenv("MEMVIS_SUBSCRIBER_QUEUE_SIZE"); queueSize != "" {
		config.SubscriberQueueSize, _ = strconv.Atoi(queueSize)
	}
	if requireComplete := os.Getenv("MEMVIS_REQUIRE_COMPLETE"); requireComplete != "" && requireComplete != "0" {
		config.RequireComplete = true
	}
	if disableValidation := os.Getenv("MEMVIS_DISABLE_VALIDATION"); disableValidation != "" && disableValidation != "0" {
		config.ValidateSnapshots = false
	}
	if exportLogfmt := os.Getenv("MEMVIS_EXPORT_LOGFMT"); exportLogfmt != "" && exportLogfmt != "0" {
		config.ExportLogfmt = true
	}
	if reportSchedule, ok := os.LookupEnv("MEMVIS_REPORT_SCHEDULE"); ok {
		config.ReportSchedule = reportSchedule
	}
	if sentryDsn := os.Getenv("MEMVIS_SENTRY_DSN"); sentryDsn != "" {
		config.SentryDsn = sentryDsn
	}
	if seed := os.Getenv("MEMVIS_SYNTHETIC_SEED"); seed != "" {
		config.SyntheticSeed, _ = strconv.ParseInt(seed, 10, 64)
	}

	return config
}

// Read - Reads the configuration from the specified filename, falling back to
// defaults and environment variables if the file doesn't exist
func Read(logger *util.Logger, filename string) (Config, error) {
	config := getDefaultConfig()

	if _, err := os.Stat(filename); err == nil {
		configFile, err := ini.Load(filename)
		if err != nil {
			return *config, errors.Wrapf(err, "could not parse %s", filename)
		}

		// Keys outside of any section, then the collector section on top
		if err = configFile.Section(ini.DefaultSection).MapTo(config); err != nil {
			return *config, errors.Wrapf(err, "could not read default section of %s", filename)
		}
		if configFile.HasSection(SectionName) {
			if err = configFile.Section(SectionName).MapTo(config); err != nil {
				return *config, errors.Wrapf(err, "could not read section [%s] of %s", SectionName, filename)
			}
		}

		for _, section := range configFile.SectionStrings() {
			if section != ini.DefaultSection && section != SectionName {
				logger.PrintWarning("Ignoring unknown config section [%s] in %s", section, filename)
			}
		}
	} else if filename != DefaultConfigFile {
		return *config, fmt.Errorf("No configuration file found at %s", filename)
	} else {
		logger.PrintVerbose("No configuration file at %s, using defaults and environment variables", filename)
	}

	if err := config.Validate(); err != nil {
		return *config, errors.Wrap(err, "invalid configuration")
	}

	return *config, nil
}
