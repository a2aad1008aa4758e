package config_test

import (
	"testing"
	"time"

	"github.com/memvis/collector/config"
)

func TestIntervalDuration(t *testing.T) {
	type testItem struct {
		interval float64
		expected time.Duration
	}

	tests := []testItem{
		{1, time.Second},
		{0.25, 250 * time.Millisecond},
		{60, time.Minute},
	}

	for _, item := range tests {
		conf := config.Config{Interval: item.interval}
		if actual := conf.IntervalDuration(); actual != item.expected {
			t.Errorf("want %s; got %s", item.expected, actual)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := config.Config{Interval: 1, Source: config.SyntheticSource, SubscriberQueueSize: 1}

	type testItem struct {
		name   string
		modify func(c *config.Config)
		valid  bool
	}
	tests := []testItem{
		{"valid", func(c *config.Config) {}, true},
		{"empty report schedule", func(c *config.Config) { c.ReportSchedule = "" }, true},
		{"negative interval", func(c *config.Config) { c.Interval = -1 }, false},
		{"unknown source", func(c *config.Config) { c.Source = "remote" }, false},
		{"invalid pid", func(c *config.Config) { c.TargetPids = []int{0} }, false},
		{"negative max pages", func(c *config.Config) { c.MaxPages = -1 }, false},
		{"negative max segments", func(c *config.Config) { c.MaxSegments = -1 }, false},
		{"zero queue size", func(c *config.Config) { c.SubscriberQueueSize = 0 }, false},
		{"invalid schedule", func(c *config.Config) { c.ReportSchedule = "* *" }, false},
	}

	for _, item := range tests {
		conf := valid
		item.modify(&conf)
		err := conf.Validate()
		if item.valid && err != nil {
			t.Errorf("%s: want nil; got %v", item.name, err)
		}
		if !item.valid && err == nil {
			t.Errorf("%s: want error; got nil", item.name)
		}
	}
}
