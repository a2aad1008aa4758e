package scheduler

import (
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/memvis/collector/util"
	"github.com/pkg/errors"
)

// StatsSchedule - How often the sampler counters get logged
const StatsSchedule = "0 */10 * * * * *"

type Group struct {
	interval *cronexpr.Expression
}

// NewGroup - Group running on the given cron expression (with seconds field)
func NewGroup(expression string) (Group, error) {
	interval, err := cronexpr.Parse(expression)
	if err != nil {
		return Group{}, errors.Wrapf(err, "invalid schedule %q", expression)
	}
	return Group{interval: interval}, nil
}

// Next - Time of the first run after t
func (group Group) Next(t time.Time) time.Time {
	return group.interval.Next(t)
}

// Schedule - Calls runner on every scheduled time until the returned channel
// is closed (or written to)
func (group Group) Schedule(runner func(), logger *util.Logger, logName string) chan bool {
	stop := make(chan bool)
	go func() {
		for {
			delay := group.interval.Next(time.Now()).Sub(time.Now())

			logger.PrintVerbose("Scheduled next run for %s in %+v", logName, delay)

			select {
			case <-time.After(delay):
				runner()
			case <-stop:
				return
			}
		}
	}()
	return stop
}

// GetSchedulerGroups - "reports" runs on the configured report schedule (left
// out if that is empty), "stats" on StatsSchedule
func GetSchedulerGroups(reportSchedule string) (groups map[string]Group, err error) {
	stats, err := NewGroup(StatsSchedule)
	if err != nil {
		return
	}

	groups = make(map[string]Group)
	groups["stats"] = stats

	if reportSchedule != "" {
		var reports Group
		reports, err = NewGroup(reportSchedule)
		if err != nil {
			return nil, err
		}
		groups["reports"] = reports
	}

	return
}
