package reports

import (
	"context"
	"sync"

	"github.com/memvis/collector/output/bus"
	"github.com/memvis/collector/util"
)

// Report - Aggregation of the snapshots delivered during one reporting period
type Report interface {
	Add(delivery bus.Delivery)
	Empty() bool
	Result() string
}

// Reporter - Feeds a subscription into a report and emits it whenever Flush is called
type Reporter struct {
	logger    *util.Logger
	newReport func() Report

	mu      sync.Mutex
	current Report
}

func NewReporter(logger *util.Logger, newReport func() Report) *Reporter {
	return &Reporter{logger: logger, newReport: newReport, current: newReport()}
}

// Consume - Adds deliveries from sub until it is closed or ctx is done
func (r *Reporter) Consume(ctx context.Context, sub *bus.Subscription) error {
	for {
		delivery, err := sub.Receive(ctx)
		if err != nil {
			if err == bus.ErrUnsubscribed {
				return nil
			}
			return err
		}
		if overflow := delivery.Err(); overflow != nil {
			r.logger.PrintVerbose("Report consumer fell behind: %s", overflow)
		}

		r.mu.Lock()
		r.current.Add(delivery)
		r.mu.Unlock()
	}
}

// Flush - Logs the report of the ended period and starts a new one. Returns the
// ended report.
func (r *Reporter) Flush() Report {
	r.mu.Lock()
	report := r.current
	r.current = r.newReport()
	r.mu.Unlock()

	if report.Empty() {
		r.logger.PrintVerbose("No snapshots received since the last report")
	} else {
		r.logger.PrintInfo("%s", report.Result())
	}
	return report
}
