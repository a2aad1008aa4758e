package logexport

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-logfmt/logfmt"
	"github.com/pkg/errors"

	"github.com/memvis/collector/output/bus"
	"github.com/memvis/collector/state"
	"github.com/memvis/collector/util"
)

// Exporter - Writes one logfmt line per delivered snapshot
type Exporter struct {
	logger *util.Logger

	mu      sync.Mutex
	encoder *logfmt.Encoder
}

func NewExporter(w io.Writer, logger *util.Logger) *Exporter {
	return &Exporter{logger: logger, encoder: logfmt.NewEncoder(w)}
}

// Run - Exports deliveries from sub until it is closed or ctx is done
func (e *Exporter) Run(ctx context.Context, sub *bus.Subscription) error {
	for {
		delivery, err := sub.Receive(ctx)
		if err != nil {
			if err == bus.ErrUnsubscribed {
				return nil
			}
			return err
		}

		if err = e.Export(delivery); err != nil {
			e.logger.PrintError("Could not export snapshot %d: %s", delivery.Snapshot.Sequence, err)
		}
	}
}

// Export - Writes a single delivery
func (e *Exporter) Export(delivery bus.Delivery) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.encoder.EncodeKeyvals(Keyvals(delivery)...); err != nil {
		return errors.Wrap(err, "encode")
	}
	return errors.Wrap(e.encoder.EndRecord(), "write")
}

// Keyvals - Flat key/value summary of a delivery, in output order
func Keyvals(delivery bus.Delivery) []interface{} {
	snapshot := delivery.Snapshot

	keyvals := []interface{}{
		"ts", snapshot.CollectedAt.UTC().Format(time.RFC3339Nano),
		"seq", snapshot.Sequence,
		"id", snapshot.ID.String(),
	}
	if snapshot.Host.Hostname != "" {
		keyvals = append(keyvals, "host", snapshot.Host.Hostname)
	}

	if memory := snapshot.Memory; memory != nil {
		keyvals = append(keyvals,
			"mem_total", memory.TotalBytes,
			"mem_used", memory.UsedBytes,
			"mem_available", memory.AvailableBytes,
			"mem_used_pct", fmt.Sprintf("%.1f", memory.UsedPercent()),
			"swap_used", memory.SwapUsedBytes,
		)
	}
	if paging := snapshot.Paging; paging != nil {
		keyvals = append(keyvals,
			"page_size", paging.PageSizeBytes,
			"pages_total", paging.TotalPages,
			"pages_used", paging.UsedPages,
			"pages_sampled", len(paging.Pages),
			"pages_resident", paging.ResidentCount(),
		)
	}
	if segmentation := snapshot.Segmentation; segmentation != nil {
		keyvals = append(keyvals,
			"segments", len(segmentation.Segments),
			"segment_space", segmentation.TotalMemoryBytes,
			"fragmentation", fmt.Sprintf("%.3f", segmentation.Fragmentation),
		)
	}

	for _, component := range state.Components {
		keyvals = append(keyvals, component.String(), snapshot.Status[component].Freshness.String())
	}
	keyvals = append(keyvals, "skipped", delivery.Skipped)

	for _, notice := range snapshot.Notices {
		keyvals = append(keyvals, "notice", notice.Message)
	}

	return keyvals
}
