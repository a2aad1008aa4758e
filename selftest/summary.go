package selftest

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/memvis/collector/state"
)

var GreenCheck = color.New(color.FgHiGreen).Sprint("✓")
var YellowBang = color.New(color.FgHiYellow).Sprint("!")
var RedX = color.New(color.FgHiRed).Sprint("✗")
var GrayDash = color.New(color.FgWhite).Sprint("—")

var HostPrinter = color.New(color.FgCyan)

func getStatusIcon(freshness state.Freshness) string {
	switch freshness {
	case state.Fresh:
		return GreenCheck
	case state.Stale:
		return YellowBang
	case state.Missing:
		return RedX
	case state.Unsupported:
		return GrayDash
	default:
		return " "
	}
}

// PrintSummary - Human readable overview of a test run snapshot
func PrintSummary(w io.Writer, snapshot state.Snapshot, verbose bool) {
	fmt.Fprintln(w)
	host := snapshot.Host.Hostname
	if host == "" {
		host = "unknown host"
	}
	HostPrinter.Fprintf(w, "Test summary for %s", host)
	if snapshot.Host.Platform != "" {
		fmt.Fprintf(w, " (%s %s, kernel %s)", snapshot.Host.Platform, snapshot.Host.PlatformVersion, snapshot.Host.KernelVersion)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	for _, component := range state.Components {
		status := snapshot.Status[component]
		fmt.Fprintf(w, "  %s %-13s %s\n", getStatusIcon(status.Freshness), component.String()+":", describeComponent(snapshot, component))
		if status.LastError != "" && (verbose || status.Freshness != state.Fresh) {
			fmt.Fprintf(w, "      %s\n", status.LastError)
		}
	}

	for _, notice := range snapshot.Notices {
		fmt.Fprintf(w, "\n  Note: %s\n", notice.Message)
	}
	fmt.Fprintln(w)
}

func describeComponent(snapshot state.Snapshot, component state.Component) string {
	status := snapshot.Status[component]
	if status.Freshness == state.Missing {
		return "could not be collected"
	}
	if status.Freshness == state.Unsupported {
		return "not supported on this system"
	}

	switch component {
	case state.MemoryComponent:
		if m := snapshot.Memory; m != nil {
			return fmt.Sprintf("%s of %s used (%.1f%%, %.1f%% available), %s swap used", humanize.IBytes(m.UsedBytes), humanize.IBytes(m.TotalBytes), m.UsedPercent(), m.AvailablePercent(), humanize.IBytes(m.SwapUsedBytes))
		}
	case state.PagingComponent:
		if p := snapshot.Paging; p != nil {
			return fmt.Sprintf("%d of %d pages used, %d of %d sampled pages resident", p.UsedPages, p.TotalPages, p.ResidentCount(), len(p.Pages))
		}
	case state.SegmentationComponent:
		if s := snapshot.Segmentation; s != nil {
			return fmt.Sprintf("%d segments (%s), fragmentation %.3f", len(s.Segments), segmentKinds(s.Segments), s.Fragmentation)
		}
	}
	return ""
}

func segmentKinds(segments []state.SegmentRecord) string {
	var counts [4]int
	for _, segment := range segments {
		if int(segment.Kind) < len(counts) {
			counts[segment.Kind]++
		}
	}
	var parts []string
	for _, kind := range []state.SegmentKind{state.SegmentCode, state.SegmentData, state.SegmentStack, state.SegmentHeap} {
		if counts[kind] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[kind], kind))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
