package commands

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/mash-protocol/lwm2m-go/pkg/codec"
	"github.com/mash-protocol/lwm2m-go/pkg/log"
)

// Stats holds aggregate statistics about a trace file.
type Stats struct {
	TotalEvents       int
	EventsByDirection map[log.Direction]int
	EventsByOperation map[log.Operation]int
	Formats           map[codec.ContentFormat]*FormatStats
	ErrorsByKind      map[string]int
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// FormatStats holds statistics for a single content format.
type FormatStats struct {
	Decoded  int
	Encoded  int
	Errors   int
	Bytes    int
	Duration time.Duration
	Legacy   int
}

// AverageDuration returns the mean duration of the calls.
func (f *FormatStats) AverageDuration() time.Duration {
	n := f.Decoded + f.Encoded
	if n == 0 {
		return 0
	}
	return f.Duration / time.Duration(n)
}

// CollectStats reads every event of the trace file.
func CollectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByDirection: make(map[log.Direction]int),
		EventsByOperation: make(map[log.Operation]int),
		Formats:           make(map[codec.ContentFormat]*FormatStats),
		ErrorsByKind:      make(map[string]int),
	}

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByDirection[event.Direction]++
		stats.EventsByOperation[event.Operation]++

		// Track time range
		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		// Legacy codes are counted with their registered format.
		f := event.Format.Canonical()
		fs, ok := stats.Formats[f]
		if !ok {
			fs = &FormatStats{}
			stats.Formats[f] = fs
		}
		if event.Direction == log.DirectionDecode {
			fs.Decoded++
		} else {
			fs.Encoded++
		}
		if event.Format.IsLegacy() {
			fs.Legacy++
		}
		fs.Bytes += event.Size
		fs.Duration += event.Duration

		if event.Error != nil {
			stats.Errors++
			fs.Errors++
			stats.ErrorsByKind[event.Error.Kind]++
		}
	}
	return stats, nil
}

// RunStats analyzes the trace file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== LWM2M Codec Trace Statistics ===")
	fmt.Fprintln(w)

	// Time range
	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	// Total events
	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	// Events by direction
	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionDecode, log.DirectionEncode} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-18s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	// Events by operation
	fmt.Fprintln(w, "Events by Operation:")
	for _, op := range []log.Operation{log.OperationNode, log.OperationTimestamped, log.OperationNodes, log.OperationTimestampedNodes, log.OperationPaths} {
		if count := stats.EventsByOperation[op]; count > 0 {
			fmt.Fprintf(w, "  %-18s %d\n", op.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	// Formats, in code order
	fmt.Fprintf(w, "Formats: %d\n", len(stats.Formats))
	formats := make([]codec.ContentFormat, 0, len(stats.Formats))
	for f := range stats.Formats {
		formats = append(formats, f)
	}
	slices.Sort(formats)
	for _, f := range formats {
		fs := stats.Formats[f]
		fmt.Fprintf(w, "  %-12s decoded %d, encoded %d, %d bytes, avg %s\n",
			f.String(), fs.Decoded, fs.Encoded, fs.Bytes, formatDuration(fs.AverageDuration()))
		if fs.Legacy > 0 {
			fmt.Fprintf(w, "               legacy code: %d\n", fs.Legacy)
		}
		if fs.Errors > 0 {
			fmt.Fprintf(w, "               errors: %d\n", fs.Errors)
		}
	}

	// Errors
	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
		kinds := make([]string, 0, len(stats.ErrorsByKind))
		for k := range stats.ErrorsByKind {
			kinds = append(kinds, k)
		}
		slices.Sort(kinds)
		for _, k := range kinds {
			fmt.Fprintf(w, "  %-18s %d\n", k+":", stats.ErrorsByKind[k])
		}
	}
}
