package commands

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mash-protocol/lwm2m-go/pkg/codec"
	"github.com/mash-protocol/lwm2m-go/pkg/log"
)

// TraceFilterFlags holds the trace filter flags shared by the trace
// subcommands, as given on the command line.
type TraceFilterFlags struct {
	TraceID    string
	Direction  string
	Operation  string
	Format     string
	PathPrefix string
	ErrorsOnly bool
	TimeStart  string
	TimeEnd    string
}

// Filter converts the flags to a trace filter.
func (f TraceFilterFlags) Filter() (log.Filter, error) {
	filter := log.Filter{
		TraceID:    f.TraceID,
		PathPrefix: f.PathPrefix,
		ErrorsOnly: f.ErrorsOnly,
	}

	if f.Direction != "" {
		d, ok := log.ParseDirection(f.Direction)
		if !ok {
			return filter, fmt.Errorf("invalid direction: %s (must be decode or encode)", f.Direction)
		}
		filter.Direction = &d
	}

	if f.Operation != "" {
		o, ok := log.ParseOperation(f.Operation)
		if !ok {
			return filter, fmt.Errorf("invalid operation: %s (must be node, timestamped, nodes, timestamped_nodes or paths)", f.Operation)
		}
		filter.Operation = &o
	}

	if f.Format != "" {
		cf, err := codec.ParseContentFormat(f.Format)
		if err != nil {
			return filter, err
		}
		filter.Format = &cf
	}

	if f.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, f.TimeStart)
		if err != nil {
			return filter, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if f.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, f.TimeEnd)
		if err != nil {
			return filter, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}
	return filter, nil
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [trace:id] DIRECTION OPERATION FORMAT
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	status := "ok"
	if event.Failed() {
		status = "FAILED"
	}
	fmt.Fprintf(w, "%s [trace:%s] %-6s %s %s %s\n", ts, shortenTraceID(event.TraceID),
		event.Direction, event.Operation, event.Format, status)

	if event.Path != "" {
		fmt.Fprintf(w, "  Path: %s", event.Path)
		if event.RootPath != "" {
			fmt.Fprintf(w, " (root %s)", event.RootPath)
		}
		fmt.Fprintln(w)
	}
	if event.NodeKind != "" {
		fmt.Fprintf(w, "  Node: %s\n", event.NodeKind)
	}
	if event.Nodes > 0 || event.Timestamps > 0 {
		fmt.Fprintf(w, "  Nodes: %d  Timestamps: %d\n", event.Nodes, event.Timestamps)
	}
	fmt.Fprintf(w, "  Size: %d bytes\n", event.Size)
	if len(event.Payload) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(event.Payload))
		if event.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "  Duration: %s\n", formatDuration(event.Duration))
	if event.Error != nil {
		fmt.Fprintf(w, "  Error: %s (%s)\n", event.Error.Message, event.Error.Kind)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenTraceID returns the first 8 characters of the trace ID.
func shortenTraceID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// RunView executes the trace view command.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
	return nil
}

// parseList splits a comma separated flag value.
func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
