package commands

import (
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mash-protocol/lwm2m-go/pkg/log"
)

// RunExport exports the trace file to the specified format.
func RunExport(path, format, output string, filter log.Filter) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	// Determine output writer
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

// jsonEvent is the JSON form of an event, with names instead of codes.
type jsonEvent struct {
	Timestamp  string `json:"timestamp"`
	TraceID    string `json:"trace_id"`
	Direction  string `json:"direction"`
	Operation  string `json:"operation"`
	Format     string `json:"format"`
	FormatCode int    `json:"format_code"`
	Path       string `json:"path,omitempty"`
	RootPath   string `json:"root_path,omitempty"`
	Size       int    `json:"size"`
	Payload    string `json:"payload,omitempty"`
	Truncated  bool   `json:"truncated,omitempty"`
	NodeKind   string `json:"node_kind,omitempty"`
	Nodes      int    `json:"nodes,omitempty"`
	Timestamps int    `json:"timestamps,omitempty"`
	DurationNS int64  `json:"duration_ns"`
	Error      string `json:"error,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty"`
}

func toJSONEvent(e log.Event) jsonEvent {
	je := jsonEvent{
		Timestamp:  e.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		TraceID:    e.TraceID,
		Direction:  e.Direction.String(),
		Operation:  e.Operation.String(),
		Format:     e.Format.String(),
		FormatCode: int(e.Format),
		Path:       e.Path,
		RootPath:   e.RootPath,
		Size:       e.Size,
		Payload:    hex.EncodeToString(e.Payload),
		Truncated:  e.Truncated,
		NodeKind:   e.NodeKind,
		Nodes:      e.Nodes,
		Timestamps: e.Timestamps,
		DurationNS: e.Duration.Nanoseconds(),
	}
	if e.Error != nil {
		je.Error = e.Error.Message
		je.ErrorKind = e.Error.Kind
	}
	return je
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(toJSONEvent(event)); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	// Write header
	header := []string{"timestamp", "trace_id", "direction", "operation", "format", "path", "size", "node_kind", "duration_ns", "error_kind"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		je := toJSONEvent(event)
		row := []string{
			je.Timestamp,
			je.TraceID,
			je.Direction,
			je.Operation,
			je.Format,
			je.Path,
			strconv.Itoa(je.Size),
			je.NodeKind,
			strconv.FormatInt(je.DurationNS, 10),
			je.ErrorKind,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return cw.Error()
}
