package log

import (
	"context"
	"encoding/hex"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger at Debug level, or at
// Warn level for failed calls.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter returns a SlogAdapter writing to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("trace_id", event.TraceID),
		slog.String("direction", event.Direction.String()),
		slog.String("operation", event.Operation.String()),
		slog.String("format", event.Format.String()),
		slog.Int("size", event.Size),
	}
	if event.Path != "" {
		attrs = append(attrs, slog.String("path", event.Path))
	}
	if event.RootPath != "" {
		attrs = append(attrs, slog.String("root_path", event.RootPath))
	}
	if event.NodeKind != "" {
		attrs = append(attrs, slog.String("node_kind", event.NodeKind))
	}
	if event.Nodes > 0 {
		attrs = append(attrs, slog.Int("nodes", event.Nodes))
	}
	if event.Timestamps > 0 {
		attrs = append(attrs, slog.Int("timestamps", event.Timestamps))
	}
	if len(event.Payload) > 0 {
		attrs = append(attrs,
			slog.String("payload", hex.EncodeToString(event.Payload)),
			slog.Bool("truncated", event.Truncated),
		)
	}
	if event.Duration > 0 {
		attrs = append(attrs, slog.Duration("duration", event.Duration))
	}

	level := slog.LevelDebug
	if event.Error != nil {
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("error", event.Error.Message),
			slog.String("error_kind", event.Error.Kind),
		)
	}
	a.logger.LogAttrs(context.Background(), level, "codec", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
