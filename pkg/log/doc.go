// Package log records a machine-readable trace of codec calls.
//
// It is separate from operational logging (slog). Every encode or decode
// performed through a wire.Decoder or wire.Encoder can be reported as an
// Event carrying the content format, the target path, the payload (or its
// first bytes) and the outcome.
//
// # Basic Usage
//
//	// During development: trace to the console via slog
//	dec := wire.NewDecoder(wire.WithTraceLogger(log.NewSlogAdapter(slog.Default())))
//
//	// Keep a trace file for later inspection
//	fl, _ := log.NewFileLogger("codec.ltrace")
//	defer fl.Close()
//	enc := wire.NewEncoder(wire.WithTraceLogger(log.NewMultiLogger(fl, console)))
//
// # File Format
//
// Trace files are a sequence of CBOR-encoded events with integer keys,
// written in core deterministic order with tag 0 timestamps. The
// lwm2m-codec trace command reads and filters them.
package log
