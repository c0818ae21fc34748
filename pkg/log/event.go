package log

import (
	"strings"
	"time"

	"github.com/mash-protocol/lwm2m-go/pkg/codec"
)

// MaxPayload is the number of payload bytes kept in an event.
const MaxPayload = 256

// Event is one traced codec call.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the call started (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// TraceID identifies the call (UUID).
	TraceID string `cbor:"2,keyasint"`

	Direction Direction `cbor:"3,keyasint"`
	Operation Operation `cbor:"4,keyasint"`

	// Format is the content format as requested by the caller, legacy
	// codes included.
	Format codec.ContentFormat `cbor:"5,keyasint"`

	// Path is the target path, or the comma separated target paths of a
	// multi-node call.
	Path     string `cbor:"6,keyasint,omitempty"`
	RootPath string `cbor:"7,keyasint,omitempty"`

	// Size is the payload size in bytes.
	Size int `cbor:"8,keyasint"`

	// Payload holds the first MaxPayload bytes of the payload.
	Payload   []byte `cbor:"9,keyasint,omitempty"`
	Truncated bool   `cbor:"10,keyasint,omitempty"`

	// NodeKind is the kind of the decoded or encoded node.
	NodeKind string `cbor:"11,keyasint,omitempty"`

	// Nodes counts the nodes or paths of multi-node calls.
	Nodes int `cbor:"12,keyasint,omitempty"`

	// Timestamps counts the timestamp groups of timestamped calls.
	Timestamps int `cbor:"13,keyasint,omitempty"`

	Duration time.Duration `cbor:"14,keyasint,omitempty"`

	Error *ErrorData `cbor:"15,keyasint,omitempty"`
}

// Failed reports whether the call returned an error.
func (e Event) Failed() bool { return e.Error != nil }

// SetPayload stores a copy of the first MaxPayload bytes of data.
func (e *Event) SetPayload(data []byte) {
	e.Size = len(data)
	e.Truncated = len(data) > MaxPayload
	n := min(len(data), MaxPayload)
	if n == 0 {
		e.Payload = nil
		return
	}
	e.Payload = append([]byte(nil), data[:n]...)
}

// Direction tells whether a payload was decoded or encoded.
type Direction uint8

const (
	DirectionDecode Direction = 0
	DirectionEncode Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionDecode:
		return "DECODE"
	case DirectionEncode:
		return "ENCODE"
	default:
		return "UNKNOWN"
	}
}

// ParseDirection parses a direction name, case-insensitively.
func ParseDirection(s string) (Direction, bool) {
	switch upper(s) {
	case "DECODE", "IN":
		return DirectionDecode, true
	case "ENCODE", "OUT":
		return DirectionEncode, true
	}
	return 0, false
}

// Operation is the codec entry point that was called.
type Operation uint8

const (
	// OperationNode is a single node at one path.
	OperationNode Operation = 0
	// OperationTimestamped is a history of one node.
	OperationTimestamped Operation = 1
	// OperationNodes is a set of nodes at several paths.
	OperationNodes Operation = 2
	// OperationTimestampedNodes is a history of several paths.
	OperationTimestampedNodes Operation = 3
	// OperationPaths is a path list.
	OperationPaths Operation = 4
)

var operationNames = [...]string{
	OperationNode:             "NODE",
	OperationTimestamped:      "TIMESTAMPED",
	OperationNodes:            "NODES",
	OperationTimestampedNodes: "TIMESTAMPED_NODES",
	OperationPaths:            "PATHS",
}

// String returns the operation name.
func (o Operation) String() string {
	if int(o) < len(operationNames) {
		return operationNames[o]
	}
	return "UNKNOWN"
}

// ParseOperation parses an operation name, case-insensitively.
func ParseOperation(s string) (Operation, bool) {
	u := upper(s)
	for i, name := range operationNames {
		if name == u {
			return Operation(i), true
		}
	}
	return 0, false
}

// ErrorData describes a failed call.
type ErrorData struct {
	Message string `cbor:"1,keyasint"`

	// Kind classifies the error ("malformed", "type_mismatch", ...).
	Kind string `cbor:"2,keyasint,omitempty"`
}

func upper(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
}
