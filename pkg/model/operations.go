package model

import (
	"fmt"
	"strings"
)

// Operations are the operations a resource supports.
type Operations uint8

const (
	// OpRead allows reading the resource.
	OpRead Operations = 1 << iota

	// OpWrite allows writing the resource.
	OpWrite

	// OpExecute allows executing the resource.
	OpExecute

	// OpNone is a resource without operation, used by bootstrap-only
	// resources such as security keys.
	OpNone Operations = 0

	// OpReadWrite is read and write.
	OpReadWrite = OpRead | OpWrite
)

// CanRead returns true if reading is allowed.
func (o Operations) CanRead() bool { return o&OpRead != 0 }

// CanWrite returns true if writing is allowed.
func (o Operations) CanWrite() bool { return o&OpWrite != 0 }

// CanExecute returns true if executing is allowed.
func (o Operations) CanExecute() bool { return o&OpExecute != 0 }

// IsResource reports whether the resource holds a value. Executable
// resources do not.
func (o Operations) IsResource() bool { return !o.CanExecute() }

// String returns the operations in DDF notation: "R", "W", "RW", "E" or
// "NONE".
func (o Operations) String() string {
	var s string
	if o.CanRead() {
		s += "R"
	}
	if o.CanWrite() {
		s += "W"
	}
	if o.CanExecute() {
		s += "E"
	}
	if s == "" {
		return "NONE"
	}
	return s
}

// ParseOperations parses DDF notation. The empty string is OpNone.
func ParseOperations(s string) (Operations, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || s == "NONE" {
		return OpNone, nil
	}
	var o Operations
	for _, c := range s {
		switch c {
		case 'R':
			o |= OpRead
		case 'W':
			o |= OpWrite
		case 'E':
			o |= OpExecute
		default:
			return OpNone, fmt.Errorf("%w: %q", ErrInvalidOperations, s)
		}
	}
	if o.CanExecute() && o != OpExecute {
		return OpNone, fmt.Errorf("%w: %q mixes execute with read/write", ErrInvalidOperations, s)
	}
	return o, nil
}

// MarshalText implements encoding.TextMarshaler.
func (o Operations) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Operations) UnmarshalText(text []byte) error {
	parsed, err := ParseOperations(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
