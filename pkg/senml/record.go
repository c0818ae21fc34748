// Package senml reads and writes Sensor Measurement Lists (RFC 8428) in
// their JSON and CBOR representations.
//
// The package only deals with the pack grammar: a pack is a list of
// records, each with optional base fields and at most one value. Resolving
// names against base names and times against base times is left to the
// caller.
package senml

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

var (
	// ErrInvalidPack is returned for payloads that are not a SenML pack.
	ErrInvalidPack = errors.New("invalid senml pack")

	// ErrMultipleValues is returned for a record with more than one value
	// field.
	ErrMultipleValues = errors.New("record has more than one value")

	// ErrNoValue is returned by Validate for a record without value.
	ErrNoValue = errors.New("record has no value")
)

// Record is one SenML record. Absent fields are nil.
type Record struct {
	BaseName *string
	BaseTime *value.Number
	Name     *string
	Time     *value.Number

	NumberValue *value.Number // v
	StringValue *string       // vs
	BoolValue   *bool         // vb
	DataValue   []byte        // vd
	ObjLnkValue *string       // vlo
}

// ValueCount returns the number of value fields present.
func (r Record) ValueCount() int {
	n := 0
	if r.NumberValue != nil {
		n++
	}
	if r.StringValue != nil {
		n++
	}
	if r.BoolValue != nil {
		n++
	}
	if r.DataValue != nil {
		n++
	}
	if r.ObjLnkValue != nil {
		n++
	}
	return n
}

// HasValue reports whether the record carries a value.
func (r Record) HasValue() bool { return r.ValueCount() > 0 }

// Validate checks that the record has exactly one value.
func (r Record) Validate() error {
	switch r.ValueCount() {
	case 0:
		return ErrNoValue
	case 1:
		return nil
	}
	return ErrMultipleValues
}

func (r Record) String() string {
	var parts []string
	add := func(k, v string) { parts = append(parts, k+"="+v) }
	if r.BaseName != nil {
		add("bn", *r.BaseName)
	}
	if r.BaseTime != nil {
		add("bt", r.BaseTime.String())
	}
	if r.Name != nil {
		add("n", *r.Name)
	}
	if r.Time != nil {
		add("t", r.Time.String())
	}
	if r.NumberValue != nil {
		add("v", r.NumberValue.Literal())
	}
	if r.StringValue != nil {
		add("vs", fmt.Sprintf("%q", *r.StringValue))
	}
	if r.BoolValue != nil {
		add("vb", fmt.Sprint(*r.BoolValue))
	}
	if r.DataValue != nil {
		add("vd", fmt.Sprintf("%x", r.DataValue))
	}
	if r.ObjLnkValue != nil {
		add("vlo", *r.ObjLnkValue)
	}
	return "Record{" + strings.Join(parts, " ") + "}"
}

// checkValues rejects records with several values.
func checkValues(records []Record) error {
	for i, r := range records {
		if r.ValueCount() > 1 {
			return fmt.Errorf("%w: record %d: %w", ErrInvalidPack, i, ErrMultipleValues)
		}
	}
	return nil
}
