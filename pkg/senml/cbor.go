package senml

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"

	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

// cborRecord uses the integer labels of RFC 8428 section 6 and the
// "vlo" text label registered by LWM2M for object links.
type cborRecord struct {
	BaseName *string `cbor:"-2,keyasint,omitempty"`
	BaseTime any     `cbor:"-3,keyasint,omitempty"`
	Name     *string `cbor:"0,keyasint,omitempty"`
	Time     any     `cbor:"6,keyasint,omitempty"`
	Value    any     `cbor:"2,keyasint,omitempty"`
	String   *string `cbor:"3,keyasint,omitempty"`
	Bool     *bool   `cbor:"4,keyasint,omitempty"`
	Data     *[]byte `cbor:"8,keyasint,omitempty"`
	ObjLnk   *string `cbor:"vlo,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	// Struct field order is kept: base fields first, then the value.
	encOpts := cbor.EncOptions{
		ShortestFloat: cbor.ShortestFloat16,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create SenML CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthAllowed,
		BigIntDec:   cbor.BigIntDecodePointer,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create SenML CBOR decoder mode: %v", err))
	}
}

// UnmarshalCBOR decodes a SenML-CBOR pack. An empty payload is an empty
// pack.
func UnmarshalCBOR(data []byte) ([]Record, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var raw []cborRecord
	if err := decMode.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPack, err)
	}

	records := make([]Record, len(raw))
	for i, cr := range raw {
		r := Record{
			BaseName:    cr.BaseName,
			Name:        cr.Name,
			StringValue: cr.String,
			BoolValue:   cr.Bool,
			ObjLnkValue: cr.ObjLnk,
		}
		var err error
		if r.BaseTime, err = cborNumber(cr.BaseTime); err != nil {
			return nil, fmt.Errorf("%w: record %d: bt: %w", ErrInvalidPack, i, err)
		}
		if r.Time, err = cborNumber(cr.Time); err != nil {
			return nil, fmt.Errorf("%w: record %d: t: %w", ErrInvalidPack, i, err)
		}
		if r.NumberValue, err = cborNumber(cr.Value); err != nil {
			return nil, fmt.Errorf("%w: record %d: v: %w", ErrInvalidPack, i, err)
		}
		if cr.Data != nil {
			r.DataValue = *cr.Data
			if r.DataValue == nil {
				r.DataValue = []byte{}
			}
		}
		records[i] = r
	}
	if err := checkValues(records); err != nil {
		return nil, err
	}
	return records, nil
}

func cborNumber(v any) (*value.Number, error) {
	var n value.Number
	switch x := v.(type) {
	case nil:
		return nil, nil
	case uint64:
		n = value.NumberFromUint64(x)
	case int64:
		n = value.NumberFromInt64(x)
	case *big.Int:
		n = value.NumberFromBig(x)
	case big.Int:
		n = value.NumberFromBig(&x)
	case float64:
		f, err := value.NumberFromFloat64(x)
		if err != nil {
			return nil, err
		}
		n = f
	case float32:
		f, err := value.NumberFromFloat64(float64(x))
		if err != nil {
			return nil, err
		}
		n = f
	default:
		return nil, fmt.Errorf("number expected, got %T", v)
	}
	return &n, nil
}

// MarshalCBOR encodes records as a SenML-CBOR pack. Decimal numbers are
// written as the shortest float that keeps their float64 value, integers
// as CBOR integers.
func MarshalCBOR(records []Record) ([]byte, error) {
	if err := checkValues(records); err != nil {
		return nil, err
	}
	raw := make([]cborRecord, len(records))
	for i, r := range records {
		cr := cborRecord{
			BaseName: r.BaseName,
			Name:     r.Name,
			String:   r.StringValue,
			Bool:     r.BoolValue,
			ObjLnk:   r.ObjLnkValue,
			BaseTime: cborItem(r.BaseTime),
			Time:     cborItem(r.Time),
			Value:    cborItem(r.NumberValue),
		}
		if r.DataValue != nil {
			d := r.DataValue
			cr.Data = &d
		}
		raw[i] = cr
	}
	return encMode.Marshal(raw)
}

func cborItem(n *value.Number) any {
	if n == nil {
		return nil
	}
	if n.IsDecimal() || !n.IsInteger() {
		return n.Float64()
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if u, err := n.ULong(); err == nil {
		return u.Uint64()
	}
	return n.Float64()
}
