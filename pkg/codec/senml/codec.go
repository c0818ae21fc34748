// Package senml implements the LWM2M node codecs over SenML-JSON (110)
// and SenML-CBOR (112).
//
// Record names are resolved by concatenating the current base name and the
// record name. Times are the current base time plus the record time; a
// result below 2^28 is relative to now.
package senml

import (
	"time"

	"github.com/mash-protocol/lwm2m-go/pkg/codec"
	"github.com/mash-protocol/lwm2m-go/pkg/codec/basename"
	"github.com/mash-protocol/lwm2m-go/pkg/node"
	pack "github.com/mash-protocol/lwm2m-go/pkg/senml"
	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

// minAbsoluteTime is the smallest SenML time read as an absolute time
// (1978-07-04 21:24:16 UTC). Smaller times are relative to now.
const minAbsoluteTime = 1 << 28

// Codec is a SenML node codec bound to one pack representation.
type Codec struct {
	format    codec.ContentFormat
	unmarshal func([]byte) ([]pack.Record, error)
	marshal   func([]pack.Record) ([]byte, error)
}

// The two SenML representations.
var (
	JSON = Codec{format: codec.FormatSenMLJSON, unmarshal: pack.UnmarshalJSON, marshal: pack.MarshalJSON}
	CBOR = Codec{format: codec.FormatSenMLCBOR, unmarshal: pack.UnmarshalCBOR, marshal: pack.MarshalCBOR}
)

var (
	_ codec.NodeDecoder             = Codec{}
	_ codec.NodeEncoder             = Codec{}
	_ codec.TimestampedDecoder      = Codec{}
	_ codec.TimestampedEncoder      = Codec{}
	_ codec.MultiNodeDecoder        = Codec{}
	_ codec.MultiNodeEncoder        = Codec{}
	_ codec.TimestampedNodesDecoder = Codec{}
	_ codec.TimestampedNodesEncoder = Codec{}
	_ codec.PathDecoder             = Codec{}
	_ codec.PathEncoder             = Codec{}
)

// Format returns the content format of c.
func (c Codec) Format() codec.ContentFormat { return c.format }

type resolved struct {
	path node.Path
	ts   time.Time
	rec  pack.Record
}

func (c Codec) records(data []byte, p node.Path) ([]pack.Record, error) {
	records, err := c.unmarshal(data)
	if err != nil {
		return nil, codec.Errorf(c.format, p, codec.ErrMalformed, "%v", err)
	}
	return records, nil
}

// resolve applies base names and base times to records.
func (c Codec) resolve(records []pack.Record, target node.Path, opts codec.Options) ([]resolved, error) {
	now := opts.Now()
	var bn string
	var bt *value.Number

	out := make([]resolved, 0, len(records))
	for i, r := range records {
		if r.BaseName != nil {
			bn = *r.BaseName
		}
		if r.BaseTime != nil {
			bt = r.BaseTime
		}

		var n string
		if r.Name != nil {
			n = *r.Name
		}
		p, err := basename.Resolve(bn, n, opts.RootPath)
		if err != nil {
			return nil, codec.Errorf(c.format, target, codec.ErrInvalidContent, "record %d: invalid name %q with base name %q: %v", i, n, bn, err)
		}

		var ts time.Time
		if bt != nil || r.Time != nil {
			var t value.Number
			if bt != nil {
				t = *bt
			}
			if r.Time != nil {
				t = t.Add(*r.Time)
			}
			if t.Cmp(minAbsoluteTime) < 0 {
				ts = now.Add(t.Seconds()).UTC()
			} else {
				ts = t.Time()
			}
		}
		out = append(out, resolved{path: p, ts: ts, rec: r})
	}
	return out, nil
}

// recordValue returns the typed value of a data record. The model type
// wins; without one the type follows the value field.
func (c Codec) recordValue(r pack.Record, p node.Path, opts codec.Options) (value.Type, any, error) {
	if !r.HasValue() {
		return value.TypeNone, nil, codec.Errorf(c.format, p, codec.ErrMalformed, "record has no value")
	}
	if p.Depth() < 3 {
		return value.TypeNone, nil, codec.Errorf(c.format, p, codec.ErrInvalidContent, "value must address a resource or a resource instance")
	}
	typ, known := opts.ResourceType(p.ObjectID(), p.ResourceID())
	if !known {
		typ = guessType(r)
	}
	mismatch := func() (value.Type, any, error) {
		return value.TypeNone, nil, codec.Errorf(c.format, p, value.ErrTypeMismatch, "%s for a %s resource", r, typ)
	}

	switch typ {
	case value.TypeNone:
		return value.TypeNone, nil, codec.Errorf(c.format, p, codec.ErrUnknownType, "resource has no value type")

	case value.TypeInteger, value.TypeUnsigned, value.TypeFloat, value.TypeTime:
		if r.NumberValue == nil {
			return mismatch()
		}
		v, err := codec.NumberValue(*r.NumberValue, typ)
		if err != nil {
			return value.TypeNone, nil, codec.Errorf(c.format, p, err, "invalid %s value %s", typ, r.NumberValue)
		}
		return typ, v, nil

	case value.TypeBoolean:
		if r.BoolValue == nil {
			return mismatch()
		}
		return typ, *r.BoolValue, nil

	case value.TypeString:
		if r.StringValue == nil {
			return mismatch()
		}
		return typ, *r.StringValue, nil

	case value.TypeOpaque:
		if r.DataValue == nil {
			return mismatch()
		}
		return typ, r.DataValue, nil

	case value.TypeObjLnk:
		s := r.ObjLnkValue
		if s == nil {
			s = r.StringValue
		}
		if s == nil {
			return mismatch()
		}
		l, err := value.ParseObjectLink(*s)
		if err != nil {
			return value.TypeNone, nil, codec.Errorf(c.format, p, err, "invalid object link")
		}
		return typ, l, nil
	}
	return mismatch()
}

func guessType(r pack.Record) value.Type {
	switch {
	case r.NumberValue != nil:
		return codec.GuessNumberType(*r.NumberValue)
	case r.BoolValue != nil:
		return value.TypeBoolean
	case r.StringValue != nil:
		return value.TypeString
	case r.DataValue != nil:
		return value.TypeOpaque
	case r.ObjLnkValue != nil:
		return value.TypeObjLnk
	}
	return value.TypeNone
}

// leafRecord returns the record of one value, converted to the type the
// model declares.
func (c Codec) leafRecord(l node.Leaf, name string, opts codec.Options) (pack.Record, error) {
	var r pack.Record
	if name != "" {
		r.Name = &name
	}

	target := codec.DeclaredType(opts, l.Path, l.Type)
	v, err := codec.Coerce(c.format, l.Path, l.Value, l.Type, target)
	if err != nil {
		return r, err
	}

	switch target {
	case value.TypeString:
		s := v.(string)
		r.StringValue = &s
	case value.TypeBoolean:
		b := v.(bool)
		r.BoolValue = &b
	case value.TypeOpaque:
		r.DataValue = v.([]byte)
		if r.DataValue == nil {
			r.DataValue = []byte{}
		}
	case value.TypeObjLnk:
		s := v.(value.ObjectLink).String()
		r.ObjLnkValue = &s
	case value.TypeInteger:
		n := value.NumberFromInt64(v.(int64))
		r.NumberValue = &n
	case value.TypeUnsigned:
		n := value.NumberFromUint64(v.(value.ULong).Uint64())
		r.NumberValue = &n
	case value.TypeFloat:
		n, err := value.NumberFromFloat64(v.(float64))
		if err != nil {
			return r, codec.Errorf(c.format, l.Path, err, "unable to encode value")
		}
		r.NumberValue = &n
	case value.TypeTime:
		n := value.NumberFromInt64(v.(time.Time).Unix())
		r.NumberValue = &n
	default:
		return r, codec.Errorf(c.format, l.Path, codec.ErrUnknownType, "no value type for %s", l.Path)
	}
	return r, nil
}
