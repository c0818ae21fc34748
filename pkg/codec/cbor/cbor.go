// Package cbor implements the plain CBOR content format (60): a single
// resource or resource instance value encoded as one CBOR data item.
//
// Value mapping:
//
//	STRING    text string
//	INTEGER   integer
//	UNSIGNED  unsigned integer
//	FLOAT     float (integers are accepted, rounded to float64)
//	BOOLEAN   simple value true/false
//	OPAQUE    byte string
//	TIME      tag 1 epoch seconds (tag 0 RFC 3339 is accepted)
//	OBJLNK    text string "objectId:instanceId"
package cbor

import (
	"fmt"
	"math"
	"math/big"
	"time"

	cborlib "github.com/fxamacker/cbor/v2"

	"github.com/mash-protocol/lwm2m-go/pkg/codec"
	"github.com/mash-protocol/lwm2m-go/pkg/node"
	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

const format = codec.FormatCBOR

var (
	encMode cborlib.EncMode
	decMode cborlib.DecMode
)

func init() {
	var err error

	encOpts := cborlib.EncOptions{
		Sort:          cborlib.SortCanonical,
		ShortestFloat: cborlib.ShortestFloat16,
		IndefLength:   cborlib.IndefLengthForbidden,
		Time:          cborlib.TimeUnix,
		TimeTag:       cborlib.EncTagRequired,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	decOpts := cborlib.DecOptions{
		IndefLength: cborlib.IndefLengthAllowed,
		TimeTag:     cborlib.DecTagOptional,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Codec decodes and encodes single CBOR values.
type Codec struct{}

var (
	_ codec.NodeDecoder = Codec{}
	_ codec.NodeEncoder = Codec{}
)

// Decode decodes the value at path. Without a model the type is guessed
// from the CBOR item.
func (Codec) Decode(data []byte, path node.Path, opts codec.Options) (node.Node, error) {
	if !path.IsResource() && !path.IsResourceInstance() {
		return nil, codec.Errorf(format, path, codec.ErrUnsupported, "cbor decodes a resource or a resource instance only")
	}
	if err := codec.CheckSingleValue(format, path, opts); err != nil {
		return nil, err
	}

	var item any
	if err := decMode.Unmarshal(data, &item); err != nil {
		return nil, codec.Errorf(format, path, codec.ErrMalformed, "unable to parse cbor value: %v", err)
	}

	typ, ok := opts.ResourceType(path.ObjectID(), path.ResourceID())
	if !ok {
		var err error
		if typ, err = guessType(item); err != nil {
			return nil, codec.Errorf(format, path, codec.ErrUnknownType, "%v", err)
		}
		opts.Log().Debug("cbor value decoded without model", "path", path.String(), "type", typ.String())
	}

	v, err := toValue(item, typ)
	if err != nil {
		return nil, codec.Errorf(format, path, err, "unable to convert cbor %T to %s", item, typ)
	}

	if path.IsResource() {
		r, err := node.NewSingleResource(path.ResourceID(), typ, v)
		if err != nil {
			return nil, codec.Errorf(format, path, err, "invalid resource")
		}
		return r, nil
	}
	ri, err := node.NewResourceInstance(path.ResourceInstanceID(), typ, v)
	if err != nil {
		return nil, codec.Errorf(format, path, err, "invalid resource instance")
	}
	return ri, nil
}

// Encode encodes a single resource or resource instance, converted to the
// model type first.
func (Codec) Encode(n node.Node, path node.Path, opts codec.Options) ([]byte, error) {
	if err := node.ValidatePathForNode(path, n); err != nil {
		return nil, codec.Errorf(format, path, err, "node does not match path")
	}
	if err := codec.CheckSingleValue(format, path, opts); err != nil {
		return nil, err
	}

	var typ value.Type
	var v any
	switch x := n.(type) {
	case *node.SingleResource:
		typ, v = x.Type(), x.Value()
	case *node.ResourceInstance:
		typ, v = x.Type(), x.Value()
	case *node.MultipleResource:
		return nil, codec.Errorf(format, path, codec.ErrUnsupported, "multiple resource can not be encoded in cbor")
	default:
		return nil, codec.Errorf(format, path, codec.ErrUnsupported, "%s can not be encoded in cbor", n.Kind())
	}

	target := codec.DeclaredType(opts, path, typ)
	cv, err := codec.Coerce(format, path, v, typ, target)
	if err != nil {
		return nil, err
	}

	var item any
	switch target {
	case value.TypeUnsigned:
		item = uint64(cv.(value.ULong))
	case value.TypeObjLnk:
		item = cv.(value.ObjectLink).String()
	case value.TypeTime:
		item = cv.(time.Time).Truncate(time.Second)
	default:
		item = cv
	}
	out, err := encMode.Marshal(item)
	if err != nil {
		return nil, codec.Errorf(format, path, err, "unable to encode cbor value")
	}
	return out, nil
}

func guessType(item any) (value.Type, error) {
	switch x := item.(type) {
	case bool:
		return value.TypeBoolean, nil
	case float64, float32:
		return value.TypeFloat, nil
	case int64:
		return value.TypeInteger, nil
	case uint64:
		if x > math.MaxInt64 {
			return value.TypeUnsigned, nil
		}
		return value.TypeInteger, nil
	case string:
		return value.TypeString, nil
	case []byte:
		return value.TypeOpaque, nil
	case time.Time:
		return value.TypeTime, nil
	case cborlib.Tag:
		if x.Number == 0 || x.Number == 1 {
			return value.TypeTime, nil
		}
	}
	return value.TypeNone, fmt.Errorf("no lwm2m type for cbor item %T", item)
}

// toValue converts a decoded CBOR item to a value of type t. The CBOR
// major type must match t.
func toValue(item any, t value.Type) (any, error) {
	mismatch := fmt.Errorf("%w: cbor %T for %s", value.ErrTypeMismatch, item, t)

	switch t {
	case value.TypeString:
		if s, ok := item.(string); ok {
			return s, nil
		}
	case value.TypeBoolean:
		if b, ok := item.(bool); ok {
			return b, nil
		}
	case value.TypeOpaque:
		if b, ok := item.([]byte); ok {
			return b, nil
		}
	case value.TypeObjLnk:
		if s, ok := item.(string); ok {
			return value.ParseObjectLink(s)
		}
	case value.TypeInteger, value.TypeUnsigned:
		n, ok := integer(item)
		if !ok {
			return nil, mismatch
		}
		return codec.NumberValue(n, t)
	case value.TypeFloat:
		switch x := item.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		}
		if n, ok := integer(item); ok {
			return n.Float64(), nil
		}
	case value.TypeTime:
		return toTime(item)
	}
	return nil, mismatch
}

func integer(item any) (value.Number, bool) {
	switch x := item.(type) {
	case int64:
		return value.NumberFromInt64(x), true
	case uint64:
		return value.NumberFromUint64(x), true
	case big.Int:
		return value.NumberFromBig(&x), true
	case *big.Int:
		return value.NumberFromBig(x), true
	}
	return value.Number{}, false
}

func toTime(item any) (time.Time, error) {
	switch x := item.(type) {
	case time.Time:
		return x.UTC(), nil
	case cborlib.Tag:
		switch x.Number {
		case 0:
			if s, ok := x.Content.(string); ok {
				return time.Parse(time.RFC3339, s)
			}
		case 1:
			return toTime(x.Content)
		}
	case int64:
		return time.Unix(x, 0).UTC(), nil
	case uint64:
		if x <= math.MaxInt64 {
			return time.Unix(int64(x), 0).UTC(), nil
		}
	case float64:
		sec, frac := math.Modf(x)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: cbor %T for TIME", value.ErrTypeMismatch, item)
}
