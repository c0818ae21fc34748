// Package text implements the plain text content format (0). A payload is
// the string form of a single resource or resource instance value.
package text

import (
	"encoding/base64"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/mash-protocol/lwm2m-go/pkg/codec"
	"github.com/mash-protocol/lwm2m-go/pkg/node"
	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

const format = codec.FormatText

// Codec decodes and encodes plain text values.
type Codec struct{}

var (
	_ codec.NodeDecoder        = Codec{}
	_ codec.NodeEncoder        = Codec{}
	_ codec.TimestampedDecoder = Codec{}
	_ codec.TimestampedEncoder = Codec{}
)

// Decode decodes the value at path, a resource or resource instance path.
// Resources missing from the model are decoded as strings.
func (Codec) Decode(data []byte, path node.Path, opts codec.Options) (node.Node, error) {
	if !path.IsResource() && !path.IsResourceInstance() {
		return nil, codec.Errorf(format, path, codec.ErrUnsupported, "text decodes a resource or a resource instance only")
	}
	if err := codec.CheckSingleValue(format, path, opts); err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, codec.Errorf(format, path, codec.ErrMalformed, "payload is not valid UTF-8")
	}
	s := string(data)

	typ, ok := opts.ResourceType(path.ObjectID(), path.ResourceID())
	if !ok {
		typ = value.TypeString
	}
	v, err := Parse(s, typ)
	if err != nil {
		return nil, codec.Errorf(format, path, err, "invalid value %q for %s resource", s, typ)
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

// DecodeTimestampedData returns the decoded value without timestamp.
func (c Codec) DecodeTimestampedData(data []byte, path node.Path, opts codec.Options) ([]node.TimestampedNode, error) {
	n, err := c.Decode(data, path, opts)
	if err != nil {
		return nil, err
	}
	return []node.TimestampedNode{{Node: n}}, nil
}

// Encode encodes a single resource or a resource instance, converted to
// the model type first.
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
		return nil, codec.Errorf(format, path, codec.ErrUnsupported, "multiple resource can not be encoded in text")
	default:
		return nil, codec.Errorf(format, path, codec.ErrUnsupported, "%s can not be encoded in text", n.Kind())
	}

	target := codec.DeclaredType(opts, path, typ)
	cv, err := codec.Coerce(format, path, v, typ, target)
	if err != nil {
		return nil, err
	}
	s, err := Format(target, cv)
	if err != nil {
		return nil, codec.Errorf(format, path, err, "unable to encode value")
	}
	return []byte(s), nil
}

// EncodeTimestampedData encodes a single node without timestamp.
func (c Codec) EncodeTimestampedData(nodes []node.TimestampedNode, path node.Path, opts codec.Options) ([]byte, error) {
	if len(nodes) != 1 || nodes[0].IsTimestamped() {
		return nil, codec.Errorf(format, path, codec.ErrUnsupported, "text can not encode timestamped values")
	}
	return c.Encode(nodes[0].Node, path, opts)
}

// Parse parses the text form of a value of type t. Booleans are "0" or
// "1", times are epoch seconds and opaque values are padded base64.
func Parse(s string, t value.Type) (any, error) {
	switch t {
	case value.TypeString:
		return s, nil
	case value.TypeInteger:
		return strconv.ParseInt(s, 10, 64)
	case value.TypeUnsigned:
		return value.ParseULong(s)
	case value.TypeFloat:
		return strconv.ParseFloat(s, 64)
	case value.TypeBoolean:
		switch s {
		case "0":
			return false, nil
		case "1":
			return true, nil
		}
		return nil, value.ErrTypeMismatch
	case value.TypeTime:
		secs, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		return time.Unix(secs, 0).UTC(), nil
	case value.TypeObjLnk:
		return value.ParseObjectLink(s)
	case value.TypeOpaque:
		return base64.StdEncoding.DecodeString(s)
	}
	return nil, value.ErrUnknownType
}

// Format returns the text form of v, a value of type t.
func Format(t value.Type, v any) (string, error) {
	if err := value.Check(t, v); err != nil {
		return "", err
	}
	switch t {
	case value.TypeString:
		return v.(string), nil
	case value.TypeBoolean:
		if v.(bool) {
			return "1", nil
		}
		return "0", nil
	case value.TypeObjLnk:
		return v.(value.ObjectLink).String(), nil
	case value.TypeOpaque:
		return base64.StdEncoding.EncodeToString(v.([]byte)), nil
	}
	return codec.FormatNumber(t, v)
}
