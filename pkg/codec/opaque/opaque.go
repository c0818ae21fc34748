// Package opaque implements the opaque content format (42): the payload is
// the raw value of a single OPAQUE resource or resource instance.
package opaque

import (
	"github.com/mash-protocol/lwm2m-go/pkg/codec"
	"github.com/mash-protocol/lwm2m-go/pkg/node"
	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

const format = codec.FormatOpaque

type Codec struct{}

var (
	_ codec.NodeDecoder = Codec{}
	_ codec.NodeEncoder = Codec{}
)

func (Codec) Decode(data []byte, path node.Path, opts codec.Options) (node.Node, error) {
	if !path.IsResource() && !path.IsResourceInstance() {
		return nil, codec.Errorf(format, path, codec.ErrUnsupported, "opaque decodes a resource or a resource instance only")
	}
	if err := codec.CheckSingleValue(format, path, opts); err != nil {
		return nil, err
	}
	if t, ok := opts.ResourceType(path.ObjectID(), path.ResourceID()); ok && t != value.TypeOpaque {
		return nil, codec.Errorf(format, path, value.ErrTypeMismatch, "resource is %s, not OPAQUE", t)
	}

	if path.IsResource() {
		return node.NewOpaqueResource(path.ResourceID(), data), nil
	}
	return node.NewOpaqueInstance(path.ResourceInstanceID(), data), nil
}

func (Codec) Encode(n node.Node, path node.Path, opts codec.Options) ([]byte, error) {
	if err := node.ValidatePathForNode(path, n); err != nil {
		return nil, codec.Errorf(format, path, err, "node does not match path")
	}
	if err := codec.CheckSingleValue(format, path, opts); err != nil {
		return nil, err
	}

	var v any
	var typ value.Type
	switch x := n.(type) {
	case *node.SingleResource:
		typ, v = x.Type(), x.Value()
	case *node.ResourceInstance:
		typ, v = x.Type(), x.Value()
	default:
		return nil, codec.Errorf(format, path, codec.ErrUnsupported, "%s can not be encoded as opaque", describe(n))
	}
	if typ != value.TypeOpaque || codec.DeclaredType(opts, path, typ) != value.TypeOpaque {
		return nil, codec.Errorf(format, path, codec.ErrUnsupported, "only OPAQUE values can be encoded as opaque, got %s", typ)
	}
	return append([]byte{}, v.([]byte)...), nil
}

func describe(n node.Node) string {
	if r, ok := n.(node.Resource); ok && r.IsMultiple() {
		return "multiple resource"
	}
	return n.Kind().String()
}
