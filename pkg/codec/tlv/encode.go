package tlv

import (
	"github.com/mash-protocol/lwm2m-go/pkg/codec"
	"github.com/mash-protocol/lwm2m-go/pkg/node"
	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

// Encode encodes n, the node at path. An object instance is encoded as a
// bare list of resource TLVs when its id is undefined, and wrapped in an
// instance TLV otherwise. Values are converted to the model type when it
// differs from the node type.
func (Codec) Encode(n node.Node, path node.Path, opts codec.Options) ([]byte, error) {
	if err := node.ValidatePathForNode(path, n); err != nil {
		return nil, codec.Errorf(format, path, err, "node does not match path")
	}
	e := &encoder{opts: opts}

	var tlvs []TLV
	var err error
	switch x := n.(type) {
	case *node.Object:
		for _, oi := range x.Instances() {
			var t TLV
			if t, err = e.instance(path.ObjectID(), oi); err != nil {
				return nil, err
			}
			tlvs = append(tlvs, t)
		}
	case *node.ObjectInstance:
		if x.IsUndefined() {
			tlvs, err = e.resources(path, x)
		} else {
			var t TLV
			t, err = e.instance(path.ObjectID(), x)
			tlvs = []TLV{t}
		}
	case *node.SingleResource, *node.MultipleResource:
		var t TLV
		t, err = e.resource(path, x.(node.Resource))
		tlvs = []TLV{t}
	case *node.ResourceInstance:
		var t TLV
		t, err = e.resourceInstance(path, x)
		tlvs = []TLV{t}
	default:
		return nil, codec.Errorf(format, path, codec.ErrUnsupported, "tlv can not encode a %s", n.Kind())
	}
	if err != nil {
		return nil, err
	}

	out, err := Encode(tlvs)
	if err != nil {
		return nil, codec.Errorf(format, path, err, "unable to encode tlv")
	}
	return out, nil
}

// EncodeTimestampedData encodes a single node without timestamp.
func (c Codec) EncodeTimestampedData(nodes []node.TimestampedNode, path node.Path, opts codec.Options) ([]byte, error) {
	if len(nodes) != 1 || nodes[0].IsTimestamped() {
		return nil, codec.Errorf(format, path, codec.ErrUnsupported, "tlv can not encode timestamped values")
	}
	return c.Encode(nodes[0].Node, path, opts)
}

type encoder struct {
	opts codec.Options
}

func (e *encoder) instance(oid uint16, oi *node.ObjectInstance) (TLV, error) {
	ip, err := node.NewPath(int(oid), int(oi.ID()))
	if err != nil {
		return TLV{}, codec.Errorf(format, node.MustPath(int(oid)), err, "invalid instance")
	}
	children, err := e.resources(ip, oi)
	if err != nil {
		return TLV{}, err
	}
	return TLV{Type: TypeObjectInstance, ID: oi.ID(), Children: children}, nil
}

func (e *encoder) resources(ip node.Path, oi *node.ObjectInstance) ([]TLV, error) {
	out := make([]TLV, 0, oi.Len())
	for _, r := range oi.Resources() {
		rp := ip
		if !ip.HasUndefinedInstance() {
			rp = ip.Truncate(2)
			rp, _ = rp.Append(int(r.ID()))
		}
		t, err := e.resource(rp, r)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// resource encodes r, found at p. p is the instance path when the instance
// id is undefined.
func (e *encoder) resource(p node.Path, r node.Resource) (TLV, error) {
	target := codec.DeclaredType(e.opts, resourceTypePath(p, r.ID()), r.Type())
	if !r.IsMultiple() {
		b, err := e.value(p, r.Value(), r.Type(), target)
		if err != nil {
			return TLV{}, err
		}
		return TLV{Type: TypeResourceValue, ID: r.ID(), Value: b}, nil
	}
	instances := r.Instances()
	children := make([]TLV, 0, len(instances))
	for _, ri := range instances {
		b, err := e.value(p, ri.Value(), ri.Type(), target)
		if err != nil {
			return TLV{}, err
		}
		children = append(children, TLV{Type: TypeResourceInstance, ID: ri.ID(), Value: b})
	}
	return TLV{Type: TypeMultipleResource, ID: r.ID(), Children: children}, nil
}

func (e *encoder) resourceInstance(p node.Path, ri *node.ResourceInstance) (TLV, error) {
	target := codec.DeclaredType(e.opts, p, ri.Type())
	b, err := e.value(p, ri.Value(), ri.Type(), target)
	if err != nil {
		return TLV{}, err
	}
	return TLV{Type: TypeResourceInstance, ID: ri.ID(), Value: b}, nil
}

func (e *encoder) value(p node.Path, v any, from, to value.Type) ([]byte, error) {
	cv, err := codec.Coerce(format, p, v, from, to)
	if err != nil {
		return nil, err
	}
	b, err := EncodeValue(to, cv)
	if err != nil {
		return nil, codec.Errorf(format, p, err, "unable to encode value")
	}
	return b, nil
}

// resourceTypePath returns a path carrying the object and resource ids of
// resource rid under p, for model lookups.
func resourceTypePath(p node.Path, rid uint16) node.Path {
	if p.Depth() >= 3 {
		return p
	}
	q, err := node.NewPath(int(p.ObjectID()), 0, int(rid))
	if err != nil {
		return p
	}
	return q
}
