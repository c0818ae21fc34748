// Package tlv implements the LWM2M TLV content format (11542, and the
// pre-registration code 1542).
package tlv

import (
	"encoding/hex"
	"errors"

	"github.com/mash-protocol/lwm2m-go/pkg/codec"
	"github.com/mash-protocol/lwm2m-go/pkg/node"
	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

// Codec decodes and encodes TLV payloads. TLV carries no timestamps, so
// the timestamped variants only accept a single untimestamped node.
type Codec struct{}

var (
	_ codec.NodeDecoder        = Codec{}
	_ codec.NodeEncoder        = Codec{}
	_ codec.TimestampedDecoder = Codec{}
	_ codec.TimestampedEncoder = Codec{}
)

const format = codec.FormatTLV

// Decode decodes the node at path. Resources without a model type are
// decoded as OPAQUE.
func (Codec) Decode(data []byte, path node.Path, opts codec.Options) (node.Node, error) {
	tlvs, err := Decode(data)
	if err != nil {
		return nil, codec.Errorf(format, path, err, "unable to decode tlv")
	}
	opts.Log().Debug("tlv decode", "path", path.String(), "tlvs", len(tlvs))

	d := &decoder{opts: opts}
	switch path.Kind() {
	case node.KindObject:
		return d.object(tlvs, path)
	case node.KindObjectInstance:
		return d.instance(tlvs, path)
	case node.KindResource:
		return d.resource(tlvs, path)
	case node.KindResourceInstance:
		return d.resourceInstance(tlvs, path)
	}
	return nil, codec.Errorf(format, path, codec.ErrUnsupported, "tlv can not address the root")
}

// DecodeTimestampedData returns the decoded node without timestamp.
func (c Codec) DecodeTimestampedData(data []byte, path node.Path, opts codec.Options) ([]node.TimestampedNode, error) {
	n, err := c.Decode(data, path, opts)
	if err != nil {
		return nil, err
	}
	return []node.TimestampedNode{{Node: n}}, nil
}

type decoder struct {
	opts codec.Options
}

func (d *decoder) object(tlvs []TLV, path node.Path) (node.Node, error) {
	oid := path.ObjectID()
	if len(tlvs) > 0 && (tlvs[0].Type == TypeResourceValue || tlvs[0].Type == TypeMultipleResource) {
		// Resources without instance TLV: a single instance object, or a
		// CREATE payload without instance id.
		multiple, known := d.opts.IsMultipleObject(oid)
		var oi *node.ObjectInstance
		var err error
		switch {
		case !known:
			d.opts.Log().Warn("no model for object, decoding resources as instance 0", "object", oid)
			oi, err = d.resources(tlvs, node.MustPath(int(oid), 0))
		case !multiple:
			oi, err = d.resources(tlvs, node.MustPath(int(oid), 0))
		default:
			undefined, _ := node.NewUndefinedInstancePath(int(oid))
			oi, err = d.resources(tlvs, undefined)
		}
		if err != nil {
			return nil, err
		}
		return newObject(path, oi)
	}

	instances := make([]*node.ObjectInstance, 0, len(tlvs))
	for _, t := range tlvs {
		if t.Type != TypeObjectInstance {
			return nil, codec.Errorf(format, path, codec.ErrInvalidContent, "expected %s tlv, got %s", TypeObjectInstance, t.Type)
		}
		ip, err := path.Append(int(t.ID))
		if err != nil {
			return nil, codec.Errorf(format, path, err, "invalid instance tlv")
		}
		oi, err := d.resources(t.Children, ip)
		if err != nil {
			return nil, err
		}
		instances = append(instances, oi)
	}
	return newObject(path, instances...)
}

func newObject(path node.Path, instances ...*node.ObjectInstance) (node.Node, error) {
	o, err := node.NewObject(path.ObjectID(), instances...)
	if err != nil {
		return nil, codec.Errorf(format, path, err, "invalid object")
	}
	return o, nil
}

func (d *decoder) instance(tlvs []TLV, path node.Path) (node.Node, error) {
	if len(tlvs) == 1 && tlvs[0].Type == TypeObjectInstance {
		t := tlvs[0]
		if path.HasUndefinedInstance() {
			ip, err := node.NewPath(int(path.ObjectID()), int(t.ID))
			if err != nil {
				return nil, codec.Errorf(format, path, err, "invalid instance tlv")
			}
			return d.resources(t.Children, ip)
		}
		if t.ID != path.InstanceID() {
			return nil, codec.Errorf(format, path, node.ErrPathMismatch, "instance tlv has id %d", t.ID)
		}
		return d.resources(t.Children, path)
	}
	return d.resources(tlvs, path)
}

// resources decodes the resource TLVs of the instance at ip, which may
// have an undefined instance id.
func (d *decoder) resources(tlvs []TLV, ip node.Path) (*node.ObjectInstance, error) {
	resources := make([]node.Resource, 0, len(tlvs))
	for _, t := range tlvs {
		r, err := d.resourceTLV(t, ip.ObjectID(), ip)
		if err != nil {
			return nil, err
		}
		resources = append(resources, r)
	}
	var oi *node.ObjectInstance
	var err error
	if ip.HasUndefinedInstance() {
		oi, err = node.NewUndefinedObjectInstance(resources...)
	} else {
		oi, err = node.NewObjectInstance(ip.InstanceID(), resources...)
	}
	if err != nil {
		return nil, codec.Errorf(format, ip, err, "invalid object instance")
	}
	return oi, nil
}

func (d *decoder) resource(tlvs []TLV, path node.Path) (node.Node, error) {
	// An enclosing instance TLV is tolerated when its id matches.
	if len(tlvs) == 1 && tlvs[0].Type == TypeObjectInstance {
		if tlvs[0].ID != path.InstanceID() {
			return nil, codec.Errorf(format, path, node.ErrPathMismatch, "instance tlv has id %d", tlvs[0].ID)
		}
		tlvs = tlvs[0].Children
	}

	switch {
	case len(tlvs) == 0:
		return codec.EmptyNode(format, path, d.opts)
	case len(tlvs) == 1 && tlvs[0].Type != TypeResourceInstance:
		t := tlvs[0]
		if t.ID != path.ResourceID() {
			return nil, codec.Errorf(format, path, node.ErrPathMismatch, "resource tlv has id %d", t.ID)
		}
		return d.resourceTLV(t, path.ObjectID(), path.InstancePath())
	}
	return d.multiple(tlvs, path.ObjectID(), path.ResourceID(), path)
}

func (d *decoder) resourceInstance(tlvs []TLV, path node.Path) (node.Node, error) {
	if len(tlvs) != 1 {
		return nil, codec.Errorf(format, path, codec.ErrInvalidContent, "expected 1 resource instance tlv, got %d", len(tlvs))
	}
	t := tlvs[0]
	if t.Type != TypeResourceInstance {
		return nil, codec.Errorf(format, path, codec.ErrInvalidContent, "expected %s tlv, got %s", TypeResourceInstance, t.Type)
	}
	if t.ID != path.ResourceInstanceID() {
		return nil, codec.Errorf(format, path, node.ErrPathMismatch, "resource instance tlv has id %d", t.ID)
	}
	typ := d.resourceType(path.ObjectID(), path.ResourceID())
	v, err := d.value(t.Value, typ, path)
	if err != nil {
		return nil, err
	}
	ri, err := node.NewResourceInstance(t.ID, typ, v)
	if err != nil {
		return nil, codec.Errorf(format, path, err, "invalid resource instance")
	}
	return ri, nil
}

// resourceTLV decodes a resource value or multiple resource TLV found in
// the instance at ip.
func (d *decoder) resourceTLV(t TLV, oid uint16, ip node.Path) (node.Resource, error) {
	errPath := ip
	if !ip.HasUndefinedInstance() {
		errPath = ip.Truncate(2)
		if p, err := errPath.Append(int(t.ID)); err == nil {
			errPath = p
		}
	}

	typ := d.resourceType(oid, t.ID)
	switch t.Type {
	case TypeResourceValue:
		v, err := d.value(t.Value, typ, errPath)
		if err != nil {
			return nil, err
		}
		r, err := node.NewSingleResource(t.ID, typ, v)
		if err != nil {
			return nil, codec.Errorf(format, errPath, err, "invalid resource")
		}
		return r, nil
	case TypeMultipleResource:
		return d.multiple(t.Children, oid, t.ID, errPath)
	}
	return nil, codec.Errorf(format, errPath, codec.ErrInvalidContent, "invalid %s tlv for a resource", t.Type)
}

func (d *decoder) multiple(tlvs []TLV, oid, rid uint16, errPath node.Path) (node.Resource, error) {
	typ := d.resourceType(oid, rid)
	instances := make([]*node.ResourceInstance, 0, len(tlvs))
	for _, t := range tlvs {
		if t.Type != TypeResourceInstance {
			return nil, codec.Errorf(format, errPath, codec.ErrInvalidContent, "expected %s tlv, got %s", TypeResourceInstance, t.Type)
		}
		v, err := d.value(t.Value, typ, errPath)
		if err != nil {
			return nil, err
		}
		ri, err := node.NewResourceInstance(t.ID, typ, v)
		if err != nil {
			return nil, codec.Errorf(format, errPath, err, "invalid resource instance %d", t.ID)
		}
		instances = append(instances, ri)
	}
	r, err := node.NewMultipleResource(rid, typ, instances...)
	if err != nil {
		return nil, codec.Errorf(format, errPath, err, "invalid multiple resource")
	}
	return r, nil
}

func (d *decoder) resourceType(oid, rid uint16) value.Type {
	if t, ok := d.opts.ResourceType(oid, rid); ok {
		return t
	}
	return value.TypeOpaque
}

func (d *decoder) value(b []byte, typ value.Type, p node.Path) (any, error) {
	v, err := DecodeValue(typ, b)
	if errors.Is(err, ErrBooleanByte) && !d.opts.Strict {
		d.opts.Log().Warn("boolean value should be 0 or 1", "path", p.String(), "value", hex.EncodeToString(b))
		return false, nil
	}
	if err != nil {
		return nil, codec.Errorf(format, p, err, "invalid content %s for type %s", hex.EncodeToString(b), typ)
	}
	return v, nil
}
