package node

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

// SingleResource is a resource holding exactly one value.
type SingleResource struct {
	id  uint16
	typ value.Type
	val any
}

// NewSingleResource creates a single resource. v must be the Go
// representation of t (see package value).
func NewSingleResource(id uint16, t value.Type, v any) (*SingleResource, error) {
	if err := value.Check(t, v); err != nil {
		return nil, fmt.Errorf("resource %d: %w", id, err)
	}
	return &SingleResource{id: id, typ: t, val: cloneValue(v)}, nil
}

// MustSingleResource is like NewSingleResource but panics on error.
func MustSingleResource(id uint16, t value.Type, v any) *SingleResource {
	r, err := NewSingleResource(id, t, v)
	if err != nil {
		panic(err)
	}
	return r
}

func NewStringResource(id uint16, v string) *SingleResource {
	return &SingleResource{id: id, typ: value.TypeString, val: v}
}

func NewIntegerResource(id uint16, v int64) *SingleResource {
	return &SingleResource{id: id, typ: value.TypeInteger, val: v}
}

func NewUnsignedResource(id uint16, v value.ULong) *SingleResource {
	return &SingleResource{id: id, typ: value.TypeUnsigned, val: v}
}

func NewFloatResource(id uint16, v float64) *SingleResource {
	return &SingleResource{id: id, typ: value.TypeFloat, val: v}
}

func NewBooleanResource(id uint16, v bool) *SingleResource {
	return &SingleResource{id: id, typ: value.TypeBoolean, val: v}
}

func NewOpaqueResource(id uint16, v []byte) *SingleResource {
	return &SingleResource{id: id, typ: value.TypeOpaque, val: slices.Clone(nonNilBytes(v))}
}

func NewTimeResource(id uint16, v time.Time) *SingleResource {
	return &SingleResource{id: id, typ: value.TypeTime, val: v}
}

func NewObjLnkResource(id uint16, v value.ObjectLink) *SingleResource {
	return &SingleResource{id: id, typ: value.TypeObjLnk, val: v}
}

func (r *SingleResource) ID() uint16       { return r.id }
func (r *SingleResource) Kind() Kind       { return KindResource }
func (r *SingleResource) Type() value.Type { return r.typ }
func (r *SingleResource) IsMultiple() bool { return false }
func (*SingleResource) isNode()            {}

// Value returns the resource value. Opaque values must not be modified.
func (r *SingleResource) Value() any { return r.val }

// Instances panics: a single resource has no instances.
func (r *SingleResource) Instances() []*ResourceInstance {
	panic(fmt.Sprintf("lwm2m: Instances called on single resource %d", r.id))
}

// Instance panics: a single resource has no instances.
func (r *SingleResource) Instance(uint16) (*ResourceInstance, bool) {
	panic(fmt.Sprintf("lwm2m: Instance called on single resource %d", r.id))
}

func (r *SingleResource) String() string {
	return fmt.Sprintf("SingleResource{id=%d type=%s value=%s}", r.id, r.typ, formatValue(r.val))
}

// MultipleResource is a resource holding resource instances of one type.
type MultipleResource struct {
	id        uint16
	typ       value.Type
	instances children[*ResourceInstance]
}

// NewMultipleResource creates a multiple resource. Every instance must be of
// type t and instance ids must be unique. No instance gives an empty
// resource.
func NewMultipleResource(id uint16, t value.Type, instances ...*ResourceInstance) (*MultipleResource, error) {
	if t == value.TypeNone {
		return nil, fmt.Errorf("%w: multiple resource %d has no type", ErrInvalidNode, id)
	}
	for _, ri := range instances {
		if ri != nil && ri.typ != t {
			return nil, fmt.Errorf("%w: resource instance %d/%d is %s, resource is %s",
				value.ErrTypeMismatch, id, ri.id, ri.typ, t)
		}
	}
	c, err := newChildren(fmt.Sprintf("multiple resource %d", id), instances)
	if err != nil {
		return nil, err
	}
	return &MultipleResource{id: id, typ: t, instances: c}, nil
}

// NewMultipleResourceFromValues creates a multiple resource from an
// instance id to value map. Every value must be a non-nil t value.
func NewMultipleResourceFromValues(id uint16, t value.Type, values map[uint16]any) (*MultipleResource, error) {
	instances := make([]*ResourceInstance, 0, len(values))
	for riid, v := range values {
		ri, err := NewResourceInstance(riid, t, v)
		if err != nil {
			return nil, fmt.Errorf("multiple resource %d: %w", id, err)
		}
		instances = append(instances, ri)
	}
	return NewMultipleResource(id, t, instances...)
}

// MustMultipleResource is like NewMultipleResource but panics on error.
func MustMultipleResource(id uint16, t value.Type, instances ...*ResourceInstance) *MultipleResource {
	r, err := NewMultipleResource(id, t, instances...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *MultipleResource) ID() uint16       { return r.id }
func (r *MultipleResource) Kind() Kind       { return KindResource }
func (r *MultipleResource) Type() value.Type { return r.typ }
func (r *MultipleResource) IsMultiple() bool { return true }
func (*MultipleResource) isNode()            {}

// Value panics: a multiple resource has no single value.
func (r *MultipleResource) Value() any {
	panic(fmt.Sprintf("lwm2m: Value called on multiple resource %d", r.id))
}

func (r *MultipleResource) Instances() []*ResourceInstance { return r.instances.list() }

func (r *MultipleResource) Instance(id uint16) (*ResourceInstance, bool) {
	return r.instances.get(id)
}

// Len returns the number of resource instances.
func (r *MultipleResource) Len() int { return r.instances.len() }

// Values returns the instance values by instance id.
func (r *MultipleResource) Values() map[uint16]any {
	out := make(map[uint16]any, r.instances.len())
	for _, id := range r.instances.ids {
		out[id] = r.instances.byID[id].val
	}
	return out
}

func (r *MultipleResource) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "MultipleResource{id=%d type=%s values={", r.id, r.typ)
	for i, ri := range r.instances.list() {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d: %s", ri.id, formatValue(ri.val))
	}
	sb.WriteString("}}")
	return sb.String()
}

// ResourceInstance is one value of a multiple resource.
type ResourceInstance struct {
	id  uint16
	typ value.Type
	val any
}

// NewResourceInstance creates a resource instance. v must be the Go
// representation of t.
func NewResourceInstance(id uint16, t value.Type, v any) (*ResourceInstance, error) {
	if err := value.Check(t, v); err != nil {
		return nil, fmt.Errorf("resource instance %d: %w", id, err)
	}
	return &ResourceInstance{id: id, typ: t, val: cloneValue(v)}, nil
}

// MustResourceInstance is like NewResourceInstance but panics on error.
func MustResourceInstance(id uint16, t value.Type, v any) *ResourceInstance {
	ri, err := NewResourceInstance(id, t, v)
	if err != nil {
		panic(err)
	}
	return ri
}

func NewStringInstance(id uint16, v string) *ResourceInstance {
	return &ResourceInstance{id: id, typ: value.TypeString, val: v}
}

func NewIntegerInstance(id uint16, v int64) *ResourceInstance {
	return &ResourceInstance{id: id, typ: value.TypeInteger, val: v}
}

func NewUnsignedInstance(id uint16, v value.ULong) *ResourceInstance {
	return &ResourceInstance{id: id, typ: value.TypeUnsigned, val: v}
}

func NewFloatInstance(id uint16, v float64) *ResourceInstance {
	return &ResourceInstance{id: id, typ: value.TypeFloat, val: v}
}

func NewBooleanInstance(id uint16, v bool) *ResourceInstance {
	return &ResourceInstance{id: id, typ: value.TypeBoolean, val: v}
}

func NewOpaqueInstance(id uint16, v []byte) *ResourceInstance {
	return &ResourceInstance{id: id, typ: value.TypeOpaque, val: slices.Clone(nonNilBytes(v))}
}

func NewTimeInstance(id uint16, v time.Time) *ResourceInstance {
	return &ResourceInstance{id: id, typ: value.TypeTime, val: v}
}

func NewObjLnkInstance(id uint16, v value.ObjectLink) *ResourceInstance {
	return &ResourceInstance{id: id, typ: value.TypeObjLnk, val: v}
}

func (ri *ResourceInstance) ID() uint16       { return ri.id }
func (ri *ResourceInstance) Kind() Kind       { return KindResourceInstance }
func (ri *ResourceInstance) Type() value.Type { return ri.typ }
func (*ResourceInstance) isNode()             {}

// Value returns the instance value. Opaque values must not be modified.
func (ri *ResourceInstance) Value() any { return ri.val }

func (ri *ResourceInstance) String() string {
	return fmt.Sprintf("ResourceInstance{id=%d type=%s value=%s}", ri.id, ri.typ, formatValue(ri.val))
}

// cloneValue copies opaque values so callers can not mutate a node.
func cloneValue(v any) any {
	if b, ok := v.([]byte); ok {
		return slices.Clone(nonNilBytes(b))
	}
	return v
}

func nonNilBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
