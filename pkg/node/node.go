package node

import (
	"bytes"
	"fmt"
	"slices"
	"time"

	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

// Kind identifies a node variant, and the level a Path addresses.
type Kind uint8

const (
	KindRoot Kind = iota
	KindObject
	KindObjectInstance
	KindResource
	KindResourceInstance
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindObject:
		return "object"
	case KindObjectInstance:
		return "object instance"
	case KindResource:
		return "resource"
	case KindResourceInstance:
		return "resource instance"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Kind returns the kind of node p addresses.
func (p Path) Kind() Kind {
	return Kind(p.depth)
}

// Node is a node of the resource tree. The variant set is closed:
// *Root, *Object, *ObjectInstance, *SingleResource, *MultipleResource and
// *ResourceInstance. Use a type switch to dispatch on it.
type Node interface {
	// ID returns the node id. The root has id 0.
	ID() uint16

	// Kind returns the tree level of the node.
	Kind() Kind

	String() string

	isNode()
}

// Resource is a single or multiple resource.
type Resource interface {
	Node

	// Type returns the declared value type.
	Type() value.Type

	// IsMultiple reports whether the resource holds resource instances.
	IsMultiple() bool

	// Value returns the value of a single resource. It panics on a
	// multiple resource.
	Value() any

	// Instances returns the resource instances ordered by id. It panics on a
	// single resource.
	Instances() []*ResourceInstance

	// Instance returns one resource instance. It panics on a single resource.
	Instance(id uint16) (*ResourceInstance, bool)
}

// children keeps child nodes by id, with ids sorted.
type children[T Node] struct {
	ids  []uint16
	byID map[uint16]T
}

func newChildren[T Node](parent string, nodes []T) (children[T], error) {
	c := children[T]{
		ids:  make([]uint16, 0, len(nodes)),
		byID: make(map[uint16]T, len(nodes)),
	}
	for _, n := range nodes {
		if isNil(n) {
			return children[T]{}, fmt.Errorf("%w: nil child in %s", ErrInvalidNode, parent)
		}
		if _, dup := c.byID[n.ID()]; dup {
			return children[T]{}, fmt.Errorf("%w: %s has two children with id %d", ErrDuplicateID, parent, n.ID())
		}
		c.byID[n.ID()] = n
		c.ids = append(c.ids, n.ID())
	}
	slices.Sort(c.ids)
	return c, nil
}

// isNil reports whether n is nil or a typed nil pointer.
func isNil(n Node) bool {
	switch x := n.(type) {
	case nil:
		return true
	case *Root:
		return x == nil
	case *Object:
		return x == nil
	case *ObjectInstance:
		return x == nil
	case *SingleResource:
		return x == nil
	case *MultipleResource:
		return x == nil
	case *ResourceInstance:
		return x == nil
	}
	return false
}

func (c children[T]) get(id uint16) (T, bool) {
	n, ok := c.byID[id]
	return n, ok
}

func (c children[T]) list() []T {
	out := make([]T, len(c.ids))
	for i, id := range c.ids {
		out[i] = c.byID[id]
	}
	return out
}

func (c children[T]) len() int { return len(c.ids) }

func (c children[T]) equal(o children[T]) bool {
	if !slices.Equal(c.ids, o.ids) {
		return false
	}
	for _, id := range c.ids {
		if !Equal(c.byID[id], o.byID[id]) {
			return false
		}
	}
	return true
}

// Equal reports whether two nodes are structurally equal: same variant,
// ids, types, values and children.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *Root:
		y, ok := b.(*Root)
		return ok && x.objects.equal(y.objects)
	case *Object:
		y, ok := b.(*Object)
		return ok && x.id == y.id && x.instances.equal(y.instances)
	case *ObjectInstance:
		y, ok := b.(*ObjectInstance)
		return ok && x.id == y.id && x.resources.equal(y.resources)
	case *SingleResource:
		y, ok := b.(*SingleResource)
		return ok && x.id == y.id && x.typ == y.typ && valuesEqual(x.val, y.val)
	case *MultipleResource:
		y, ok := b.(*MultipleResource)
		return ok && x.id == y.id && x.typ == y.typ && x.instances.equal(y.instances)
	case *ResourceInstance:
		y, ok := b.(*ResourceInstance)
		return ok && x.id == y.id && x.typ == y.typ && valuesEqual(x.val, y.val)
	}
	return false
}

func valuesEqual(a, b any) bool {
	switch x := a.(type) {
	case []byte:
		y, ok := b.([]byte)
		return ok && bytes.Equal(x, y)
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	}
	return a == b
}

// formatValue renders a value for String methods.
func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return fmt.Sprintf("%q", x)
	case []byte:
		return fmt.Sprintf("0x%X", x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}
