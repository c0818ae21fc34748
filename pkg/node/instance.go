package node

import (
	"fmt"
	"strings"
)

// ObjectInstance holds the resources of one instance of an object.
type ObjectInstance struct {
	id        uint16
	resources children[Resource]
}

// NewObjectInstance creates an object instance. Resource ids must be unique.
// Use NewUndefinedObjectInstance when the id is not known.
func NewObjectInstance(id uint16, resources ...Resource) (*ObjectInstance, error) {
	if id == UndefinedInstanceID {
		return nil, fmt.Errorf("%w: instance id %d is reserved", ErrInvalidNode, id)
	}
	return newObjectInstance(id, resources)
}

// NewUndefinedObjectInstance creates an object instance without id, as sent
// in a CREATE request where the client picks the id.
func NewUndefinedObjectInstance(resources ...Resource) (*ObjectInstance, error) {
	return newObjectInstance(UndefinedInstanceID, resources)
}

// MustObjectInstance is like NewObjectInstance but panics on error.
func MustObjectInstance(id uint16, resources ...Resource) *ObjectInstance {
	oi, err := NewObjectInstance(id, resources...)
	if err != nil {
		panic(err)
	}
	return oi
}

func newObjectInstance(id uint16, resources []Resource) (*ObjectInstance, error) {
	c, err := newChildren(fmt.Sprintf("object instance %d", id), resources)
	if err != nil {
		return nil, err
	}
	return &ObjectInstance{id: id, resources: c}, nil
}

func (oi *ObjectInstance) ID() uint16 { return oi.id }
func (oi *ObjectInstance) Kind() Kind { return KindObjectInstance }
func (*ObjectInstance) isNode()       {}

// IsUndefined reports whether the instance id is undefined.
func (oi *ObjectInstance) IsUndefined() bool { return oi.id == UndefinedInstanceID }

// Resources returns the resources ordered by id.
func (oi *ObjectInstance) Resources() []Resource { return oi.resources.list() }

// Resource returns the resource with the given id.
func (oi *ObjectInstance) Resource(id uint16) (Resource, bool) { return oi.resources.get(id) }

// Len returns the number of resources.
func (oi *ObjectInstance) Len() int { return oi.resources.len() }

func (oi *ObjectInstance) String() string {
	id := fmt.Sprint(oi.id)
	if oi.IsUndefined() {
		id = "?"
	}
	return fmt.Sprintf("ObjectInstance{id=%s resources=[%s]}", id, joinNodes(oi.resources.list()))
}

// Object holds the instances of one object.
type Object struct {
	id        uint16
	instances children[*ObjectInstance]
}

// NewObject creates an object. Instance ids must be unique.
func NewObject(id uint16, instances ...*ObjectInstance) (*Object, error) {
	c, err := newChildren(fmt.Sprintf("object %d", id), instances)
	if err != nil {
		return nil, err
	}
	return &Object{id: id, instances: c}, nil
}

// MustObject is like NewObject but panics on error.
func MustObject(id uint16, instances ...*ObjectInstance) *Object {
	o, err := NewObject(id, instances...)
	if err != nil {
		panic(err)
	}
	return o
}

func (o *Object) ID() uint16 { return o.id }
func (o *Object) Kind() Kind { return KindObject }
func (*Object) isNode()      {}

// Instances returns the instances ordered by id.
func (o *Object) Instances() []*ObjectInstance { return o.instances.list() }

// Instance returns the instance with the given id.
func (o *Object) Instance(id uint16) (*ObjectInstance, bool) { return o.instances.get(id) }

// Len returns the number of instances.
func (o *Object) Len() int { return o.instances.len() }

func (o *Object) String() string {
	return fmt.Sprintf("Object{id=%d instances=[%s]}", o.id, joinNodes(o.instances.list()))
}

// Root is the whole tree of a client.
type Root struct {
	objects children[*Object]
}

// NewRoot creates a root. Object ids must be unique.
func NewRoot(objects ...*Object) (*Root, error) {
	c, err := newChildren("root", objects)
	if err != nil {
		return nil, err
	}
	return &Root{objects: c}, nil
}

func (r *Root) ID() uint16 { return 0 }
func (r *Root) Kind() Kind { return KindRoot }
func (*Root) isNode()      {}

// Objects returns the objects ordered by id.
func (r *Root) Objects() []*Object { return r.objects.list() }

// Object returns the object with the given id.
func (r *Root) Object(id uint16) (*Object, bool) { return r.objects.get(id) }

// Len returns the number of objects.
func (r *Root) Len() int { return r.objects.len() }

func (r *Root) String() string {
	return fmt.Sprintf("Root{objects=[%s]}", joinNodes(r.objects.list()))
}

func joinNodes[T Node](nodes []T) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}
