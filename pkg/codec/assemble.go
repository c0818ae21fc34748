package codec

import (
	"fmt"
	"maps"
	"slices"

	"github.com/mash-protocol/lwm2m-go/pkg/node"
	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

type leaf struct {
	typ value.Type
	val any
}

type multiAcc struct {
	typ       value.Type
	instances map[uint16]leaf
}

// Assembler builds the node at a target path from decoded resource and
// resource instance values. Formats that flatten the tree into
// (path, value) records (JSON, SenML) use it to rebuild the tree.
//
// An Assembler is used by a single goroutine.
type Assembler struct {
	format ContentFormat
	target node.Path
	opts   Options

	single map[node.Path]leaf
	multi  map[node.Path]*multiAcc
}

// NewAssembler returns an assembler for the node at target.
func NewAssembler(f ContentFormat, target node.Path, opts Options) *Assembler {
	return &Assembler{
		format: f,
		target: target,
		opts:   opts,
		single: make(map[node.Path]leaf),
		multi:  make(map[node.Path]*multiAcc),
	}
}

// Len returns the number of values added.
func (a *Assembler) Len() int {
	n := len(a.single)
	for _, m := range a.multi {
		n += len(m.instances)
	}
	return n
}

// Add records the value of the resource or resource instance at p. p must
// be at or below the target path.
func (a *Assembler) Add(p node.Path, t value.Type, v any) error {
	if p.Depth() < 3 {
		return Errorf(a.format, p, ErrInvalidContent, "value must address a resource or a resource instance")
	}
	if !p.StartsWith(a.target) {
		return Errorf(a.format, p, ErrInvalidContent, "path does not start with the requested path %s", a.target)
	}
	if err := value.Check(t, v); err != nil {
		return Errorf(a.format, p, err, "invalid value")
	}

	rp := p.ResourcePath()
	if p.IsResource() {
		if _, dup := a.single[rp]; dup {
			return Errorf(a.format, p, node.ErrDuplicateID, "resource %s is defined twice", rp)
		}
		if _, dup := a.multi[rp]; dup {
			return Errorf(a.format, p, node.ErrDuplicateID, "resource %s is both single and multiple", rp)
		}
		a.single[rp] = leaf{typ: t, val: v}
		return nil
	}

	if _, dup := a.single[rp]; dup {
		return Errorf(a.format, p, node.ErrDuplicateID, "resource %s is both single and multiple", rp)
	}
	m, ok := a.multi[rp]
	if !ok {
		m = &multiAcc{typ: t, instances: make(map[uint16]leaf)}
		a.multi[rp] = m
	}
	if m.typ != t {
		return Errorf(a.format, p, value.ErrTypeMismatch, "resource instance is %s, resource %s is %s", t, rp, m.typ)
	}
	riid := p.ResourceInstanceID()
	if _, dup := m.instances[riid]; dup {
		return Errorf(a.format, p, node.ErrDuplicateID, "resource instance %s is defined twice", p)
	}
	m.instances[riid] = leaf{typ: t, val: v}
	return nil
}

// Build returns the node at the target path. Empty object and object
// instance targets give empty containers. An empty resource target gives
// an empty multiple resource when the model declares one, else an error.
func (a *Assembler) Build() (node.Node, error) {
	resources, err := a.resources()
	if err != nil {
		return nil, err
	}

	t := a.target
	switch t.Kind() {
	case node.KindResourceInstance:
		r, ok := resources[t.ResourcePath()]
		if !ok || !r.IsMultiple() {
			return nil, Errorf(a.format, t, ErrInvalidContent, "no value for resource instance")
		}
		ri, ok := r.Instance(t.ResourceInstanceID())
		if !ok {
			return nil, Errorf(a.format, t, ErrInvalidContent, "no value for resource instance")
		}
		return ri, nil

	case node.KindResource:
		if r, ok := resources[t]; ok {
			return r, nil
		}
		return a.emptyResource()

	case node.KindObjectInstance:
		return a.instance(t, resources)

	case node.KindObject:
		instances, err := a.instances(t, resources)
		if err != nil {
			return nil, err
		}
		o, err := node.NewObject(t.ObjectID(), instances...)
		if err != nil {
			return nil, Errorf(a.format, t, err, "invalid object")
		}
		return o, nil

	default:
		byObject := make(map[uint16]bool)
		for p := range resources {
			byObject[p.ObjectID()] = true
		}
		objects := make([]*node.Object, 0, len(byObject))
		for _, oid := range slices.Sorted(maps.Keys(byObject)) {
			op := node.MustPath(int(oid))
			instances, err := a.instances(op, resources)
			if err != nil {
				return nil, err
			}
			o, err := node.NewObject(oid, instances...)
			if err != nil {
				return nil, Errorf(a.format, op, err, "invalid object")
			}
			objects = append(objects, o)
		}
		root, err := node.NewRoot(objects...)
		if err != nil {
			return nil, Errorf(a.format, t, err, "invalid root")
		}
		return root, nil
	}
}

// BuildEach returns one node per added resource, without assembling
// instances or objects.
func (a *Assembler) BuildEach() (map[node.Path]node.Node, error) {
	resources, err := a.resources()
	if err != nil {
		return nil, err
	}
	out := make(map[node.Path]node.Node, len(resources))
	for p, r := range resources {
		if r.IsMultiple() {
			for _, ri := range r.Instances() {
				out[node.MustPath(int(p.ObjectID()), int(p.InstanceID()), int(p.ResourceID()), int(ri.ID()))] = ri
			}
			continue
		}
		out[p] = r
	}
	return out, nil
}

func (a *Assembler) resources() (map[node.Path]node.Resource, error) {
	out := make(map[node.Path]node.Resource, len(a.single)+len(a.multi))
	for p, l := range a.single {
		r, err := node.NewSingleResource(p.ResourceID(), l.typ, l.val)
		if err != nil {
			return nil, Errorf(a.format, p, err, "invalid resource")
		}
		out[p] = r
	}
	for p, m := range a.multi {
		instances := make([]*node.ResourceInstance, 0, len(m.instances))
		for _, id := range slices.Sorted(maps.Keys(m.instances)) {
			l := m.instances[id]
			ri, err := node.NewResourceInstance(id, l.typ, l.val)
			if err != nil {
				return nil, Errorf(a.format, p, err, "invalid resource instance")
			}
			instances = append(instances, ri)
		}
		r, err := node.NewMultipleResource(p.ResourceID(), m.typ, instances...)
		if err != nil {
			return nil, Errorf(a.format, p, err, "invalid resource")
		}
		out[p] = r
	}
	return out, nil
}

func (a *Assembler) instance(ip node.Path, resources map[node.Path]node.Resource) (*node.ObjectInstance, error) {
	var list []node.Resource
	for p, r := range resources {
		if p.StartsWith(ip) {
			list = append(list, r)
		}
	}
	oi, err := node.NewObjectInstance(ip.InstanceID(), list...)
	if err != nil {
		return nil, Errorf(a.format, ip, err, "invalid object instance")
	}
	return oi, nil
}

func (a *Assembler) instances(op node.Path, resources map[node.Path]node.Resource) ([]*node.ObjectInstance, error) {
	ids := make(map[uint16]bool)
	for p := range resources {
		if p.StartsWith(op) {
			ids[p.InstanceID()] = true
		}
	}
	out := make([]*node.ObjectInstance, 0, len(ids))
	for _, id := range slices.Sorted(maps.Keys(ids)) {
		oi, err := a.instance(node.MustPath(int(op.ObjectID()), int(id)), resources)
		if err != nil {
			return nil, err
		}
		out = append(out, oi)
	}
	return out, nil
}

func (a *Assembler) emptyResource() (node.Node, error) {
	t := a.target
	multiple, known := a.opts.IsMultiple(t.ObjectID(), t.ResourceID())
	if !known || !multiple {
		return nil, Errorf(a.format, t, ErrInvalidContent, "no value for resource")
	}
	typ, ok := a.opts.ResourceType(t.ObjectID(), t.ResourceID())
	if !ok {
		return nil, Errorf(a.format, t, ErrUnknownType, "no type for empty multiple resource")
	}
	r, err := node.NewMultipleResource(t.ResourceID(), typ)
	if err != nil {
		return nil, Errorf(a.format, t, err, "invalid resource")
	}
	return r, nil
}

// EmptyNode returns the node decoded from an empty payload at p: an empty
// object, object instance or (if the model says so) multiple resource.
func EmptyNode(f ContentFormat, p node.Path, opts Options) (node.Node, error) {
	switch p.Kind() {
	case node.KindRoot:
		r, _ := node.NewRoot()
		return r, nil
	case node.KindObject:
		return node.MustObject(p.ObjectID()), nil
	case node.KindObjectInstance:
		if p.HasUndefinedInstance() {
			oi, _ := node.NewUndefinedObjectInstance()
			return oi, nil
		}
		return node.MustObjectInstance(p.InstanceID()), nil
	case node.KindResource:
		return NewAssembler(f, p, opts).emptyResource()
	}
	return nil, Errorf(f, p, ErrInvalidContent, "empty payload for %s", p.Kind())
}

// AddAll adds every leaf of n, located at p.
func (a *Assembler) AddAll(p node.Path, n node.Node) error {
	for _, l := range node.Leaves(p, n) {
		if err := a.Add(l.Path, l.Type, l.Value); err != nil {
			return err
		}
	}
	return nil
}

func (a *Assembler) String() string {
	return fmt.Sprintf("Assembler{%s target=%s values=%d}", a.format, a.target, a.Len())
}
