package node

import (
	"fmt"

	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

// ValidatePathForNode checks that n is the kind of node p addresses and
// that its id is the last id of p.
func ValidatePathForNode(p Path, n Node) error {
	if isNil(n) {
		return fmt.Errorf("%w: no node for path %s", ErrInvalidNode, p)
	}
	if n.Kind() != p.Kind() {
		return fmt.Errorf("%w: %s path %s can not hold a %s", ErrPathMismatch, p.Kind(), p, n.Kind())
	}
	if p.IsRoot() {
		return nil
	}
	if last := p.ids[p.depth-1]; last != n.ID() {
		return fmt.Errorf("%w: path %s ends with id %d, node id is %d", ErrPathMismatch, p, last, n.ID())
	}
	return nil
}

// Find returns the descendant of n at target. base is the path of n and
// must be a prefix of target.
func Find(n Node, base, target Path) (Node, bool) {
	if !target.StartsWith(base) || isNil(n) {
		return nil, false
	}
	cur := n
	for level := base.Depth(); level < target.Depth(); level++ {
		id := target.ids[level]
		var next Node
		ok := false
		switch x := cur.(type) {
		case *Root:
			if o, found := x.Object(id); found {
				next, ok = o, true
			}
		case *Object:
			if oi, found := x.Instance(id); found {
				next, ok = oi, true
			}
		case *ObjectInstance:
			if r, found := x.Resource(id); found {
				next, ok = r, true
			}
		case *MultipleResource:
			if ri, found := x.Instance(id); found {
				next, ok = ri, true
			}
		}
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Leaf is one value of a flattened tree.
type Leaf struct {
	Path  Path
	Type  value.Type
	Value any
}

// Leaves flattens n, located at base, into its single resource and
// resource instance values, ordered by path. Empty containers and empty
// multiple resources contribute nothing.
func Leaves(base Path, n Node) []Leaf {
	var out []Leaf
	walk(base, n, func(l Leaf) { out = append(out, l) })
	return out
}

func walk(p Path, n Node, fn func(Leaf)) {
	switch x := n.(type) {
	case *Root:
		for _, o := range x.Objects() {
			walk(p.mustAppend(o.id), o, fn)
		}
	case *Object:
		for _, oi := range x.Instances() {
			walk(p.mustAppend(oi.id), oi, fn)
		}
	case *ObjectInstance:
		for _, r := range x.Resources() {
			walk(p.mustAppend(r.ID()), r, fn)
		}
	case *SingleResource:
		fn(Leaf{Path: p, Type: x.typ, Value: x.val})
	case *MultipleResource:
		for _, ri := range x.Instances() {
			walk(p.mustAppend(ri.id), ri, fn)
		}
	case *ResourceInstance:
		fn(Leaf{Path: p, Type: x.typ, Value: x.val})
	}
}

// mustAppend appends a child id of an existing node; the id was validated
// when the node was built.
func (p Path) mustAppend(id uint16) Path {
	q := p
	q.ids[p.depth] = id
	q.depth++
	return q
}
