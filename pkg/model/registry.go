package model

import (
	"maps"
	"slices"
	"strings"

	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

// Model gives access to object models. Implementations must be safe for
// concurrent reads.
type Model interface {
	// Object returns the model of an object.
	Object(objectID uint16) (*ObjectModel, bool)
}

// Registry is a static Model built from a set of object definitions.
type Registry struct {
	objects map[uint16]*ObjectModel
}

// NewRegistry creates a registry. When two definitions share an object id,
// the later one wins.
func NewRegistry(objects ...*ObjectModel) *Registry {
	r := &Registry{objects: make(map[uint16]*ObjectModel, len(objects))}
	for _, o := range objects {
		if o != nil {
			r.objects[o.ID] = o
		}
	}
	return r
}

// With returns a new registry holding the objects of r overridden by
// objects.
func (r *Registry) With(objects ...*ObjectModel) *Registry {
	all := make([]*ObjectModel, 0, len(r.objects)+len(objects))
	all = append(all, r.Objects()...)
	all = append(all, objects...)
	return NewRegistry(all...)
}

// Object implements Model.
func (r *Registry) Object(objectID uint16) (*ObjectModel, bool) {
	if r == nil {
		return nil, false
	}
	o, ok := r.objects[objectID]
	return o, ok
}

// Objects returns every object model ordered by id.
func (r *Registry) Objects() []*ObjectModel {
	if r == nil {
		return nil
	}
	ids := slices.Sorted(maps.Keys(r.objects))
	out := make([]*ObjectModel, len(ids))
	for i, id := range ids {
		out[i] = r.objects[id]
	}
	return out
}

// Len returns the number of object models.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.objects)
}

// ObjectByName returns the object whose name matches, ignoring case and
// treating spaces, dashes and underscores alike.
func (r *Registry) ObjectByName(name string) (*ObjectModel, bool) {
	want := NormalizeName(name)
	for _, o := range r.Objects() {
		if NormalizeName(o.Name) == want {
			return o, true
		}
	}
	return nil, false
}

// ResourceModelOf looks a resource up in m. A nil Model knows nothing.
func ResourceModelOf(m Model, objectID, resourceID uint16) (*ResourceModel, bool) {
	if m == nil {
		return nil, false
	}
	o, ok := m.Object(objectID)
	if !ok {
		return nil, false
	}
	return o.Resource(resourceID)
}

// ResourceType returns the declared type of a resource, or false when m
// does not describe it.
func ResourceType(m Model, objectID, resourceID uint16) (value.Type, bool) {
	r, ok := ResourceModelOf(m, objectID, resourceID)
	if !ok || r.Type == value.TypeNone {
		return value.TypeNone, false
	}
	return r.Type, true
}

// IsMultipleResource reports whether m declares the resource multiple.
func IsMultipleResource(m Model, objectID, resourceID uint16) (multiple, known bool) {
	r, ok := ResourceModelOf(m, objectID, resourceID)
	if !ok {
		return false, false
	}
	return r.Multiple, true
}

// IsMultipleObject reports whether m declares the object multi-instance.
func IsMultipleObject(m Model, objectID uint16) (multiple, known bool) {
	if m == nil {
		return false, false
	}
	o, ok := m.Object(objectID)
	if !ok {
		return false, false
	}
	return o.Multiple, true
}

// NormalizeName lowercases a name and drops spaces, dashes and
// underscores, so "Current Time", "current-time" and "currentTime" match.
func NormalizeName(name string) string {
	var sb strings.Builder
	for _, c := range strings.ToLower(name) {
		switch c {
		case ' ', '-', '_':
			continue
		}
		sb.WriteRune(c)
	}
	return sb.String()
}
