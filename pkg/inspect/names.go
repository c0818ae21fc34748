package inspect

import (
	"github.com/mash-protocol/lwm2m-go/pkg/model"
)

// ObjectName returns the name of an object, or "" when m does not know it.
func ObjectName(m model.Model, objectID uint16) string {
	if m == nil {
		return ""
	}
	if o, ok := m.Object(objectID); ok {
		return o.Name
	}
	return ""
}

// ResourceName returns the name of a resource, or "" when m does not know
// it.
func ResourceName(m model.Model, objectID, resourceID uint16) string {
	if r, ok := model.ResourceModelOf(m, objectID, resourceID); ok {
		return r.Name
	}
	return ""
}

// ResolveObjectName resolves an object name to its id.
func ResolveObjectName(m Names, name string) (uint16, bool) {
	if m == nil {
		return 0, false
	}
	o, ok := m.ObjectByName(name)
	if !ok {
		return 0, false
	}
	return o.ID, true
}

// ResolveResourceName resolves a resource name to its id within an object.
func ResolveResourceName(m model.Model, objectID uint16, name string) (uint16, bool) {
	if m == nil {
		return 0, false
	}
	o, ok := m.Object(objectID)
	if !ok {
		return 0, false
	}
	r, ok := o.ResourceByName(name)
	if !ok {
		return 0, false
	}
	return r.ID, true
}
