package model

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

// Model errors.
var (
	ErrInvalidOperations = errors.New("invalid operations")
	ErrInvalidModel      = errors.New("invalid object model")
	ErrUnknownFormat     = errors.New("unknown model file format")
)

// ResourceModel describes one resource of an object.
type ResourceModel struct {
	// ID is the resource identifier within the object.
	ID uint16

	// Name is the human-readable resource name.
	Name string

	// Operations defines the allowed operations.
	Operations Operations

	// Multiple indicates a resource holding resource instances.
	Multiple bool

	// Mandatory indicates the resource must be present.
	Mandatory bool

	// Type is the value type. Executable resources have TypeNone.
	Type value.Type

	// RangeEnumeration is the allowed range or enumeration, as free text.
	RangeEnumeration string

	// Units is the unit of measurement (e.g. "Cel", "mV").
	Units string

	// Description is a human-readable description.
	Description string
}

// ObjectModel describes an object and its resources.
type ObjectModel struct {
	ID           uint16
	Name         string
	Description  string
	Version      string
	LwM2MVersion string
	URN          string

	// Multiple indicates an object that may have several instances.
	Multiple bool

	// Mandatory indicates the object must be present on every client.
	Mandatory bool

	resources map[uint16]*ResourceModel
}

// NewObjectModel creates an object model. Resource ids must be unique.
func NewObjectModel(id uint16, name string, multiple bool, resources ...*ResourceModel) (*ObjectModel, error) {
	o := &ObjectModel{
		ID:        id,
		Name:      name,
		Multiple:  multiple,
		Version:   "1.0",
		resources: make(map[uint16]*ResourceModel, len(resources)),
	}
	for _, r := range resources {
		if err := o.addResource(r); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *ObjectModel) addResource(r *ResourceModel) error {
	if r == nil {
		return fmt.Errorf("%w: object %d: nil resource", ErrInvalidModel, o.ID)
	}
	if _, dup := o.resources[r.ID]; dup {
		return fmt.Errorf("%w: object %d: duplicate resource id %d", ErrInvalidModel, o.ID, r.ID)
	}
	if r.Operations.IsResource() && r.Type == value.TypeNone {
		return fmt.Errorf("%w: object %d: resource %d has no type", ErrInvalidModel, o.ID, r.ID)
	}
	if o.resources == nil {
		o.resources = make(map[uint16]*ResourceModel)
	}
	o.resources[r.ID] = r
	return nil
}

// Resource returns the model of one resource.
func (o *ObjectModel) Resource(id uint16) (*ResourceModel, bool) {
	r, ok := o.resources[id]
	return r, ok
}

// Resources returns the resource models ordered by id.
func (o *ObjectModel) Resources() []*ResourceModel {
	ids := slices.Sorted(maps.Keys(o.resources))
	out := make([]*ResourceModel, len(ids))
	for i, id := range ids {
		out[i] = o.resources[id]
	}
	return out
}

// ResourceByName returns the resource whose name matches, ignoring case
// and treating spaces, dashes and underscores alike.
func (o *ObjectModel) ResourceByName(name string) (*ResourceModel, bool) {
	want := NormalizeName(name)
	for _, r := range o.Resources() {
		if NormalizeName(r.Name) == want {
			return r, true
		}
	}
	return nil, false
}

func (o *ObjectModel) String() string {
	kind := "single"
	if o.Multiple {
		kind = "multiple"
	}
	return fmt.Sprintf("ObjectModel{id=%d name=%q version=%s %s resources=%d}", o.ID, o.Name, o.Version, kind, len(o.resources))
}
