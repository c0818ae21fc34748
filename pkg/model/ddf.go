package model

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

// ddfDocument is the root element of an OMA DDF file.
type ddfDocument struct {
	XMLName xml.Name    `xml:"LWM2M"`
	Objects []ddfObject `xml:"Object"`
}

type ddfObject struct {
	Name              string    `xml:"Name"`
	Description       string    `xml:"Description1"`
	ObjectID          string    `xml:"ObjectID"`
	ObjectURN         string    `xml:"ObjectURN"`
	LwM2MVersion      string    `xml:"LWM2MVersion"`
	ObjectVersion     string    `xml:"ObjectVersion"`
	MultipleInstances string    `xml:"MultipleInstances"`
	Mandatory         string    `xml:"Mandatory"`
	Items             []ddfItem `xml:"Resources>Item"`
}

type ddfItem struct {
	ID                string `xml:"ID,attr"`
	Name              string `xml:"Name"`
	Operations        string `xml:"Operations"`
	MultipleInstances string `xml:"MultipleInstances"`
	Mandatory         string `xml:"Mandatory"`
	Type              string `xml:"Type"`
	RangeEnumeration  string `xml:"RangeEnumeration"`
	Units             string `xml:"Units"`
	Description       string `xml:"Description"`
}

// ParseDDF parses an OMA object definition (DDF) XML document.
func ParseDDF(data []byte) ([]*ObjectModel, error) {
	var doc ddfDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing DDF: %w", err)
	}
	if len(doc.Objects) == 0 {
		return nil, fmt.Errorf("%w: DDF has no Object element", ErrInvalidModel)
	}

	out := make([]*ObjectModel, 0, len(doc.Objects))
	for _, do := range doc.Objects {
		o, err := do.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (d ddfObject) toModel() (*ObjectModel, error) {
	id, err := parseDDFID(d.ObjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: object %q: %v", ErrInvalidModel, d.Name, err)
	}
	o, err := NewObjectModel(id, strings.TrimSpace(d.Name), isDDFMultiple(d.MultipleInstances))
	if err != nil {
		return nil, err
	}
	o.Description = strings.TrimSpace(d.Description)
	o.URN = strings.TrimSpace(d.ObjectURN)
	o.LwM2MVersion = strings.TrimSpace(d.LwM2MVersion)
	o.Mandatory = isDDFMandatory(d.Mandatory)
	if v := strings.TrimSpace(d.ObjectVersion); v != "" {
		o.Version = v
	}

	for _, item := range d.Items {
		rid, err := parseDDFID(item.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: object %d resource %q: %v", ErrInvalidModel, id, item.Name, err)
		}
		ops, err := ParseOperations(item.Operations)
		if err != nil {
			return nil, fmt.Errorf("object %d resource %d: %w", id, rid, err)
		}
		t, err := ddfType(item.Type, ops)
		if err != nil {
			return nil, fmt.Errorf("object %d resource %d: %w", id, rid, err)
		}
		r := &ResourceModel{
			ID:               rid,
			Name:             strings.TrimSpace(item.Name),
			Operations:       ops,
			Multiple:         isDDFMultiple(item.MultipleInstances),
			Mandatory:        isDDFMandatory(item.Mandatory),
			Type:             t,
			RangeEnumeration: strings.TrimSpace(item.RangeEnumeration),
			Units:            strings.TrimSpace(item.Units),
			Description:      strings.TrimSpace(item.Description),
		}
		if err := o.addResource(r); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func parseDDFID(s string) (uint16, error) {
	var id uint16
	if _, err := fmt.Sscan(strings.TrimSpace(s), &id); err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// ddfType maps DDF type names. Core links are carried as strings. A
// resource with no type is only valid when executable.
func ddfType(s string, ops Operations) (value.Type, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "corelnk") {
		return value.TypeString, nil
	}
	t, err := value.ParseType(s)
	if err != nil {
		return value.TypeNone, err
	}
	if t == value.TypeNone && ops.IsResource() {
		// older DDF files leave the type of string resources empty
		return value.TypeString, nil
	}
	return t, nil
}

func isDDFMultiple(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "Multiple")
}

func isDDFMandatory(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "Mandatory")
}
