package model

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

// RawObjectFile is a YAML file holding object definitions. A file holding a
// single object may also put its fields at the top level.
type RawObjectFile struct {
	Objects []RawObjectDef `yaml:"objects"`
}

// RawObjectDef represents an object definition loaded from YAML.
type RawObjectDef struct {
	ID           *uint16          `yaml:"id"`
	Name         string           `yaml:"name"`
	Version      string           `yaml:"version"`
	LwM2MVersion string           `yaml:"lwm2mVersion"`
	URN          string           `yaml:"urn"`
	Multiple     bool             `yaml:"multiple"`
	Mandatory    bool             `yaml:"mandatory"`
	Description  string           `yaml:"description"`
	Resources    []RawResourceDef `yaml:"resources"`
}

// RawResourceDef represents a resource definition.
type RawResourceDef struct {
	ID          uint16 `yaml:"id"`
	Name        string `yaml:"name"`
	Operations  string `yaml:"operations"` // "R", "W", "RW", "E", ""
	Multiple    bool   `yaml:"multiple"`
	Mandatory   bool   `yaml:"mandatory"`
	Type        string `yaml:"type"` // "string", "integer", "unsigned integer", ...
	Range       string `yaml:"range"`
	Units       string `yaml:"units"`
	Description string `yaml:"description"`
}

// ParseYAML parses object definitions from YAML bytes.
func ParseYAML(data []byte) ([]*ObjectModel, error) {
	var file RawObjectFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing object definitions: %w", err)
	}
	defs := file.Objects
	if len(defs) == 0 {
		var single RawObjectDef
		if err := yaml.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("parsing object definition: %w", err)
		}
		if single.ID == nil {
			return nil, fmt.Errorf("%w: no object definition found", ErrInvalidModel)
		}
		defs = []RawObjectDef{single}
	}

	out := make([]*ObjectModel, 0, len(defs))
	for i := range defs {
		o, err := defs[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (d *RawObjectDef) toModel() (*ObjectModel, error) {
	if d.ID == nil {
		return nil, fmt.Errorf("%w: object %q missing id", ErrInvalidModel, d.Name)
	}
	if d.Name == "" {
		return nil, fmt.Errorf("%w: object %d missing name", ErrInvalidModel, *d.ID)
	}

	o, err := NewObjectModel(*d.ID, d.Name, d.Multiple)
	if err != nil {
		return nil, err
	}
	o.Mandatory = d.Mandatory
	o.Description = strings.TrimSpace(d.Description)
	o.LwM2MVersion = d.LwM2MVersion
	o.URN = d.URN
	if d.Version != "" {
		o.Version = d.Version
	}

	for _, rd := range d.Resources {
		ops, err := ParseOperations(rd.Operations)
		if err != nil {
			return nil, fmt.Errorf("object %d resource %d: %w", *d.ID, rd.ID, err)
		}
		t, err := value.ParseType(rd.Type)
		if err != nil {
			return nil, fmt.Errorf("object %d resource %d: %w", *d.ID, rd.ID, err)
		}
		r := &ResourceModel{
			ID:               rd.ID,
			Name:             rd.Name,
			Operations:       ops,
			Multiple:         rd.Multiple,
			Mandatory:        rd.Mandatory,
			Type:             t,
			RangeEnumeration: rd.Range,
			Units:            rd.Units,
			Description:      strings.TrimSpace(rd.Description),
		}
		if err := o.addResource(r); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// LoadFile loads object definitions from a YAML (.yaml, .yml) or DDF
// (.xml) file.
func LoadFile(path string) ([]*ObjectModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var objects []*ObjectModel
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		objects, err = ParseYAML(data)
	case ".xml":
		objects, err = ParseDDF(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return objects, nil
}

// LoadDir loads every YAML and DDF file of a directory, in name order.
// Other files are ignored.
func LoadDir(dir string) ([]*ObjectModel, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".xml":
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	var out []*ObjectModel
	for _, name := range names {
		objects, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		out = append(out, objects...)
	}
	return out, nil
}

// Load loads files and directories in order and returns a registry built
// on top of the default objects.
func Load(paths ...string) (*Registry, error) {
	var objects []*ObjectModel
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("loading models: %w", err)
		}
		var loaded []*ObjectModel
		if info.IsDir() {
			loaded, err = LoadDir(p)
		} else {
			loaded, err = LoadFile(p)
		}
		if err != nil {
			return nil, err
		}
		objects = append(objects, loaded...)
	}
	return Default().With(objects...), nil
}
