package commands

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mash-protocol/lwm2m-go/pkg/codec/text"
	"github.com/mash-protocol/lwm2m-go/pkg/inspect"
	"github.com/mash-protocol/lwm2m-go/pkg/model"
	"github.com/mash-protocol/lwm2m-go/pkg/node"
	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

// ErrDocument is returned for node documents that can not be turned into
// nodes.
var ErrDocument = errors.New("invalid node document")

// YAML tags of values that plain YAML scalars can not tell apart.
const (
	tagBinary    = "!!binary"
	tagTimestamp = "!!timestamp"
	tagObjLnk    = "!objlnk"
	tagUnsigned  = "!unsigned"
)

// Document is a node in YAML form. Value holds a scalar for resources and
// resource instances, and a mapping from child id to child value above.
// Multiple resources are mappings from instance id to value, or
// sequences for consecutive ids from 0.
//
//	path: /3/0
//	value:
//	  0: Open Mobile Alliance
//	  6: {0: 1, 1: 5}
//	  9: 100
//
// Value types come from the model, then from the document type, then from
// the YAML scalar: opaque values are tagged !!binary, times !!timestamp,
// object links !objlnk and unsigned integers !unsigned.
type Document struct {
	Path      string    `yaml:"path"`
	Timestamp string    `yaml:"timestamp,omitempty"`
	Type      string    `yaml:"type,omitempty"`
	Value     yaml.Node `yaml:"value"`
}

// ParseDocuments parses one document or a sequence of documents.
func ParseDocuments(data []byte) ([]Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocument, err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrDocument)
	}
	content := root.Content[0]

	var docs []Document
	if content.Kind == yaml.SequenceNode {
		if err := content.Decode(&docs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDocument, err)
		}
	} else {
		var d Document
		if err := content.Decode(&d); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDocument, err)
		}
		docs = append(docs, d)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no node", ErrDocument)
	}
	return docs, nil
}

// Time returns the document timestamp, zero when there is none. Both
// RFC 3339 times and epoch seconds are accepted.
func (d Document) Time() (time.Time, error) {
	if d.Timestamp == "" {
		return time.Time{}, nil
	}
	if secs, err := strconv.ParseFloat(d.Timestamp, 64); err == nil {
		whole, frac := math.Modf(secs)
		return time.Unix(int64(whole), int64(frac*1e9)).UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339Nano, d.Timestamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrDocument, d.Timestamp)
	}
	return ts, nil
}

// Node builds the node of the document. Object and resource names in the
// path are resolved with m.
func (d Document) Node(m inspect.Names) (node.Path, node.Node, error) {
	p, err := inspect.ResolvePath(m, d.Path)
	if err != nil {
		return node.Path{}, nil, err
	}
	b := builder{model: m}
	if d.Type != "" {
		if b.fallback, err = value.ParseType(d.Type); err != nil {
			return p, nil, fmt.Errorf("%w: %v", ErrDocument, err)
		}
	}
	v := deref(&d.Value)
	if v.Kind == 0 {
		return p, nil, fmt.Errorf("%w: %s has no value", ErrDocument, p)
	}

	var n node.Node
	switch p.Kind() {
	case node.KindRoot:
		n, err = b.root(v)
	case node.KindObject:
		n, err = b.object(p.ObjectID(), v)
	case node.KindObjectInstance:
		n, err = b.instance(p.ObjectID(), p.InstanceID(), v)
	case node.KindResource:
		n, err = b.resource(p.ObjectID(), p.ResourceID(), v)
	case node.KindResourceInstance:
		var typ value.Type
		var val any
		typ, val, err = b.scalar(p.ObjectID(), p.ResourceID(), v)
		if err == nil {
			n, err = node.NewResourceInstance(p.ResourceInstanceID(), typ, val)
		}
	}
	if err != nil {
		return p, nil, fmt.Errorf("%s: %w", p, err)
	}
	return p, n, nil
}

type builder struct {
	model    model.Model
	fallback value.Type
}

func (b builder) root(v *yaml.Node) (node.Node, error) {
	var objects []*node.Object
	err := eachChild(v, func(id uint16, child *yaml.Node) error {
		o, err := b.object(id, child)
		if err != nil {
			return err
		}
		objects = append(objects, o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return node.NewRoot(objects...)
}

func (b builder) object(objectID uint16, v *yaml.Node) (*node.Object, error) {
	var instances []*node.ObjectInstance
	err := eachChild(v, func(id uint16, child *yaml.Node) error {
		oi, err := b.instance(objectID, id, child)
		if err != nil {
			return err
		}
		instances = append(instances, oi)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return node.NewObject(objectID, instances...)
}

func (b builder) instance(objectID, instanceID uint16, v *yaml.Node) (*node.ObjectInstance, error) {
	var resources []node.Resource
	err := eachChild(v, func(id uint16, child *yaml.Node) error {
		r, err := b.resource(objectID, id, child)
		if err != nil {
			return err
		}
		resources = append(resources, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return node.NewObjectInstance(instanceID, resources...)
}

func (b builder) resource(objectID, resourceID uint16, v *yaml.Node) (node.Resource, error) {
	if v.Kind == yaml.ScalarNode {
		typ, val, err := b.scalar(objectID, resourceID, v)
		if err != nil {
			return nil, err
		}
		return node.NewSingleResource(resourceID, typ, val)
	}

	typ, known := model.ResourceType(b.model, objectID, resourceID)
	var instances []*node.ResourceInstance
	err := eachChild(v, func(id uint16, child *yaml.Node) error {
		t, val, err := b.scalar(objectID, resourceID, child)
		if err != nil {
			return err
		}
		if !known {
			typ, known = t, true
		}
		ri, err := node.NewResourceInstance(id, t, val)
		if err != nil {
			return err
		}
		instances = append(instances, ri)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !known {
		typ = b.fallback
	}
	return node.NewMultipleResource(resourceID, typ, instances...)
}

// scalar parses a resource value. Declared types take precedence over the
// document type, which takes precedence over the YAML tag.
func (b builder) scalar(objectID, resourceID uint16, v *yaml.Node) (value.Type, any, error) {
	if v.Kind != yaml.ScalarNode {
		return value.TypeNone, nil, fmt.Errorf("%w: resource %d: expected a value at line %d", ErrDocument, resourceID, v.Line)
	}
	typ, ok := model.ResourceType(b.model, objectID, resourceID)
	if !ok {
		typ = b.fallback
	}
	if typ == value.TypeNone {
		typ = typeOfTag(v)
	}
	val, err := parseScalar(v, typ)
	if err != nil {
		return typ, nil, fmt.Errorf("%w: resource %d: %q is not a valid %s: %v", ErrDocument, resourceID, v.Value, typ, err)
	}
	return typ, val, nil
}

func typeOfTag(v *yaml.Node) value.Type {
	switch v.ShortTag() {
	case "!!int":
		if _, err := strconv.ParseInt(v.Value, 10, 64); err != nil {
			return value.TypeUnsigned
		}
		return value.TypeInteger
	case "!!float":
		return value.TypeFloat
	case "!!bool":
		return value.TypeBoolean
	case tagBinary:
		return value.TypeOpaque
	case tagTimestamp:
		return value.TypeTime
	case tagObjLnk:
		return value.TypeObjLnk
	case tagUnsigned:
		return value.TypeUnsigned
	}
	return value.TypeString
}

// parseScalar accepts YAML spellings on top of the text format: true and
// false for booleans, RFC 3339 for times.
func parseScalar(v *yaml.Node, typ value.Type) (any, error) {
	s := v.Value
	switch typ {
	case value.TypeBoolean:
		if b, err := strconv.ParseBool(s); err == nil {
			return b, nil
		}
	case value.TypeTime:
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return ts.UTC(), nil
		}
	case value.TypeOpaque:
		return base64.StdEncoding.DecodeString(strings.Join(strings.Fields(s), ""))
	}
	return text.Parse(s, typ)
}

// eachChild calls fn for every entry of a mapping from id to value, or of a
// sequence with ids from 0.
func eachChild(v *yaml.Node, fn func(id uint16, child *yaml.Node) error) error {
	switch v.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(v.Content); i += 2 {
			key := deref(v.Content[i])
			id, err := strconv.ParseUint(key.Value, 0, 16)
			if err != nil {
				return fmt.Errorf("%w: %q is not an id at line %d", ErrDocument, key.Value, key.Line)
			}
			if err := fn(uint16(id), deref(v.Content[i+1])); err != nil {
				return err
			}
		}
		return nil
	case yaml.SequenceNode:
		for i, child := range v.Content {
			if err := fn(uint16(i), deref(child)); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("%w: expected a mapping of ids at line %d", ErrDocument, v.Line)
}

func deref(v *yaml.Node) *yaml.Node {
	for v.Kind == yaml.AliasNode && v.Alias != nil {
		v = v.Alias
	}
	return v
}

// NewDocument returns the document of n, the node at p, with the
// timestamp ts when it is not zero.
func NewDocument(p node.Path, n node.Node, ts time.Time) (Document, error) {
	d := Document{Path: p.String()}
	if !ts.IsZero() {
		d.Timestamp = ts.UTC().Format(time.RFC3339Nano)
	}
	v, err := valueNode(n)
	if err != nil {
		return d, err
	}
	d.Value = *v
	return d, nil
}

// MarshalDocuments returns the YAML form of docs: a single document or a
// sequence.
func MarshalDocuments(docs []Document) ([]byte, error) {
	if len(docs) == 1 {
		return yaml.Marshal(docs[0])
	}
	return yaml.Marshal(docs)
}

func valueNode(n node.Node) (*yaml.Node, error) {
	switch n := n.(type) {
	case *node.Root:
		return mapping(n.Objects())
	case *node.Object:
		return mapping(n.Instances())
	case *node.ObjectInstance:
		return mapping(n.Resources())
	case node.Resource:
		if n.IsMultiple() {
			return mapping(n.Instances())
		}
		return scalarNode(n.Type(), n.Value())
	case *node.ResourceInstance:
		return scalarNode(n.Type(), n.Value())
	}
	return nil, fmt.Errorf("%w: no node", ErrDocument)
}

func mapping[T node.Node](children []T) (*yaml.Node, error) {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, c := range children {
		v, err := valueNode(c)
		if err != nil {
			return nil, err
		}
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(int(c.ID()))}
		m.Content = append(m.Content, key, v)
	}
	return m, nil
}

func scalarNode(typ value.Type, v any) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.ScalarNode}
	switch typ {
	case value.TypeString:
		n.Tag, n.Value = "!!str", v.(string)
		return n, nil
	case value.TypeBoolean:
		n.Tag, n.Value = "!!bool", strconv.FormatBool(v.(bool))
		return n, nil
	case value.TypeTime:
		n.Tag, n.Value = tagTimestamp, v.(time.Time).UTC().Format(time.RFC3339Nano)
		return n, nil
	case value.TypeOpaque:
		n.Tag = tagBinary
	case value.TypeObjLnk:
		n.Tag = tagObjLnk
	case value.TypeUnsigned:
		n.Tag = tagUnsigned
	case value.TypeInteger:
		n.Tag = "!!int"
	case value.TypeFloat:
		n.Tag = "!!float"
	}
	s, err := text.Format(typ, v)
	if err != nil {
		return nil, err
	}
	if typ == value.TypeFloat && !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}
	n.Value = s
	return n, nil
}
