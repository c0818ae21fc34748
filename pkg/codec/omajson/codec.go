// Package omajson implements the OMA LwM2M JSON content format (11543,
// and the pre-registration code 1543).
//
// A document carries a base name "bn", an optional base time "bt" and a
// list of entries, each with a name relative to the base name, one value
// ("v" number, "bv" boolean, "sv" string or base64 opaque, "ov" object
// link) and an optional time "t" added to the base time.
package omajson

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/mash-protocol/lwm2m-go/pkg/codec"
	"github.com/mash-protocol/lwm2m-go/pkg/codec/basename"
	"github.com/mash-protocol/lwm2m-go/pkg/node"
	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

const format = codec.FormatJSON

// Codec decodes and encodes OMA LwM2M JSON documents.
type Codec struct{}

var (
	_ codec.NodeDecoder        = Codec{}
	_ codec.NodeEncoder        = Codec{}
	_ codec.TimestampedDecoder = Codec{}
	_ codec.TimestampedEncoder = Codec{}
)

// Decode decodes the node at path. When the document holds several
// timestamps, only one group is returned: the untimestamped values if
// present, else the most recent ones. The other groups are dropped; use
// DecodeTimestampedData to keep them all.
func (c Codec) Decode(data []byte, path node.Path, opts codec.Options) (node.Node, error) {
	nodes, err := c.DecodeTimestampedData(data, path, opts)
	if err != nil {
		return nil, err
	}
	if !nodes[0].IsTimestamped() {
		return nodes[0].Node, nil
	}
	return nodes[len(nodes)-1].Node, nil
}

// DecodeTimestampedData decodes one node per timestamp found, ordered
// untimestamped first, then chronologically. An empty payload is an empty
// node at path.
func (Codec) DecodeTimestampedData(data []byte, path node.Path, opts codec.Options) ([]node.TimestampedNode, error) {
	if len(data) == 0 {
		n, err := codec.EmptyNode(format, path, opts)
		if err != nil {
			return nil, err
		}
		return []node.TimestampedNode{{Node: n}}, nil
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, codec.Errorf(format, path, codec.ErrMalformed, "%v", err)
	}
	opts.Log().Debug("lwm2m json decode", "path", path.String(), "entries", len(doc.Entries))

	var bn string
	if doc.BaseName != nil {
		bn = *doc.BaseName
	}
	var bt value.Number
	if doc.BaseTime != "" {
		if bt, err = value.ParseNumber(doc.BaseTime.String()); err != nil {
			return nil, codec.Errorf(format, path, codec.ErrMalformed, "invalid base time %q", doc.BaseTime)
		}
	}

	type group struct {
		ts time.Time
		a  *codec.Assembler
	}
	var groups []*group
	byTime := make(map[time.Time]*group)
	groupFor := func(ts time.Time) *group {
		if g, ok := byTime[ts]; ok {
			return g
		}
		g := &group{ts: ts, a: codec.NewAssembler(format, path, opts)}
		byTime[ts] = g
		groups = append(groups, g)
		return g
	}

	for _, e := range doc.Entries {
		var n string
		if e.Name != nil {
			n = *e.Name
		}
		p, err := basename.Resolve(bn, n, opts.RootPath)
		if err != nil {
			return nil, codec.Errorf(format, path, codec.ErrInvalidContent, "invalid entry name %q with base name %q: %v", n, bn, err)
		}

		ts, err := entryTime(bt, doc.BaseTime != "", e.Time)
		if err != nil {
			return nil, codec.Errorf(format, p, codec.ErrMalformed, "invalid time %q", e.Time)
		}

		typ, v, err := entryValue(e, p, opts)
		if err != nil {
			return nil, err
		}
		if err := groupFor(ts).a.Add(p, typ, v); err != nil {
			return nil, err
		}
	}
	if len(groups) == 0 {
		groupFor(time.Time{})
	}

	out := make([]node.TimestampedNode, 0, len(groups))
	for _, g := range groups {
		n, err := g.a.Build()
		if err != nil {
			return nil, err
		}
		out = append(out, node.TimestampedNode{Timestamp: g.ts, Node: n})
	}
	node.SortTimestamped(out)
	return out, nil
}

// entryTime returns bt + t, or the zero time when neither is set.
func entryTime(bt value.Number, hasBase bool, t json.Number) (time.Time, error) {
	if t == "" {
		if !hasBase {
			return time.Time{}, nil
		}
		return bt.Time(), nil
	}
	rel, err := value.ParseNumber(t.String())
	if err != nil {
		return time.Time{}, err
	}
	return bt.Add(rel).Time(), nil
}

func entryValue(e Entry, p node.Path, opts codec.Options) (value.Type, any, error) {
	if p.Depth() < 3 {
		return value.TypeNone, nil, codec.Errorf(format, p, codec.ErrInvalidContent, "value must address a resource or a resource instance")
	}
	declared, known := opts.ResourceType(p.ObjectID(), p.ResourceID())
	mismatch := func(kind string) (value.Type, any, error) {
		return value.TypeNone, nil, codec.Errorf(format, p, value.ErrTypeMismatch, "%q value for a %s resource", kind, declared)
	}

	switch {
	case e.Float != "":
		n, err := value.ParseNumber(e.Float.String())
		if err != nil {
			return value.TypeNone, nil, codec.Errorf(format, p, codec.ErrMalformed, "invalid number %q", e.Float)
		}
		typ := declared
		if !known {
			typ = codec.GuessNumberType(n)
		}
		if !typ.IsNumeric() {
			return mismatch("v")
		}
		v, err := codec.NumberValue(n, typ)
		if err != nil {
			return value.TypeNone, nil, codec.Errorf(format, p, err, "invalid %s value %s", typ, n)
		}
		return typ, v, nil

	case e.Bool != nil:
		if known && declared != value.TypeBoolean {
			return mismatch("bv")
		}
		return value.TypeBoolean, *e.Bool, nil

	case e.ObjLnk != nil:
		if known && declared != value.TypeObjLnk {
			return mismatch("ov")
		}
		l, err := value.ParseObjectLink(*e.ObjLnk)
		if err != nil {
			return value.TypeNone, nil, codec.Errorf(format, p, err, "invalid object link")
		}
		return value.TypeObjLnk, l, nil

	case e.String != nil:
		s := *e.String
		switch {
		case !known || declared == value.TypeString:
			return value.TypeString, s, nil
		case declared == value.TypeOpaque:
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return value.TypeNone, nil, codec.Errorf(format, p, err, "opaque value must be base64")
			}
			return value.TypeOpaque, b, nil
		case declared == value.TypeObjLnk:
			l, err := value.ParseObjectLink(s)
			if err != nil {
				return value.TypeNone, nil, codec.Errorf(format, p, err, "invalid object link")
			}
			return value.TypeObjLnk, l, nil
		}
		return mismatch("sv")
	}
	return value.TypeNone, nil, codec.Errorf(format, p, codec.ErrMalformed, "entry has no value")
}

// Encode encodes n, the node at path. Object instances must have an id.
func (c Codec) Encode(n node.Node, path node.Path, opts codec.Options) ([]byte, error) {
	return c.EncodeTimestampedData([]node.TimestampedNode{{Node: n}}, path, opts)
}

// EncodeTimestampedData encodes nodes, all at path, with the absolute time
// of each node in the "t" field of its entries.
func (Codec) EncodeTimestampedData(nodes []node.TimestampedNode, path node.Path, opts codec.Options) ([]byte, error) {
	if len(nodes) == 0 {
		return nil, codec.Errorf(format, path, node.ErrInvalidNode, "no node to encode")
	}
	if path.IsRoot() {
		return nil, codec.Errorf(format, path, codec.ErrUnsupported, "lwm2m json can not encode the root")
	}

	doc := &Document{}
	for _, tn := range nodes {
		n := tn.Node
		if err := node.ValidatePathForNode(path, n); err != nil {
			return nil, codec.Errorf(format, path, err, "node does not match path")
		}
		if oi, ok := n.(*node.ObjectInstance); ok && oi.IsUndefined() {
			return nil, codec.Errorf(format, path, codec.ErrUnsupported, "lwm2m json needs an object instance id")
		}

		withNames := !path.IsResourceInstance()
		if r, ok := n.(node.Resource); ok && !r.IsMultiple() {
			withNames = false
		}
		bn := basename.BaseName(opts.RootPath, path, withNames)
		doc.BaseName = &bn

		var t json.Number
		if tn.IsTimestamped() {
			t = json.Number(value.FormatSeconds(tn.Timestamp))
		}
		for _, l := range node.Leaves(path, n) {
			e, err := encodeEntry(l, path, opts)
			if err != nil {
				return nil, err
			}
			e.Time = t
			doc.Entries = append(doc.Entries, e)
		}
	}

	out, err := Marshal(doc)
	if err != nil {
		return nil, codec.Errorf(format, path, err, "unable to serialize json")
	}
	return out, nil
}

func encodeEntry(l node.Leaf, base node.Path, opts codec.Options) (Entry, error) {
	var e Entry
	if name, err := basename.Relative(base, l.Path); err != nil {
		return e, codec.Errorf(format, l.Path, err, "invalid leaf")
	} else if name != "" {
		e.Name = &name
	}

	target := codec.DeclaredType(opts, l.Path, l.Type)
	v, err := codec.Coerce(format, l.Path, l.Value, l.Type, target)
	if err != nil {
		return e, err
	}
	switch target {
	case value.TypeString:
		s := v.(string)
		e.String = &s
	case value.TypeBoolean:
		b := v.(bool)
		e.Bool = &b
	case value.TypeOpaque:
		s := base64.StdEncoding.EncodeToString(v.([]byte))
		e.String = &s
	case value.TypeObjLnk:
		s := v.(value.ObjectLink).String()
		e.ObjLnk = &s
	default:
		lit, err := codec.FormatNumber(target, v)
		if err != nil {
			return e, codec.Errorf(format, l.Path, err, "unable to encode value")
		}
		e.Float = json.Number(lit)
	}
	return e, nil
}
