package senml

import (
	"time"

	"github.com/mash-protocol/lwm2m-go/pkg/codec"
	"github.com/mash-protocol/lwm2m-go/pkg/codec/basename"
	"github.com/mash-protocol/lwm2m-go/pkg/node"
)

// Decode decodes the node at path. When the pack holds several
// timestamps, only one group is returned: the untimestamped values if
// present, else the most recent ones. The other groups are dropped; use
// DecodeTimestampedData to keep them all.
func (c Codec) Decode(data []byte, path node.Path, opts codec.Options) (node.Node, error) {
	nodes, err := c.DecodeTimestampedData(data, path, opts)
	if err != nil {
		return nil, err
	}
	if len(nodes) > 1 {
		opts.Log().Debug("senml decode keeps one timestamp", "path", path.String(), "timestamps", len(nodes))
	}
	if !nodes[0].IsTimestamped() {
		return nodes[0].Node, nil
	}
	return nodes[len(nodes)-1].Node, nil
}

// DecodeTimestampedData decodes one node per timestamp, ordered
// untimestamped first, then chronologically. An empty pack decodes to a
// single empty node.
func (c Codec) DecodeTimestampedData(data []byte, path node.Path, opts codec.Options) ([]node.TimestampedNode, error) {
	records, err := c.records(data, path)
	if err != nil {
		return nil, err
	}
	rs, err := c.resolve(records, path, opts)
	if err != nil {
		return nil, err
	}
	opts.Log().Debug("senml decode", "format", c.format.String(), "path", path.String(), "records", len(rs))

	groups, err := c.group(rs, opts, func(time.Time) *codec.Assembler {
		return codec.NewAssembler(c.format, path, opts)
	})
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		groups = append(groups, tsGroup{a: codec.NewAssembler(c.format, path, opts)})
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

type tsGroup struct {
	ts time.Time
	a  *codec.Assembler
}

// group adds every record value to the assembler of its timestamp, in
// order of first appearance.
func (c Codec) group(rs []resolved, opts codec.Options, newAssembler func(time.Time) *codec.Assembler) ([]tsGroup, error) {
	var groups []tsGroup
	index := make(map[time.Time]int)
	for _, r := range rs {
		typ, v, err := c.recordValue(r.rec, r.path, opts)
		if err != nil {
			return nil, err
		}
		key := r.ts.UTC()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, tsGroup{ts: r.ts, a: newAssembler(r.ts)})
		}
		if err := groups[i].a.Add(r.path, typ, v); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// DecodeNodes decodes the nodes of several paths. Every record must fall
// under one of paths; a path without record maps to nil. With a nil path
// list, one node is returned per resource or resource instance found.
// The pack must not hold more than one timestamp.
func (c Codec) DecodeNodes(data []byte, paths []node.Path, opts codec.Options) (map[node.Path]node.Node, error) {
	tn, err := c.DecodeTimestampedNodes(data, paths, opts)
	if err != nil {
		return nil, err
	}
	ts := tn.Timestamps()
	if len(ts) > 1 {
		return nil, codec.Errorf(c.format, node.RootPath, codec.ErrInvalidContent, "%d timestamps found, use timestamped decoding", len(ts))
	}

	out := make(map[node.Path]node.Node, len(paths))
	for _, p := range paths {
		out[p] = nil
	}
	if len(ts) == 1 {
		for p, n := range tn.NodesAt(ts[0]) {
			out[p] = n
		}
	}
	return out, nil
}

// DecodeTimestampedNodes decodes the nodes of several paths at several
// timestamps. Paths without record at a timestamp are left out of that
// timestamp.
func (c Codec) DecodeTimestampedNodes(data []byte, paths []node.Path, opts codec.Options) (*node.TimestampedNodes, error) {
	if err := node.ValidateNotOverlapping(paths); err != nil {
		return nil, codec.Errorf(c.format, node.RootPath, err, "invalid path list")
	}
	records, err := c.records(data, node.RootPath)
	if err != nil {
		return nil, err
	}
	rs, err := c.resolve(records, node.RootPath, opts)
	if err != nil {
		return nil, err
	}
	opts.Log().Debug("senml decode nodes", "format", c.format.String(), "paths", len(paths), "records", len(rs))

	b := node.NewTimestampedNodesBuilder()
	if paths == nil {
		groups, err := c.group(rs, opts, func(time.Time) *codec.Assembler {
			return codec.NewAssembler(c.format, node.RootPath, opts)
		})
		if err != nil {
			return nil, err
		}
		for _, g := range groups {
			nodes, err := g.a.BuildEach()
			if err != nil {
				return nil, err
			}
			b.PutAll(g.ts, nodes)
		}
		return c.build(b)
	}

	// One assembler per timestamp and requested path.
	type key struct {
		ts time.Time
		p  node.Path
	}
	assemblers := make(map[key]*codec.Assembler)
	var order []key
	for _, r := range rs {
		target, ok := matchPath(paths, r.path)
		if !ok {
			return nil, codec.Errorf(c.format, r.path, codec.ErrInvalidContent, "path is not under any requested path")
		}
		typ, v, err := c.recordValue(r.rec, r.path, opts)
		if err != nil {
			return nil, err
		}
		k := key{ts: r.ts.UTC(), p: target}
		a, ok := assemblers[k]
		if !ok {
			a = codec.NewAssembler(c.format, target, opts)
			assemblers[k] = a
			order = append(order, key{ts: r.ts, p: target})
		}
		if err := a.Add(r.path, typ, v); err != nil {
			return nil, err
		}
	}
	for _, k := range order {
		n, err := assemblers[key{ts: k.ts.UTC(), p: k.p}].Build()
		if err != nil {
			return nil, err
		}
		b.Put(k.ts, k.p, n)
	}
	return c.build(b)
}

func (c Codec) build(b *node.TimestampedNodesBuilder) (*node.TimestampedNodes, error) {
	tn, err := b.Build()
	if err != nil {
		return nil, codec.Errorf(c.format, node.RootPath, err, "invalid nodes")
	}
	return tn, nil
}

func matchPath(paths []node.Path, p node.Path) (node.Path, bool) {
	for _, target := range paths {
		if p.StartsWith(target) {
			return target, true
		}
	}
	return node.Path{}, false
}

// DecodePaths decodes a list of paths carried as record names. Records
// must not hold a value or a time.
func (c Codec) DecodePaths(data []byte, opts codec.Options) ([]node.Path, error) {
	records, err := c.records(data, node.RootPath)
	if err != nil {
		return nil, err
	}

	var bn string
	paths := make([]node.Path, 0, len(records))
	for i, r := range records {
		if r.HasValue() {
			return nil, codec.Errorf(c.format, node.RootPath, codec.ErrInvalidContent, "record %d: a path record must not have a value", i)
		}
		if r.BaseTime != nil || r.Time != nil {
			return nil, codec.Errorf(c.format, node.RootPath, codec.ErrInvalidContent, "record %d: a path record must not have a time", i)
		}
		if r.BaseName != nil {
			bn = *r.BaseName
		}
		var n string
		if r.Name != nil {
			n = *r.Name
		}
		p, err := basename.Resolve(bn, n, opts.RootPath)
		if err != nil {
			return nil, codec.Errorf(c.format, node.RootPath, codec.ErrInvalidContent, "record %d: invalid name %q with base name %q: %v", i, n, bn, err)
		}
		paths = append(paths, p)
	}
	if err := node.ValidateNotOverlapping(paths); err != nil {
		return nil, codec.Errorf(c.format, node.RootPath, err, "invalid path list")
	}
	return paths, nil
}
