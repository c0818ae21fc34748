package senml

import (
	"maps"
	"slices"
	"time"

	"github.com/mash-protocol/lwm2m-go/pkg/codec"
	"github.com/mash-protocol/lwm2m-go/pkg/codec/basename"
	"github.com/mash-protocol/lwm2m-go/pkg/node"
	pack "github.com/mash-protocol/lwm2m-go/pkg/senml"
	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

// Encode encodes n, the node at path. The path is the base name of the
// first record.
func (c Codec) Encode(n node.Node, path node.Path, opts codec.Options) ([]byte, error) {
	return c.EncodeTimestampedData([]node.TimestampedNode{{Node: n}}, path, opts)
}

// EncodeTimestampedData encodes nodes, all at path. The first record of
// each node carries the base name and, for timestamped nodes, the absolute
// time as base time.
func (c Codec) EncodeTimestampedData(nodes []node.TimestampedNode, path node.Path, opts codec.Options) ([]byte, error) {
	if len(nodes) == 0 {
		return nil, codec.Errorf(c.format, path, node.ErrInvalidNode, "no node to encode")
	}
	sorted := slices.Clone(nodes)
	node.SortTimestamped(sorted)

	var records []pack.Record
	for _, tn := range sorted {
		if err := node.ValidatePathForNode(path, tn.Node); err != nil {
			return nil, codec.Errorf(c.format, path, err, "node does not match path")
		}
		if oi, ok := tn.Node.(*node.ObjectInstance); ok && oi.IsUndefined() {
			return nil, codec.Errorf(c.format, path, codec.ErrUnsupported, "senml needs an object instance id")
		}
		rs, err := c.leafRecords(path, node.Leaves(path, tn.Node), opts)
		if err != nil {
			return nil, err
		}
		if len(rs) == 0 {
			continue
		}
		if tn.IsTimestamped() {
			if err := c.setBaseTime(&rs[0], path, tn.Timestamp); err != nil {
				return nil, err
			}
		}
		records = append(records, rs...)
	}
	return c.marshalRecords(records, path)
}

// EncodeNodes encodes the nodes of several paths. Nil nodes are skipped.
// The longest path shared by every value is the base name.
func (c Codec) EncodeNodes(nodes map[node.Path]node.Node, opts codec.Options) ([]byte, error) {
	if len(nodes) == 0 {
		return nil, codec.Errorf(c.format, node.RootPath, node.ErrInvalidNode, "no node to encode")
	}
	paths := slices.Collect(maps.Keys(nodes))
	node.SortPaths(paths)

	var leaves []node.Leaf
	for _, p := range paths {
		n := nodes[p]
		if n == nil {
			continue
		}
		if err := node.ValidatePathForNode(p, n); err != nil {
			return nil, codec.Errorf(c.format, p, err, "node does not match path")
		}
		leaves = append(leaves, node.Leaves(p, n)...)
	}

	records, err := c.leafRecords(leafPrefix(leaves), leaves, opts)
	if err != nil {
		return nil, err
	}
	return c.marshalRecords(records, node.RootPath)
}

// EncodeTimestampedNodes encodes the nodes of several paths at several
// timestamps. The first record of each timestamp carries the base time.
func (c Codec) EncodeTimestampedNodes(tn *node.TimestampedNodes, opts codec.Options) ([]byte, error) {
	if tn.IsEmpty() {
		return nil, codec.Errorf(c.format, node.RootPath, node.ErrInvalidNode, "no node to encode")
	}

	type group struct {
		ts     time.Time
		leaves []node.Leaf
	}
	var groups []group
	var all []node.Leaf
	for _, ts := range tn.Timestamps() {
		g := group{ts: ts}
		nodes := tn.NodesAt(ts)
		for _, p := range tn.PathsAt(ts) {
			if n := nodes[p]; n != nil {
				g.leaves = append(g.leaves, node.Leaves(p, n)...)
			}
		}
		all = append(all, g.leaves...)
		groups = append(groups, g)
	}

	base := leafPrefix(all)
	withNames := hasNames(base, all)
	var records []pack.Record
	for _, g := range groups {
		rs, err := c.namedRecords(base, withNames, g.leaves, opts)
		if err != nil {
			return nil, err
		}
		if len(rs) == 0 {
			continue
		}
		if len(records) == 0 {
			bn := basename.BaseName(opts.RootPath, base, withNames)
			rs[0].BaseName = &bn
		}
		if !g.ts.IsZero() {
			if err := c.setBaseTime(&rs[0], base, g.ts); err != nil {
				return nil, err
			}
		}
		records = append(records, rs...)
	}
	return c.marshalRecords(records, node.RootPath)
}

// EncodePaths encodes paths as records carrying only a name.
func (c Codec) EncodePaths(paths []node.Path, opts codec.Options) ([]byte, error) {
	records := make([]pack.Record, len(paths))
	for i, p := range paths {
		name := node.JoinRoot(opts.RootPath, p)
		records[i] = pack.Record{Name: &name}
	}
	return c.marshalRecords(records, node.RootPath)
}

// leafRecords returns the records of leaves, named relative to base. The
// first record carries the base name.
func (c Codec) leafRecords(base node.Path, leaves []node.Leaf, opts codec.Options) ([]pack.Record, error) {
	withNames := hasNames(base, leaves)
	records, err := c.namedRecords(base, withNames, leaves, opts)
	if err != nil || len(records) == 0 {
		return records, err
	}
	bn := basename.BaseName(opts.RootPath, base, withNames)
	records[0].BaseName = &bn
	return records, nil
}

func (c Codec) namedRecords(base node.Path, withNames bool, leaves []node.Leaf, opts codec.Options) ([]pack.Record, error) {
	records := make([]pack.Record, 0, len(leaves))
	for _, l := range leaves {
		name, err := basename.Relative(base, l.Path)
		if err != nil {
			return nil, codec.Errorf(c.format, l.Path, err, "invalid leaf")
		}
		r, err := c.leafRecord(l, name, opts)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

func (c Codec) setBaseTime(r *pack.Record, p node.Path, ts time.Time) error {
	if ts.Unix() < minAbsoluteTime {
		return codec.Errorf(c.format, p, codec.ErrInvalidContent, "timestamp %s is before 2^28 seconds", ts.UTC().Format(time.RFC3339))
	}
	bt := value.NumberFromTime(ts)
	r.BaseTime = &bt
	return nil
}

func (c Codec) marshalRecords(records []pack.Record, p node.Path) ([]byte, error) {
	out, err := c.marshal(records)
	if err != nil {
		return nil, codec.Errorf(c.format, p, err, "unable to serialize senml")
	}
	return out, nil
}

func leafPrefix(leaves []node.Leaf) node.Path {
	paths := make([]node.Path, len(leaves))
	for i, l := range leaves {
		paths[i] = l.Path
	}
	return basename.Prefix(paths)
}

func hasNames(base node.Path, leaves []node.Leaf) bool {
	for _, l := range leaves {
		if l.Path != base {
			return true
		}
	}
	return false
}
