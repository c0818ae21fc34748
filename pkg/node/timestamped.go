package node

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// TimestampedNode is a node with an optional measurement time. The zero
// Timestamp means "no timestamp".
type TimestampedNode struct {
	Timestamp time.Time
	Node      Node
}

// IsTimestamped reports whether the node carries a timestamp.
func (t TimestampedNode) IsTimestamped() bool { return !t.Timestamp.IsZero() }

// CompareTimestamps orders timestamps with the zero time (no timestamp)
// first, then chronologically.
func CompareTimestamps(a, b time.Time) int {
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return -1
	case b.IsZero():
		return 1
	}
	return a.Compare(b)
}

// SortTimestamped sorts nodes by timestamp, keeping the order of nodes with
// equal timestamps.
func SortTimestamped(nodes []TimestampedNode) {
	slices.SortStableFunc(nodes, func(a, b TimestampedNode) int {
		return CompareTimestamps(a.Timestamp, b.Timestamp)
	})
}

// tsKey is a map key for a timestamp; time.Time values with the same
// instant may differ in location or monotonic reading.
type tsKey struct {
	set  bool
	sec  int64
	nsec int
}

func keyOf(t time.Time) tsKey {
	if t.IsZero() {
		return tsKey{}
	}
	return tsKey{set: true, sec: t.Unix(), nsec: t.Nanosecond()}
}

type tsGroup struct {
	ts    time.Time
	paths []Path
	nodes map[Path]Node
}

// TimestampedEntry is one (timestamp, path, node) entry of a
// TimestampedNodes.
type TimestampedEntry struct {
	Timestamp time.Time
	Path      Path
	Node      Node
}

// TimestampedNodes is a set of path to node mappings grouped by timestamp,
// as carried by historical SenML payloads. It is immutable; build one with
// a TimestampedNodesBuilder.
type TimestampedNodes struct {
	groups []tsGroup
}

// IsEmpty reports whether there is no entry at all.
func (t *TimestampedNodes) IsEmpty() bool {
	return t == nil || len(t.groups) == 0
}

// Len returns the number of entries over all timestamps.
func (t *TimestampedNodes) Len() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, g := range t.groups {
		n += len(g.paths)
	}
	return n
}

// Timestamps returns the timestamps in order. The zero time stands for the
// group without timestamp.
func (t *TimestampedNodes) Timestamps() []time.Time {
	if t == nil {
		return nil
	}
	out := make([]time.Time, len(t.groups))
	for i, g := range t.groups {
		out[i] = g.ts
	}
	return out
}

func (t *TimestampedNodes) group(ts time.Time) (tsGroup, bool) {
	if t == nil {
		return tsGroup{}, false
	}
	k := keyOf(ts)
	for _, g := range t.groups {
		if keyOf(g.ts) == k {
			return g, true
		}
	}
	return tsGroup{}, false
}

// NodesAt returns the nodes of one timestamp, or nil when there is none.
func (t *TimestampedNodes) NodesAt(ts time.Time) map[Path]Node {
	g, ok := t.group(ts)
	if !ok {
		return nil
	}
	return maps.Clone(g.nodes)
}

// PathsAt returns the paths of one timestamp in insertion order.
func (t *TimestampedNodes) PathsAt(ts time.Time) []Path {
	g, ok := t.group(ts)
	if !ok {
		return nil
	}
	return slices.Clone(g.paths)
}

// Paths returns every path present at any timestamp, sorted and without
// duplicates.
func (t *TimestampedNodes) Paths() []Path {
	if t == nil {
		return nil
	}
	seen := make(map[Path]struct{})
	var out []Path
	for _, g := range t.groups {
		for _, p := range g.paths {
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				out = append(out, p)
			}
		}
	}
	SortPaths(out)
	return out
}

// Entries returns every entry in chronological order, entries of one
// timestamp in insertion order.
func (t *TimestampedNodes) Entries() []TimestampedEntry {
	if t == nil {
		return nil
	}
	out := make([]TimestampedEntry, 0, t.Len())
	for _, g := range t.groups {
		for _, p := range g.paths {
			out = append(out, TimestampedEntry{Timestamp: g.ts, Path: p, Node: g.nodes[p]})
		}
	}
	return out
}

// First returns the first entry in Entries order.
func (t *TimestampedNodes) First() (TimestampedEntry, bool) {
	if t.IsEmpty() {
		return TimestampedEntry{}, false
	}
	g := t.groups[0]
	return TimestampedEntry{Timestamp: g.ts, Path: g.paths[0], Node: g.nodes[g.paths[0]]}, true
}

// MostRecent returns the timestamp and the nodes of the latest group. When
// no group has a timestamp, the untimestamped group is returned.
func (t *TimestampedNodes) MostRecent() (time.Time, map[Path]Node) {
	if t.IsEmpty() {
		return time.Time{}, nil
	}
	g := t.groups[len(t.groups)-1]
	return g.ts, maps.Clone(g.nodes)
}

// ForPath returns the nodes found at p, one per timestamp, in order.
func (t *TimestampedNodes) ForPath(p Path) []TimestampedNode {
	if t == nil {
		return nil
	}
	var out []TimestampedNode
	for _, g := range t.groups {
		if n, ok := g.nodes[p]; ok {
			out = append(out, TimestampedNode{Timestamp: g.ts, Node: n})
		}
	}
	return out
}

func (t *TimestampedNodes) String() string {
	return fmt.Sprintf("TimestampedNodes{timestamps=%d entries=%d}", len(t.groups), t.Len())
}

// TimestampedNodesBuilder accumulates entries for a TimestampedNodes. It is
// not safe for concurrent use.
type TimestampedNodesBuilder struct {
	entries         []TimestampedEntry
	allowDuplicates bool
	expected        []Path
	err             error
}

// NewTimestampedNodesBuilder returns a builder that rejects a path put twice
// at the same timestamp.
func NewTimestampedNodesBuilder() *TimestampedNodesBuilder {
	return &TimestampedNodesBuilder{}
}

// AllowDuplicates makes a later Put of the same path and timestamp replace
// the earlier node.
func (b *TimestampedNodesBuilder) AllowDuplicates() *TimestampedNodesBuilder {
	b.allowDuplicates = true
	return b
}

// ExpectPaths restricts the paths Build accepts, and requires every
// timestamp group to contain each of them.
func (b *TimestampedNodesBuilder) ExpectPaths(paths ...Path) *TimestampedNodesBuilder {
	b.expected = append(b.expected, paths...)
	return b
}

// Put adds one entry. A nil node records that the path has no value.
func (b *TimestampedNodesBuilder) Put(ts time.Time, p Path, n Node) *TimestampedNodesBuilder {
	b.entries = append(b.entries, TimestampedEntry{Timestamp: ts, Path: p, Node: n})
	return b
}

// PutNode adds one entry whose path is derived from parent and the node id.
func (b *TimestampedNodesBuilder) PutNode(ts time.Time, parent Path, n Node) *TimestampedNodesBuilder {
	if isNil(n) {
		b.setErr(fmt.Errorf("%w: nil node under %s", ErrInvalidNode, parent))
		return b
	}
	p, err := parent.Append(int(n.ID()))
	if err != nil {
		b.setErr(err)
		return b
	}
	return b.Put(ts, p, n)
}

// PutAll adds the entries of a path to node map, in path order.
func (b *TimestampedNodesBuilder) PutAll(ts time.Time, nodes map[Path]Node) *TimestampedNodesBuilder {
	paths := slices.Collect(maps.Keys(nodes))
	SortPaths(paths)
	for _, p := range paths {
		b.Put(ts, p, nodes[p])
	}
	return b
}

// Add adds every entry of other.
func (b *TimestampedNodesBuilder) Add(other *TimestampedNodes) *TimestampedNodesBuilder {
	b.entries = append(b.entries, other.Entries()...)
	return b
}

func (b *TimestampedNodesBuilder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build validates the entries and returns the container.
func (b *TimestampedNodesBuilder) Build() (*TimestampedNodes, error) {
	if b.err != nil {
		return nil, b.err
	}

	var expected map[Path]struct{}
	if len(b.expected) > 0 {
		expected = make(map[Path]struct{}, len(b.expected))
		for _, p := range b.expected {
			expected[p] = struct{}{}
		}
	}

	byKey := make(map[tsKey]int)
	var groups []tsGroup
	for _, e := range b.entries {
		if e.Node != nil {
			if err := ValidatePathForNode(e.Path, e.Node); err != nil {
				return nil, err
			}
		}
		if expected != nil {
			if _, ok := expected[e.Path]; !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnexpectedPath, e.Path)
			}
		}

		k := keyOf(e.Timestamp)
		i, ok := byKey[k]
		if !ok {
			i = len(groups)
			byKey[k] = i
			groups = append(groups, tsGroup{ts: e.Timestamp, nodes: make(map[Path]Node)})
		}
		g := &groups[i]
		if _, dup := g.nodes[e.Path]; dup {
			if !b.allowDuplicates {
				return nil, fmt.Errorf("%w: %s at %s", ErrDuplicatePath, e.Path, formatTimestamp(e.Timestamp))
			}
		} else {
			g.paths = append(g.paths, e.Path)
		}
		g.nodes[e.Path] = e.Node
	}

	if expected != nil {
		for _, g := range groups {
			for _, p := range b.expected {
				if _, ok := g.nodes[p]; !ok {
					return nil, fmt.Errorf("%w: %s at %s", ErrMissingPath, p, formatTimestamp(g.ts))
				}
			}
		}
	}

	slices.SortStableFunc(groups, func(a, b tsGroup) int {
		return CompareTimestamps(a.ts, b.ts)
	})
	return &TimestampedNodes{groups: groups}, nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "no timestamp"
	}
	return t.UTC().Format(time.RFC3339Nano)
}
