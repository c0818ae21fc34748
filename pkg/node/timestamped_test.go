package node

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampedNodesOrdering(t *testing.T) {
	t1 := time.Unix(268600000, 0)
	t2 := time.Unix(268600050, 0)

	nodes, err := NewTimestampedNodesBuilder().
		Put(t2, MustPath(1024, 0, 2), NewIntegerResource(2, 2)).
		Put(time.Time{}, MustPath(1024, 0, 9), NewIntegerResource(9, 9)).
		Put(t1, MustPath(1024, 0, 1), NewIntegerResource(1, 1)).
		Put(t2, MustPath(1024, 0, 0), NewIntegerResource(0, 0)).
		Build()
	require.NoError(t, err)

	timestamps := nodes.Timestamps()
	require.Len(t, timestamps, 3)
	assert.True(t, timestamps[0].IsZero(), "untimestamped group sorts first")
	assert.True(t, timestamps[1].Equal(t1))
	assert.True(t, timestamps[2].Equal(t2))

	// insertion order within one timestamp
	assert.Equal(t, []Path{MustPath(1024, 0, 2), MustPath(1024, 0, 0)}, nodes.PathsAt(t2))

	entries := nodes.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, MustPath(1024, 0, 9), entries[0].Path)
	assert.Equal(t, MustPath(1024, 0, 1), entries[1].Path)
	assert.Equal(t, MustPath(1024, 0, 2), entries[2].Path)
	assert.Equal(t, MustPath(1024, 0, 0), entries[3].Path)

	first, ok := nodes.First()
	require.True(t, ok)
	assert.Equal(t, MustPath(1024, 0, 9), first.Path)

	assert.Equal(t, []Path{MustPath(1024, 0, 0), MustPath(1024, 0, 1), MustPath(1024, 0, 2), MustPath(1024, 0, 9)}, nodes.Paths())

	ts, recent := nodes.MostRecent()
	assert.True(t, ts.Equal(t2))
	assert.Len(t, recent, 2)

	// same instant in another location is the same group
	at := nodes.NodesAt(t1.In(time.FixedZone("CET", 3600)))
	assert.Len(t, at, 1)
}

func TestTimestampedNodesDuplicates(t *testing.T) {
	ts := time.Unix(1000, 0)
	p := MustPath(3, 0, 1)

	_, err := NewTimestampedNodesBuilder().
		Put(ts, p, NewStringResource(1, "a")).
		Put(ts, p, NewStringResource(1, "b")).
		Build()
	assert.True(t, errors.Is(err, ErrDuplicatePath), "got %v", err)

	nodes, err := NewTimestampedNodesBuilder().
		AllowDuplicates().
		Put(ts, p, NewStringResource(1, "a")).
		Put(ts, p, NewStringResource(1, "b")).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "b", nodes.NodesAt(ts)[p].(*SingleResource).Value())
	assert.Equal(t, 1, nodes.Len())

	// same path at two timestamps is not a duplicate
	_, err = NewTimestampedNodesBuilder().
		Put(ts, p, NewStringResource(1, "a")).
		Put(ts.Add(time.Second), p, NewStringResource(1, "b")).
		Build()
	assert.NoError(t, err)
}

func TestTimestampedNodesExpectedPaths(t *testing.T) {
	ts := time.Unix(1000, 0)
	a, b := MustPath(3, 0, 1), MustPath(3, 0, 2)

	_, err := NewTimestampedNodesBuilder().
		ExpectPaths(a).
		Put(ts, b, NewStringResource(2, "x")).
		Build()
	assert.True(t, errors.Is(err, ErrUnexpectedPath), "got %v", err)

	_, err = NewTimestampedNodesBuilder().
		ExpectPaths(a, b).
		Put(ts, a, NewStringResource(1, "x")).
		Build()
	assert.True(t, errors.Is(err, ErrMissingPath), "got %v", err)

	nodes, err := NewTimestampedNodesBuilder().
		ExpectPaths(a, b).
		Put(ts, a, NewStringResource(1, "x")).
		Put(ts, b, nil).
		Build()
	require.NoError(t, err)
	assert.Nil(t, nodes.NodesAt(ts)[b])
}

func TestTimestampedNodesValidation(t *testing.T) {
	_, err := NewTimestampedNodesBuilder().
		Put(time.Time{}, MustPath(3, 0, 1), NewStringResource(2, "x")).
		Build()
	assert.True(t, errors.Is(err, ErrPathMismatch), "got %v", err)

	_, err = NewTimestampedNodesBuilder().
		PutNode(time.Time{}, MustPath(3, 0, 1, 0), NewStringResource(2, "x")).
		Build()
	assert.True(t, errors.Is(err, ErrInvalidPath), "got %v", err)
}

func TestTimestampedNodesAdd(t *testing.T) {
	t1, t2 := time.Unix(10, 0), time.Unix(20, 0)

	left, err := NewTimestampedNodesBuilder().
		PutNode(t1, MustPath(3, 0), NewStringResource(0, "a")).
		Build()
	require.NoError(t, err)
	right, err := NewTimestampedNodesBuilder().
		PutNode(t2, MustPath(3, 0), NewStringResource(0, "b")).
		PutNode(t1, MustPath(3, 0), NewStringResource(1, "c")).
		Build()
	require.NoError(t, err)

	merged, err := NewTimestampedNodesBuilder().Add(right).Add(left).Build()
	require.NoError(t, err)
	assert.Len(t, merged.Timestamps(), 2)
	assert.Len(t, merged.NodesAt(t1), 2)
	assert.Len(t, merged.NodesAt(t2), 1)

	history := merged.ForPath(MustPath(3, 0, 0))
	require.Len(t, history, 2)
	assert.True(t, history[0].Timestamp.Equal(t1))
	assert.True(t, history[1].Timestamp.Equal(t2))
}

func TestSortTimestamped(t *testing.T) {
	nodes := []TimestampedNode{
		{Timestamp: time.Unix(20, 0), Node: NewIntegerResource(0, 1)},
		{Node: NewIntegerResource(0, 2)},
		{Timestamp: time.Unix(10, 0), Node: NewIntegerResource(0, 3)},
		{Timestamp: time.Unix(10, 0), Node: NewIntegerResource(0, 4)},
	}
	SortTimestamped(nodes)
	var got []any
	for _, n := range nodes {
		got = append(got, n.Node.(*SingleResource).Value())
	}
	assert.Equal(t, []any{int64(2), int64(3), int64(4), int64(1)}, got)
	assert.False(t, nodes[0].IsTimestamped())
}
