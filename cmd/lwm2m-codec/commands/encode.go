package commands

import (
	"fmt"
	"io"

	"github.com/mash-protocol/lwm2m-go/pkg/node"
)

// EncodeOptions specifies how the encode command writes its payload.
type EncodeOptions struct {
	// Format is the content format name or code.
	Format string

	// Encoding is auto, hex, base64 or raw.
	Encoding string
}

// RunEncode encodes the node documents of doc and writes the payload to w.
//
// One untimestamped document encodes a single node. Several untimestamped
// documents encode a composite payload. Timestamped documents of a single
// path encode a history of that node, and of several paths a timestamped
// composite payload.
func RunEncode(env *Env, doc []byte, opts EncodeOptions, w io.Writer) error {
	f, err := env.Config.Format(opts.Format)
	if err != nil {
		return err
	}
	docs, err := ParseDocuments(doc)
	if err != nil {
		return err
	}

	entries := make([]node.TimestampedEntry, len(docs))
	timestamped := false
	singlePath := true
	for i, d := range docs {
		p, n, err := d.Node(env.Model)
		if err != nil {
			return err
		}
		ts, err := d.Time()
		if err != nil {
			return err
		}
		entries[i] = node.TimestampedEntry{Timestamp: ts, Path: p, Node: n}
		timestamped = timestamped || !ts.IsZero()
		singlePath = singlePath && p == entries[0].Path
	}

	var out []byte
	switch {
	case len(entries) == 1 && !timestamped:
		out, err = env.Encoder.Encode(entries[0].Node, f, entries[0].Path)

	case !timestamped:
		nodes := make(map[node.Path]node.Node, len(entries))
		for _, e := range entries {
			if _, dup := nodes[e.Path]; dup {
				return fmt.Errorf("%w: %s given twice", ErrDocument, e.Path)
			}
			nodes[e.Path] = e.Node
		}
		out, err = env.Encoder.EncodeNodes(nodes, f)

	case singlePath:
		nodes := make([]node.TimestampedNode, len(entries))
		for i, e := range entries {
			nodes[i] = node.TimestampedNode{Timestamp: e.Timestamp, Node: e.Node}
		}
		node.SortTimestamped(nodes)
		out, err = env.Encoder.EncodeTimestampedData(nodes, f, entries[0].Path)

	default:
		b := node.NewTimestampedNodesBuilder()
		for _, e := range entries {
			b.Put(e.Timestamp, e.Path, e.Node)
		}
		tn, berr := b.Build()
		if berr != nil {
			return berr
		}
		out, err = env.Encoder.EncodeTimestampedNodes(tn, f)
	}
	if err != nil {
		return err
	}
	return WritePayload(w, out, f, opts.Encoding)
}
