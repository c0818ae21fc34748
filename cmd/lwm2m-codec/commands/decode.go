package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mash-protocol/lwm2m-go/pkg/inspect"
	"github.com/mash-protocol/lwm2m-go/pkg/node"
)

// Output styles of decoded nodes.
const (
	OutputTree = "tree"
	OutputYAML = "yaml"
)

// DecodeOptions specifies what the decode command decodes.
type DecodeOptions struct {
	// Format is the content format name or code.
	Format string

	// Paths are the target paths, by id or by name. Several paths decode
	// a composite payload.
	Paths []string

	// Timestamped decodes a history of values.
	Timestamped bool

	// Output is tree or yaml.
	Output string
}

// RunDecode decodes data and writes the result to w.
func RunDecode(env *Env, data []byte, opts DecodeOptions, w io.Writer) error {
	f, err := env.Config.Format(opts.Format)
	if err != nil {
		return err
	}
	paths, err := resolvePaths(env, opts.Paths)
	if err != nil {
		return err
	}
	yamlOut, err := yamlOutput(opts.Output)
	if err != nil {
		return err
	}

	switch {
	case len(paths) == 1 && !opts.Timestamped:
		n, err := env.Decoder.Decode(data, f, paths[0])
		if err != nil {
			return err
		}
		if yamlOut {
			return writeDocuments(w, nodeDoc{path: paths[0], node: n})
		}
		_, err = io.WriteString(w, env.Formatter.FormatNode(n, paths[0]))
		return err

	case len(paths) == 1:
		nodes, err := env.Decoder.DecodeTimestampedData(data, f, paths[0])
		if err != nil {
			return err
		}
		if yamlOut {
			docs := make([]nodeDoc, len(nodes))
			for i, tn := range nodes {
				docs[i] = nodeDoc{path: paths[0], node: tn.Node, ts: tn.Timestamp}
			}
			return writeDocuments(w, docs...)
		}
		_, err = io.WriteString(w, env.Formatter.FormatTimestamped(nodes, paths[0]))
		return err

	case opts.Timestamped:
		tn, err := env.Decoder.DecodeTimestampedNodes(data, f, paths)
		if err != nil {
			return err
		}
		if yamlOut {
			var docs []nodeDoc
			for _, e := range tn.Entries() {
				docs = append(docs, nodeDoc{path: e.Path, node: e.Node, ts: e.Timestamp})
			}
			return writeDocuments(w, docs...)
		}
		_, err = io.WriteString(w, env.Formatter.FormatTimestampedNodes(tn))
		return err
	}

	nodes, err := env.Decoder.DecodeNodes(data, f, paths)
	if err != nil {
		return err
	}
	if yamlOut {
		sorted := make([]node.Path, 0, len(nodes))
		for p, n := range nodes {
			if n != nil {
				sorted = append(sorted, p)
			}
		}
		node.SortPaths(sorted)
		docs := make([]nodeDoc, len(sorted))
		for i, p := range sorted {
			docs[i] = nodeDoc{path: p, node: nodes[p]}
		}
		return writeDocuments(w, docs...)
	}
	_, err = io.WriteString(w, env.Formatter.FormatNodes(nodes))
	return err
}

// resolvePaths resolves named paths. No path at all means every path of
// a composite payload.
func resolvePaths(env *Env, inputs []string) ([]node.Path, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	paths := make([]node.Path, 0, len(inputs))
	for _, in := range inputs {
		for _, part := range strings.Split(in, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			p, err := inspect.ResolvePath(env.Model, part)
			if err != nil {
				return nil, err
			}
			paths = append(paths, p)
		}
	}
	return paths, nil
}

func yamlOutput(output string) (bool, error) {
	switch strings.ToLower(output) {
	case "", OutputTree:
		return false, nil
	case OutputYAML:
		return true, nil
	}
	return false, fmt.Errorf("unknown output: %s (supported: tree, yaml)", output)
}

type nodeDoc struct {
	path node.Path
	node node.Node
	ts   time.Time
}

func writeDocuments(w io.Writer, nodes ...nodeDoc) error {
	docs := make([]Document, len(nodes))
	for i, n := range nodes {
		d, err := NewDocument(n.path, n.node, n.ts)
		if err != nil {
			return err
		}
		docs[i] = d
	}
	out, err := MarshalDocuments(docs)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
