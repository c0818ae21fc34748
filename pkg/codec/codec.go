package codec

import "github.com/mash-protocol/lwm2m-go/pkg/node"

// NodeDecoder decodes the node at a path. A payload holding several
// timestamps decodes to a single group; formats that carry timestamps also
// implement TimestampedDecoder, which returns every group.
type NodeDecoder interface {
	Decode(data []byte, path node.Path, opts Options) (node.Node, error)
}

// NodeEncoder encodes the node at a path.
type NodeEncoder interface {
	Encode(n node.Node, path node.Path, opts Options) ([]byte, error)
}

// TimestampedDecoder decodes a history of the node at a path.
type TimestampedDecoder interface {
	DecodeTimestampedData(data []byte, path node.Path, opts Options) ([]node.TimestampedNode, error)
}

// TimestampedEncoder encodes a history of the node at a path.
type TimestampedEncoder interface {
	EncodeTimestampedData(nodes []node.TimestampedNode, path node.Path, opts Options) ([]byte, error)
}

// MultiNodeDecoder decodes the nodes of several paths, as used by
// composite operations. A nil path list returns one node per resource or
// resource instance found.
type MultiNodeDecoder interface {
	DecodeNodes(data []byte, paths []node.Path, opts Options) (map[node.Path]node.Node, error)
}

// MultiNodeEncoder encodes the nodes of several paths.
type MultiNodeEncoder interface {
	EncodeNodes(nodes map[node.Path]node.Node, opts Options) ([]byte, error)
}

// TimestampedNodesDecoder decodes the nodes of several paths at several
// timestamps. A nil path list accepts any path.
type TimestampedNodesDecoder interface {
	DecodeTimestampedNodes(data []byte, paths []node.Path, opts Options) (*node.TimestampedNodes, error)
}

// TimestampedNodesEncoder encodes the nodes of several paths at several
// timestamps.
type TimestampedNodesEncoder interface {
	EncodeTimestampedNodes(nodes *node.TimestampedNodes, opts Options) ([]byte, error)
}

// PathDecoder decodes a list of paths.
type PathDecoder interface {
	DecodePaths(data []byte, opts Options) ([]node.Path, error)
}

// PathEncoder encodes a list of paths.
type PathEncoder interface {
	EncodePaths(paths []node.Path, opts Options) ([]byte, error)
}
