package wire

import (
	"maps"
	"slices"

	"github.com/mash-protocol/lwm2m-go/pkg/codec"
	"github.com/mash-protocol/lwm2m-go/pkg/log"
	"github.com/mash-protocol/lwm2m-go/pkg/node"
)

// Encoder encodes nodes to any supported content format.
type Encoder struct {
	c *config
}

// NewEncoder returns an Encoder with the default codecs.
func NewEncoder(options ...Option) *Encoder {
	return &Encoder{c: newConfig(options)}
}

// Options returns the codec options the encoder passes to codecs.
func (e *Encoder) Options() codec.Options { return e.c.opts }

// IsSupported reports whether nodes can be encoded to f.
func (e *Encoder) IsSupported(f codec.ContentFormat) bool {
	_, ok := lookup(e.c.encoders, f)
	return ok && e.c.checkVersion(f, node.RootPath) == nil
}

// Formats returns the encodable formats in ascending code order.
func (e *Encoder) Formats() []codec.ContentFormat {
	return e.c.filter(supported(e.c.encoders))
}

// Encode encodes n, the node at path.
func (e *Encoder) Encode(n node.Node, f codec.ContentFormat, path node.Path) ([]byte, error) {
	t := e.c.begin(log.DirectionEncode, log.OperationNode, f, path.String())
	t.kind(n)

	if n == nil {
		return nil, t.end(codec.Errorf(f, path, node.ErrInvalidNode, "no node to encode"))
	}
	enc, err := e.encoder(f, path)
	if err != nil {
		return nil, t.end(err)
	}
	out, err := enc.Encode(n, path, e.c.opts)
	if err != nil {
		return nil, t.end(codec.Wrap(f, path, err))
	}
	t.payload(out)
	return out, t.end(nil)
}

// EncodeTimestampedData encodes a history of the node at path.
func (e *Encoder) EncodeTimestampedData(nodes []node.TimestampedNode, f codec.ContentFormat, path node.Path) ([]byte, error) {
	t := e.c.begin(log.DirectionEncode, log.OperationTimestamped, f, path.String())
	t.counts(0, len(nodes))
	if len(nodes) > 0 {
		t.kind(nodes[0].Node)
	}

	enc, err := e.encoder(f, path)
	if err != nil {
		return nil, t.end(err)
	}
	te, err := capability[codec.TimestampedEncoder](enc, f, path, "timestamped data")
	if err != nil {
		return nil, t.end(err)
	}
	out, err := te.EncodeTimestampedData(nodes, path, e.c.opts)
	if err != nil {
		return nil, t.end(codec.Wrap(f, path, err))
	}
	t.payload(out)
	return out, t.end(nil)
}

// EncodeNodes encodes the nodes of several paths. Nil nodes are left out.
func (e *Encoder) EncodeNodes(nodes map[node.Path]node.Node, f codec.ContentFormat) ([]byte, error) {
	t := e.c.begin(log.DirectionEncode, log.OperationNodes, f, joinPaths(slices.Collect(maps.Keys(nodes))))
	t.counts(len(nodes), 0)

	enc, err := e.encoder(f, node.RootPath)
	if err != nil {
		return nil, t.end(err)
	}
	me, err := capability[codec.MultiNodeEncoder](enc, f, node.RootPath, "multiple nodes")
	if err != nil {
		return nil, t.end(err)
	}
	out, err := me.EncodeNodes(nodes, e.c.opts)
	if err != nil {
		return nil, t.end(codec.Wrap(f, node.RootPath, err))
	}
	t.payload(out)
	return out, t.end(nil)
}

// EncodeTimestampedNodes encodes the nodes of several paths at several
// timestamps.
func (e *Encoder) EncodeTimestampedNodes(tn *node.TimestampedNodes, f codec.ContentFormat) ([]byte, error) {
	t := e.c.begin(log.DirectionEncode, log.OperationTimestampedNodes, f, joinPaths(tn.Paths()))
	t.counts(tn.Len(), len(tn.Timestamps()))

	enc, err := e.encoder(f, node.RootPath)
	if err != nil {
		return nil, t.end(err)
	}
	te, err := capability[codec.TimestampedNodesEncoder](enc, f, node.RootPath, "timestamped nodes")
	if err != nil {
		return nil, t.end(err)
	}
	out, err := te.EncodeTimestampedNodes(tn, e.c.opts)
	if err != nil {
		return nil, t.end(codec.Wrap(f, node.RootPath, err))
	}
	t.payload(out)
	return out, t.end(nil)
}

// EncodePaths encodes a path list.
func (e *Encoder) EncodePaths(paths []node.Path, f codec.ContentFormat) ([]byte, error) {
	t := e.c.begin(log.DirectionEncode, log.OperationPaths, f, joinPaths(paths))
	t.counts(len(paths), 0)

	enc, err := e.encoder(f, node.RootPath)
	if err != nil {
		return nil, t.end(err)
	}
	pe, err := capability[codec.PathEncoder](enc, f, node.RootPath, "path lists")
	if err != nil {
		return nil, t.end(err)
	}
	out, err := pe.EncodePaths(paths, e.c.opts)
	if err != nil {
		return nil, t.end(codec.Wrap(f, node.RootPath, err))
	}
	t.payload(out)
	return out, t.end(nil)
}

func (e *Encoder) encoder(f codec.ContentFormat, path node.Path) (codec.NodeEncoder, error) {
	if err := e.c.checkVersion(f, path); err != nil {
		return nil, err
	}
	enc, ok := lookup(e.c.encoders, f)
	if !ok {
		return nil, codec.Errorf(f, path, codec.ErrUnsupportedFormat, "no encoder for content format %s", f)
	}
	e.c.warnLegacy(f)
	return enc, nil
}
