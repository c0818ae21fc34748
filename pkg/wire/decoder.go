package wire

import (
	"maps"
	"slices"

	"github.com/mash-protocol/lwm2m-go/pkg/codec"
	"github.com/mash-protocol/lwm2m-go/pkg/log"
	"github.com/mash-protocol/lwm2m-go/pkg/node"
)

// Decoder decodes payloads of any supported content format.
type Decoder struct {
	c *config
}

// NewDecoder returns a Decoder with the default codecs.
func NewDecoder(options ...Option) *Decoder {
	return &Decoder{c: newConfig(options)}
}

// Options returns the codec options the decoder passes to codecs.
func (d *Decoder) Options() codec.Options { return d.c.opts }

// IsSupported reports whether f can be decoded.
func (d *Decoder) IsSupported(f codec.ContentFormat) bool {
	_, ok := lookup(d.c.decoders, f)
	return ok && d.c.checkVersion(f, node.RootPath) == nil
}

// Formats returns the decodable formats in ascending code order, legacy
// codes included.
func (d *Decoder) Formats() []codec.ContentFormat {
	return d.c.filter(supported(d.c.decoders))
}

// Decode decodes the node at path.
func (d *Decoder) Decode(data []byte, f codec.ContentFormat, path node.Path) (node.Node, error) {
	t := d.c.begin(log.DirectionDecode, log.OperationNode, f, path.String())
	t.payload(data)

	dec, err := d.decoder(f, path)
	if err != nil {
		return nil, t.end(err)
	}
	n, err := dec.Decode(data, path, d.c.opts)
	if err != nil {
		return nil, t.end(codec.Wrap(f, path, err))
	}
	if err := checkNode(f, path, n); err != nil {
		return nil, t.end(err)
	}
	t.kind(n)
	return n, t.end(nil)
}

// DecodeTimestampedData decodes a history of the node at path, ordered
// untimestamped first, then chronologically.
func (d *Decoder) DecodeTimestampedData(data []byte, f codec.ContentFormat, path node.Path) ([]node.TimestampedNode, error) {
	t := d.c.begin(log.DirectionDecode, log.OperationTimestamped, f, path.String())
	t.payload(data)

	dec, err := d.decoder(f, path)
	if err != nil {
		return nil, t.end(err)
	}
	td, err := capability[codec.TimestampedDecoder](dec, f, path, "timestamped data")
	if err != nil {
		return nil, t.end(err)
	}
	nodes, err := td.DecodeTimestampedData(data, path, d.c.opts)
	if err != nil {
		return nil, t.end(codec.Wrap(f, path, err))
	}
	for _, tn := range nodes {
		if err := checkNode(f, path, tn.Node); err != nil {
			return nil, t.end(err)
		}
	}
	if len(nodes) > 0 {
		t.kind(nodes[0].Node)
	}
	t.counts(0, len(nodes))
	return nodes, t.end(nil)
}

// DecodeNodes decodes the nodes of several paths. A path without value in
// the payload maps to nil. A nil path list returns every node found.
func (d *Decoder) DecodeNodes(data []byte, f codec.ContentFormat, paths []node.Path) (map[node.Path]node.Node, error) {
	t := d.c.begin(log.DirectionDecode, log.OperationNodes, f, joinPaths(paths))
	t.payload(data)

	dec, err := d.decoder(f, node.RootPath)
	if err != nil {
		return nil, t.end(err)
	}
	md, err := capability[codec.MultiNodeDecoder](dec, f, node.RootPath, "multiple nodes")
	if err != nil {
		return nil, t.end(err)
	}
	nodes, err := md.DecodeNodes(data, paths, d.c.opts)
	if err != nil {
		return nil, t.end(codec.Wrap(f, node.RootPath, err))
	}
	t.counts(len(nodes), 0)
	return nodes, t.end(nil)
}

// DecodeTimestampedNodes decodes the nodes of several paths at several
// timestamps. A nil path list accepts any path.
func (d *Decoder) DecodeTimestampedNodes(data []byte, f codec.ContentFormat, paths []node.Path) (*node.TimestampedNodes, error) {
	t := d.c.begin(log.DirectionDecode, log.OperationTimestampedNodes, f, joinPaths(paths))
	t.payload(data)

	dec, err := d.decoder(f, node.RootPath)
	if err != nil {
		return nil, t.end(err)
	}
	td, err := capability[codec.TimestampedNodesDecoder](dec, f, node.RootPath, "timestamped nodes")
	if err != nil {
		return nil, t.end(err)
	}
	tn, err := td.DecodeTimestampedNodes(data, paths, d.c.opts)
	if err != nil {
		return nil, t.end(codec.Wrap(f, node.RootPath, err))
	}
	t.counts(tn.Len(), len(tn.Timestamps()))
	return tn, t.end(nil)
}

// DecodePaths decodes a path list, as sent by composite and observe
// operations.
func (d *Decoder) DecodePaths(data []byte, f codec.ContentFormat) ([]node.Path, error) {
	t := d.c.begin(log.DirectionDecode, log.OperationPaths, f, "")
	t.payload(data)

	dec, err := d.decoder(f, node.RootPath)
	if err != nil {
		return nil, t.end(err)
	}
	pd, err := capability[codec.PathDecoder](dec, f, node.RootPath, "path lists")
	if err != nil {
		return nil, t.end(err)
	}
	paths, err := pd.DecodePaths(data, d.c.opts)
	if err != nil {
		return nil, t.end(codec.Wrap(f, node.RootPath, err))
	}
	if t != nil {
		t.event.Path = joinPaths(paths)
	}
	t.counts(len(paths), 0)
	return paths, t.end(nil)
}

func (d *Decoder) decoder(f codec.ContentFormat, path node.Path) (codec.NodeDecoder, error) {
	if err := d.c.checkVersion(f, path); err != nil {
		return nil, err
	}
	dec, ok := lookup(d.c.decoders, f)
	if !ok {
		return nil, codec.Errorf(f, path, codec.ErrUnsupportedFormat, "no decoder for content format %s", f)
	}
	d.c.warnLegacy(f)
	return dec, nil
}

// checkNode verifies that a decoded node is the node path addresses. An
// undefined object instance stands for any instance id.
func checkNode(f codec.ContentFormat, path node.Path, n node.Node) error {
	if oi, ok := n.(*node.ObjectInstance); ok && oi.IsUndefined() && path.IsObjectInstance() {
		return nil
	}
	if err := node.ValidatePathForNode(path, n); err != nil {
		return codec.Errorf(f, path, err, "decoded node does not match the target path")
	}
	return nil
}

// lookup returns the codec of f, falling back to the registered code for
// legacy codes.
func lookup[T any](codecs map[codec.ContentFormat]T, f codec.ContentFormat) (T, bool) {
	if impl, found := codecs[f]; found {
		return impl, true
	}
	if f.IsLegacy() {
		impl, found := codecs[f.Canonical()]
		return impl, found
	}
	var zero T
	return zero, false
}

func supported[T any](codecs map[codec.ContentFormat]T) []codec.ContentFormat {
	formats := slices.Collect(maps.Keys(codecs))
	for _, legacy := range []codec.ContentFormat{codec.FormatLegacyTLV, codec.FormatLegacyJSON} {
		if _, ok := codecs[legacy.Canonical()]; ok && !slices.Contains(formats, legacy) {
			formats = append(formats, legacy)
		}
	}
	slices.Sort(formats)
	return formats
}

func capability[T any](impl any, f codec.ContentFormat, p node.Path, what string) (T, error) {
	c, ok := impl.(T)
	if !ok {
		var zero T
		return zero, codec.Errorf(f, p, codec.ErrUnsupported, "%s does not support %s", f, what)
	}
	return c, nil
}

func (c *config) warnLegacy(f codec.ContentFormat) {
	if f.IsLegacy() {
		c.opts.Log().Warn("legacy content format", "format", int(f), "canonical", f.Canonical().String())
	}
}
