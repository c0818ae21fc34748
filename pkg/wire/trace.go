package wire

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/mash-protocol/lwm2m-go/pkg/codec"
	"github.com/mash-protocol/lwm2m-go/pkg/log"
	"github.com/mash-protocol/lwm2m-go/pkg/node"
	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

// call is one traced codec call. It is a no-op without trace logger.
type call struct {
	c     *config
	event log.Event
	start time.Time
}

func (c *config) begin(dir log.Direction, op log.Operation, f codec.ContentFormat, path string) *call {
	if c.trace == nil {
		return nil
	}
	start := time.Now()
	return &call{
		c:     c,
		start: start,
		event: log.Event{
			Timestamp: start,
			TraceID:   c.newID(),
			Direction: dir,
			Operation: op,
			Format:    f,
			Path:      path,
			RootPath:  c.opts.RootPath,
		},
	}
}

func (t *call) payload(data []byte) {
	if t != nil {
		t.event.SetPayload(data)
	}
}

func (t *call) kind(n node.Node) {
	if t != nil && n != nil {
		t.event.NodeKind = n.Kind().String()
	}
}

func (t *call) counts(nodes, timestamps int) {
	if t != nil {
		t.event.Nodes = nodes
		t.event.Timestamps = timestamps
	}
}

// end sends the event and returns err unchanged.
func (t *call) end(err error) error {
	if t == nil {
		return err
	}
	t.event.Duration = time.Since(t.start)
	if err != nil {
		t.event.Error = &log.ErrorData{Message: err.Error(), Kind: ErrorKind(err)}
	}
	t.c.trace.Log(t.event)
	return err
}

var errorKinds = []struct {
	err  error
	kind string
}{
	{codec.ErrUnsupportedFormat, "unsupported_format"},
	{codec.ErrUnsupported, "unsupported"},
	{codec.ErrMalformed, "malformed"},
	{value.ErrTypeMismatch, "type_mismatch"},
	{codec.ErrUnknownType, "unknown_type"},
	{node.ErrDuplicateID, "duplicate_id"},
	{node.ErrOverlapping, "overlapping_paths"},
	{node.ErrRootMismatch, "root_mismatch"},
	{node.ErrInvalidPath, "invalid_path"},
	{node.ErrPathMismatch, "path_mismatch"},
	{node.ErrInvalidNode, "invalid_node"},
	{codec.ErrInvalidContent, "invalid_content"},
	{value.ErrNumberConversion, "number_conversion"},
	{value.ErrInvalidNumber, "invalid_number"},
	{value.ErrInvalidObjLink, "invalid_objlnk"},
}

// ErrorKind classifies err by the first sentinel it wraps, or "other".
func ErrorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "other"
}

func joinPaths(paths []node.Path) string {
	sorted := slices.Clone(paths)
	node.SortPaths(sorted)
	parts := make([]string, len(sorted))
	for i, p := range sorted {
		parts[i] = p.String()
	}
	return strings.Join(parts, ",")
}
