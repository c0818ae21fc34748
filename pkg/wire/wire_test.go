package wire

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mash-protocol/lwm2m-go/pkg/codec"
	"github.com/mash-protocol/lwm2m-go/pkg/log"
	"github.com/mash-protocol/lwm2m-go/pkg/model"
	"github.com/mash-protocol/lwm2m-go/pkg/node"
	"github.com/mash-protocol/lwm2m-go/pkg/value"
	"github.com/mash-protocol/lwm2m-go/pkg/version"
)

type vectorFile struct {
	Vectors []vector `yaml:"vectors"`
}

type vector struct {
	Name       string    `yaml:"name"`
	Path       string    `yaml:"path"`
	DecodeOnly bool      `yaml:"decode_only"`
	Payloads   []payload `yaml:"payloads"`
}

type payload struct {
	Format codec.ContentFormat `yaml:"format"`
	Hex    *string             `yaml:"hex"`
	Text   *string             `yaml:"text"`
	JSON   *string             `yaml:"json"`
}

func (p payload) data(t *testing.T) []byte {
	t.Helper()
	switch {
	case p.Hex != nil:
		b, err := hex.DecodeString(strings.Join(strings.Fields(*p.Hex), ""))
		require.NoError(t, err)
		return b
	case p.Text != nil:
		return []byte(*p.Text)
	case p.JSON != nil:
		return []byte(*p.JSON)
	}
	t.Fatalf("payload %s has no content", p.Format)
	return nil
}

func loadVectors(t *testing.T) []vector {
	t.Helper()
	data, err := os.ReadFile("testdata/vectors.yaml")
	require.NoError(t, err)
	var f vectorFile
	require.NoError(t, yaml.Unmarshal(data, &f))
	require.NotEmpty(t, f.Vectors)
	return f.Vectors
}

func TestVectors(t *testing.T) {
	dec := NewDecoder(WithModel(model.Default()))
	enc := NewEncoder(WithModel(model.Default()))

	for _, v := range loadVectors(t) {
		t.Run(v.Name, func(t *testing.T) {
			path := node.MustParsePath(v.Path)

			var want node.Node
			for _, p := range v.Payloads {
				n, err := dec.Decode(p.data(t), p.Format, path)
				require.NoError(t, err, "decode %s", p.Format)
				if want == nil {
					want = n
					continue
				}
				assert.True(t, node.Equal(want, n), "%s decodes to %v, want %v", p.Format, n, want)
			}
			if v.DecodeOnly {
				return
			}

			for _, p := range v.Payloads {
				out, err := enc.Encode(want, p.Format, path)
				require.NoError(t, err, "encode %s", p.Format)
				switch {
				case p.JSON != nil:
					assert.JSONEq(t, *p.JSON, string(out), "encode %s", p.Format)
				default:
					assert.Equal(t, hex.EncodeToString(p.data(t)), hex.EncodeToString(out), "encode %s", p.Format)
				}
			}
		})
	}
}

func TestFormats(t *testing.T) {
	dec := NewDecoder()
	assert.Equal(t, []codec.ContentFormat{
		codec.FormatText,
		codec.FormatOpaque,
		codec.FormatCBOR,
		codec.FormatSenMLJSON,
		codec.FormatSenMLCBOR,
		codec.FormatLegacyTLV,
		codec.FormatLegacyJSON,
		codec.FormatTLV,
		codec.FormatJSON,
	}, dec.Formats())

	assert.True(t, dec.IsSupported(codec.FormatLegacyTLV))
	assert.False(t, dec.IsSupported(codec.FormatLink))
	assert.False(t, NewEncoder().IsSupported(codec.ContentFormat(12345)))
}

func TestEnablerVersion(t *testing.T) {
	v10, err := version.LoadManifest("1.0")
	require.NoError(t, err)

	dec := NewDecoder(WithModel(model.Default()), WithVersion(v10))
	assert.Equal(t, []codec.ContentFormat{
		codec.FormatText,
		codec.FormatOpaque,
		codec.FormatLegacyTLV,
		codec.FormatLegacyJSON,
		codec.FormatTLV,
		codec.FormatJSON,
	}, dec.Formats())
	assert.False(t, dec.IsSupported(codec.FormatSenMLJSON))

	n, err := dec.Decode([]byte{0xc1, 0x09, 0x64}, codec.FormatTLV, node.MustPath(3, 0, 9))
	require.NoError(t, err)

	_, err = dec.Decode([]byte("[]"), codec.FormatSenMLJSON, node.MustPath(3, 0, 9))
	assert.True(t, errors.Is(err, codec.ErrUnsupportedFormat), "got %v", err)
	assert.Contains(t, err.Error(), "LwM2M 1.0")

	enc := NewEncoder(WithVersion(v10), WithEncoder(65000, upperEncoder{}))
	_, err = enc.Encode(n, codec.FormatCBOR, node.MustPath(3, 0, 9))
	assert.True(t, errors.Is(err, codec.ErrUnsupportedFormat), "got %v", err)

	// Custom formats stay available.
	assert.True(t, enc.IsSupported(65000))
}

func TestUnsupportedFormat(t *testing.T) {
	dec := NewDecoder(WithModel(model.Default()))
	_, err := dec.Decode([]byte("x"), codec.FormatLink, node.MustPath(3, 0, 0))
	assert.True(t, errors.Is(err, codec.ErrUnsupportedFormat), "got %v", err)

	var cerr *codec.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, codec.FormatLink, cerr.Format)

	_, err = NewEncoder().Encode(node.NewStringResource(0, "x"), codec.ContentFormat(9999), node.MustPath(3, 0, 0))
	assert.True(t, errors.Is(err, codec.ErrUnsupportedFormat), "got %v", err)
}

func TestUnsupportedOperation(t *testing.T) {
	dec := NewDecoder(WithModel(model.Default()))
	enc := NewEncoder(WithModel(model.Default()))

	_, err := dec.DecodeNodes([]byte("1"), codec.FormatText, []node.Path{node.MustPath(3, 0, 9)})
	assert.True(t, errors.Is(err, codec.ErrUnsupported), "got %v", err)

	_, err = dec.DecodePaths([]byte{}, codec.FormatTLV)
	assert.True(t, errors.Is(err, codec.ErrUnsupported), "got %v", err)

	_, err = dec.DecodeTimestampedNodes([]byte("{}"), codec.FormatJSON, nil)
	assert.True(t, errors.Is(err, codec.ErrUnsupported), "got %v", err)

	_, err = enc.EncodeTimestampedData([]node.TimestampedNode{{Node: node.NewIntegerResource(9, 1)}}, codec.FormatOpaque, node.MustPath(3, 0, 9))
	assert.True(t, errors.Is(err, codec.ErrUnsupported), "got %v", err)

	_, err = enc.EncodeNodes(map[node.Path]node.Node{node.MustPath(3, 0, 9): node.NewIntegerResource(9, 1)}, codec.FormatTLV)
	assert.True(t, errors.Is(err, codec.ErrUnsupported), "got %v", err)

	_, err = enc.Encode(node.MustMultipleResource(6, value.TypeInteger, node.NewIntegerInstance(0, 1)), codec.FormatText, node.MustPath(3, 0, 6))
	assert.True(t, errors.Is(err, codec.ErrUnsupported), "got %v", err)

	_, err = enc.Encode(nil, codec.FormatTLV, node.MustPath(3, 0))
	assert.True(t, errors.Is(err, node.ErrInvalidNode), "got %v", err)
}

func TestLegacyFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	dec := NewDecoder(WithModel(model.Default()), WithLogger(logger))

	n, err := dec.Decode([]byte{0xC1, 0x09, 0x64}, codec.FormatLegacyTLV, node.MustPath(3, 0, 9))
	require.NoError(t, err)
	assert.True(t, node.Equal(node.NewIntegerResource(9, 100), n))
	assert.Contains(t, buf.String(), "legacy content format")
	assert.Contains(t, buf.String(), `"format":1542`)

	enc := NewEncoder(WithModel(model.Default()))
	out, err := enc.Encode(n, codec.FormatLegacyJSON, node.MustPath(3, 0, 9))
	require.NoError(t, err)
	assert.JSONEq(t, `{"bn":"/3/0/9","e":[{"v":100}]}`, string(out))
}

type fixedDecoder struct{ n node.Node }

func (d fixedDecoder) Decode([]byte, node.Path, codec.Options) (node.Node, error) { return d.n, nil }

type upperEncoder struct{}

func (upperEncoder) Encode(n node.Node, _ node.Path, _ codec.Options) ([]byte, error) {
	r, ok := n.(*node.SingleResource)
	if !ok {
		return nil, fmt.Errorf("%w: not a single resource", codec.ErrUnsupported)
	}
	return []byte(strings.ToUpper(fmt.Sprint(r.Value()))), nil
}

func TestCustomCodecs(t *testing.T) {
	custom := codec.ContentFormat(65000)
	dec := NewDecoder(WithDecoder(custom, fixedDecoder{node.NewStringResource(0, "x")}))
	enc := NewEncoder(WithEncoder(custom, upperEncoder{}))

	n, err := dec.Decode(nil, custom, node.MustPath(3, 0, 0))
	require.NoError(t, err)
	assert.True(t, node.Equal(node.NewStringResource(0, "x"), n))

	// A node that is not the one the path addresses is rejected.
	_, err = dec.Decode(nil, custom, node.MustPath(3, 0, 1))
	assert.True(t, errors.Is(err, node.ErrPathMismatch), "got %v", err)

	out, err := enc.Encode(n, custom, node.MustPath(3, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "X", string(out))

	// Errors of custom codecs are wrapped in a codec error.
	_, err = enc.Encode(node.MustObjectInstance(0), custom, node.MustPath(3, 0))
	var cerr *codec.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, custom, cerr.Format)
	assert.True(t, errors.Is(err, codec.ErrUnsupported))
}

type recorder struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *recorder) Log(e log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func sequentialIDs() func() string {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("trace-%d", n)
	}
}

func TestTrace(t *testing.T) {
	rec := &recorder{}
	opts := []Option{WithModel(model.Default()), WithTraceLogger(rec), withTraceIDs(sequentialIDs()), WithRootPath("/lwm2m")}
	dec := NewDecoder(opts...)
	enc := NewEncoder(opts...)

	out, err := enc.Encode(node.NewIntegerResource(9, 100), codec.FormatSenMLJSON, node.MustPath(3, 0, 9))
	require.NoError(t, err)
	_, err = dec.Decode(out, codec.FormatSenMLJSON, node.MustPath(3, 0, 9))
	require.NoError(t, err)
	_, err = dec.Decode([]byte("not json"), codec.FormatSenMLJSON, node.MustPath(3, 0, 9))
	require.Error(t, err)

	require.Len(t, rec.events, 3)

	e := rec.events[0]
	assert.Equal(t, "trace-1", e.TraceID)
	assert.Equal(t, log.DirectionEncode, e.Direction)
	assert.Equal(t, log.OperationNode, e.Operation)
	assert.Equal(t, codec.FormatSenMLJSON, e.Format)
	assert.Equal(t, "/3/0/9", e.Path)
	assert.Equal(t, "/lwm2m", e.RootPath)
	assert.Equal(t, out, e.Payload)
	assert.Equal(t, len(out), e.Size)
	assert.Equal(t, node.KindResource.String(), e.NodeKind)
	assert.Nil(t, e.Error)

	e = rec.events[1]
	assert.Equal(t, "trace-2", e.TraceID)
	assert.Equal(t, log.DirectionDecode, e.Direction)
	assert.Equal(t, node.KindResource.String(), e.NodeKind)

	e = rec.events[2]
	require.NotNil(t, e.Error)
	assert.Equal(t, "malformed", e.Error.Kind)
	assert.Empty(t, e.NodeKind)
}

func TestTraceToFile(t *testing.T) {
	path := t.TempDir() + "/codec.ltrace"
	fl, err := log.NewFileLogger(path)
	require.NoError(t, err)

	dec := NewDecoder(WithModel(model.Default()), WithTraceLogger(fl))
	paths := []node.Path{node.MustPath(3, 0, 9), node.MustPath(1, 0, 1)}
	_, err = dec.DecodeNodes([]byte(`[{"bn":"/3/0/9","v":80},{"bn":"/1/0/1","v":300}]`), codec.FormatSenMLJSON, paths)
	require.NoError(t, err)
	require.NoError(t, fl.Close())

	r, err := log.NewReader(path)
	require.NoError(t, err)
	defer r.Close()
	events, err := r.All()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, log.OperationNodes, events[0].Operation)
	assert.Equal(t, "/1/0/1,/3/0/9", events[0].Path)
	assert.Equal(t, 2, events[0].Nodes)
	assert.Len(t, events[0].TraceID, 36)
}

func TestMultiNodes(t *testing.T) {
	dec := NewDecoder(WithModel(model.Default()))
	enc := NewEncoder(WithModel(model.Default()))

	nodes := map[node.Path]node.Node{
		node.MustPath(3, 0, 9): node.NewIntegerResource(9, 80),
		node.MustPath(1, 0, 1): node.NewIntegerResource(1, 300),
	}
	for _, f := range []codec.ContentFormat{codec.FormatSenMLJSON, codec.FormatSenMLCBOR} {
		out, err := enc.EncodeNodes(nodes, f)
		require.NoError(t, err)

		got, err := dec.DecodeNodes(out, f, []node.Path{node.MustPath(3, 0, 9), node.MustPath(1, 0, 1)})
		require.NoError(t, err)
		for p, n := range nodes {
			assert.True(t, node.Equal(n, got[p]), "%s %s: got %v", f, p, got[p])
		}

		paths := []node.Path{node.MustPath(3, 0, 9), node.MustPath(1, 0)}
		out, err = enc.EncodePaths(paths, f)
		require.NoError(t, err)
		gotPaths, err := dec.DecodePaths(out, f)
		require.NoError(t, err)
		assert.Equal(t, paths, gotPaths)
	}
}

func TestTimestamped(t *testing.T) {
	now := time.Unix(1700000000, 0)
	dec := NewDecoder(WithModel(model.Default()), WithClock(func() time.Time { return now }))
	enc := NewEncoder(WithModel(model.Default()))

	nodes, err := dec.DecodeTimestampedData([]byte(`[{"bn":"/3303/0/5700","v":20.5,"t":-60},{"v":21.0,"t":0}]`),
		codec.FormatSenMLJSON, node.MustPath(3303, 0, 5700))
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.True(t, nodes[0].Timestamp.Equal(now.Add(-time.Minute)))
	assert.True(t, nodes[1].Timestamp.Equal(now))

	for _, f := range []codec.ContentFormat{codec.FormatJSON, codec.FormatSenMLJSON, codec.FormatSenMLCBOR} {
		out, err := enc.EncodeTimestampedData(nodes, f, node.MustPath(3303, 0, 5700))
		require.NoError(t, err, "%s", f)
		got, err := dec.DecodeTimestampedData(out, f, node.MustPath(3303, 0, 5700))
		require.NoError(t, err, "%s", f)
		require.Len(t, got, 2, "%s", f)
		for i := range nodes {
			assert.True(t, nodes[i].Timestamp.Equal(got[i].Timestamp), "%s %d", f, i)
			assert.True(t, node.Equal(nodes[i].Node, got[i].Node), "%s %d", f, i)
		}
	}

	tn, err := node.NewTimestampedNodesBuilder().
		Put(now, node.MustPath(3303, 0, 5700), node.NewFloatResource(5700, 19.5)).
		Put(now, node.MustPath(3, 0, 9), node.NewIntegerResource(9, 70)).
		Build()
	require.NoError(t, err)
	out, err := enc.EncodeTimestampedNodes(tn, codec.FormatSenMLCBOR)
	require.NoError(t, err)
	got, err := dec.DecodeTimestampedNodes(out, codec.FormatSenMLCBOR, nil)
	require.NoError(t, err)
	assert.Equal(t, tn.Len(), got.Len())
	assert.True(t, node.Equal(node.NewIntegerResource(9, 70), got.NodesAt(now)[node.MustPath(3, 0, 9)]))
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{codec.Errorf(codec.FormatTLV, node.RootPath, codec.ErrMalformed, "x"), "malformed"},
		{codec.Errorf(codec.FormatTLV, node.RootPath, value.ErrTypeMismatch, "x"), "type_mismatch"},
		{fmt.Errorf("wrapped: %w", node.ErrDuplicateID), "duplicate_id"},
		{codec.Errorf(codec.FormatText, node.RootPath, codec.ErrUnsupported, "x"), "unsupported"},
		{errors.New("other"), "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err), "%v", tt.err)
	}
}

func TestConcurrentUse(t *testing.T) {
	dec := NewDecoder(WithModel(model.Default()), WithTraceLogger(&recorder{}))
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data := fmt.Appendf(nil, `[{"bn":"/3/0/9","v":%d}]`, i)
			n, err := dec.Decode(data, codec.FormatSenMLJSON, node.MustPath(3, 0, 9))
			if err != nil {
				errs <- err
				return
			}
			if !node.Equal(node.NewIntegerResource(9, int64(i)), n) {
				errs <- fmt.Errorf("goroutine %d decoded %v", i, n)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestIntegerRoundTripProperty(t *testing.T) {
	dec := NewDecoder(WithModel(model.Default()))
	enc := NewEncoder(WithModel(model.Default()))
	path := node.MustPath(1024, 0, 3)
	formats := []codec.ContentFormat{
		codec.FormatText, codec.FormatCBOR, codec.FormatTLV, codec.FormatJSON,
		codec.FormatSenMLJSON, codec.FormatSenMLCBOR,
	}

	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	properties.Property("integers survive every format", prop.ForAll(
		func(v int64) bool {
			want := node.NewIntegerResource(3, v)
			for _, f := range formats {
				out, err := enc.Encode(want, f, path)
				if err != nil {
					return false
				}
				n, err := dec.Decode(out, f, path)
				if err != nil || !node.Equal(want, n) {
					return false
				}
			}
			return true
		},
		gen.Int64(),
	))
	properties.Property("strings survive every format", prop.ForAll(
		func(s string) bool {
			want := node.NewStringResource(0, s)
			for _, f := range formats {
				out, err := enc.Encode(want, f, node.MustPath(1024, 0, 0))
				if err != nil {
					return false
				}
				n, err := dec.Decode(out, f, node.MustPath(1024, 0, 0))
				if err != nil || !node.Equal(want, n) {
					return false
				}
			}
			return true
		},
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
	))
	properties.TestingRun(t)
}
