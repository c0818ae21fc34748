package cbor

import (
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mash-protocol/lwm2m-go/pkg/codec"
	"github.com/mash-protocol/lwm2m-go/pkg/model"
	"github.com/mash-protocol/lwm2m-go/pkg/node"
	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

func TestRoundTrip(t *testing.T) {
	opts := codec.Options{Model: model.Default()}
	tests := []struct {
		name string
		path node.Path
		node node.Node
		hex  string
	}{
		{"string", node.MustPath(3, 0, 0), node.NewStringResource(0, "abc"), "63616263"},
		{"integer", node.MustPath(3, 0, 9), node.NewIntegerResource(9, 100), "1864"},
		{"negative", node.MustPath(1024, 0, 3), node.NewIntegerResource(3, -1), "20"},
		{"unsigned", node.MustPath(1024, 0, 4), node.NewUnsignedResource(4, value.MaxULong), "1bffffffffffffffff"},
		{"float", node.MustPath(1024, 0, 1), node.NewFloatResource(1, 1.5), "f93e00"},
		{"boolean", node.MustPath(1, 0, 6), node.NewBooleanResource(6, true), "f5"},
		{"opaque", node.MustPath(1024, 0, 5), node.NewOpaqueResource(5, []byte{0xab, 0xcd, 0xef}), "43abcdef"},
		{"time", node.MustPath(3, 0, 13), node.NewTimeResource(13, time.Unix(1367491215, 0)), "c11a5182428f"},
		{"objlnk", node.MustPath(1024, 0, 7), node.NewObjLnkResource(7, value.ObjectLink{ObjectID: 66, InstanceID: 1}), "6436363a31"},
		{"resource instance", node.MustPath(3, 0, 7, 1), node.NewIntegerInstance(1, 5000), "191388"},
	}
	var c Codec
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := c.Encode(tt.node, tt.path, opts)
			require.NoError(t, err)
			assert.Equal(t, tt.hex, hex.EncodeToString(out))

			n, err := c.Decode(out, tt.path, opts)
			require.NoError(t, err)
			assert.True(t, node.Equal(tt.node, n), "got %v", n)
		})
	}
}

func TestDecodeWithoutModel(t *testing.T) {
	tests := []struct {
		hex  string
		want node.Node
	}{
		{"f4", node.NewBooleanResource(1, false)},
		{"1864", node.NewIntegerResource(1, 100)},
		{"1bffffffffffffffff", node.NewUnsignedResource(1, value.MaxULong)},
		{"fb3ff8000000000000", node.NewFloatResource(1, 1.5)},
		{"63616263", node.NewStringResource(1, "abc")},
		{"43abcdef", node.NewOpaqueResource(1, []byte{0xab, 0xcd, 0xef})},
		{"c11a5182428f", node.NewTimeResource(1, time.Unix(1367491215, 0))},
	}
	var c Codec
	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			data, err := hex.DecodeString(tt.hex)
			require.NoError(t, err)
			n, err := c.Decode(data, node.MustPath(10234, 0, 1), codec.Options{})
			require.NoError(t, err)
			assert.True(t, node.Equal(tt.want, n), "got %v", n)
		})
	}
}

func TestErrors(t *testing.T) {
	var c Codec
	opts := codec.Options{Model: model.Default()}

	// Text for an integer resource.
	_, err := c.Decode([]byte{0x61, 0x31}, node.MustPath(3, 0, 9), opts)
	assert.True(t, errors.Is(err, value.ErrTypeMismatch), "got %v", err)

	_, err = c.Decode([]byte{0x1a, 0x00}, node.MustPath(3, 0, 9), opts)
	assert.True(t, errors.Is(err, codec.ErrMalformed), "got %v", err)

	// Arrays have no lwm2m type.
	_, err = c.Decode([]byte{0x80}, node.MustPath(10234, 0, 1), codec.Options{})
	assert.True(t, errors.Is(err, codec.ErrUnknownType), "got %v", err)

	_, err = c.Decode([]byte{0xf5}, node.MustPath(3, 0), opts)
	assert.True(t, errors.Is(err, codec.ErrUnsupported))

	_, err = c.Encode(node.MustMultipleResource(6, value.TypeInteger), node.MustPath(3, 0, 6), opts)
	assert.True(t, errors.Is(err, codec.ErrUnsupported))

	// Integer Values is multiple.
	_, err = c.Decode([]byte{0x05}, node.MustPath(1024, 0, 13), opts)
	assert.True(t, errors.Is(err, codec.ErrUnsupported), "got %v", err)

	_, err = c.Encode(node.NewIntegerResource(13, 5), node.MustPath(1024, 0, 13), opts)
	assert.True(t, errors.Is(err, codec.ErrUnsupported), "got %v", err)

	n, err := c.Decode([]byte{0x05}, node.MustPath(1024, 0, 13, 2), opts)
	require.NoError(t, err)
	assert.True(t, node.Equal(node.NewIntegerInstance(2, 5), n))
}
