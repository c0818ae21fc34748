package tlv

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

func TestEncodeInteger(t *testing.T) {
	tests := []struct {
		in   int64
		want []byte
	}{
		{0, []byte{0}},
		{-1, []byte{0xff}},
		{127, []byte{0x7f}},
		{128, []byte{0x00, 0x80}},
		{-129, []byte{0xff, 0x7f}},
		{3800, []byte{0x0e, 0xd8}},
		{305419896, []byte{0x12, 0x34, 0x56, 0x78}},
		{math.MaxInt32 + 1, []byte{0, 0, 0, 0, 0x80, 0, 0, 0}},
		{math.MinInt64, []byte{0x80, 0, 0, 0, 0, 0, 0, 0}},
	}
	for _, tt := range tests {
		got := EncodeInteger(tt.in)
		assert.Equal(t, tt.want, got, "encode %d", tt.in)
		back, err := DecodeInteger(got)
		require.NoError(t, err)
		assert.Equal(t, tt.in, back)
	}

	_, err := DecodeInteger(nil)
	assert.Error(t, err)
	_, err = DecodeInteger(make([]byte, 9))
	assert.Error(t, err)

	// 3 byte integers are not produced but are accepted.
	v, err := DecodeInteger([]byte{0xff, 0xff, 0xfe})
	require.NoError(t, err)
	assert.Equal(t, int64(-2), v)
}

func TestUnsigned(t *testing.T) {
	assert.Equal(t, []byte{0xff}, EncodeUnsigned(255))
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, EncodeUnsigned(value.MaxULong))

	v, err := DecodeUnsigned([]byte{0xff, 0xff})
	require.NoError(t, err)
	assert.Equal(t, value.ULong(65535), v)
}

func TestFloat(t *testing.T) {
	assert.Len(t, EncodeFloat(1.5), 4)
	assert.Len(t, EncodeFloat(0.1), 8)

	f, err := DecodeFloat(EncodeFloat(0.1))
	require.NoError(t, err)
	assert.Equal(t, 0.1, f)

	_, err = DecodeFloat([]byte{1, 2})
	assert.Error(t, err)
}

func TestBoolean(t *testing.T) {
	b, err := DecodeBoolean([]byte{1})
	require.NoError(t, err)
	assert.True(t, b)

	b, err = DecodeBoolean([]byte{2})
	assert.True(t, errors.Is(err, ErrBooleanByte))
	assert.False(t, b)

	_, err = DecodeBoolean([]byte{0, 1})
	assert.Error(t, err)
}

func TestTimeAndObjLnk(t *testing.T) {
	ts := time.Unix(1367491215, 0).UTC()
	assert.Equal(t, []byte{0x51, 0x82, 0x42, 0x8f}, EncodeTime(ts))
	back, err := DecodeTime([]byte{0x51, 0x82, 0x42, 0x8f})
	require.NoError(t, err)
	assert.True(t, ts.Equal(back))

	l := value.ObjectLink{ObjectID: 66, InstanceID: 1}
	assert.Equal(t, []byte{0, 0x42, 0, 1}, EncodeObjLnk(l))
	got, err := DecodeObjLnk([]byte{0xff, 0xff, 0xff, 0xff})
	require.NoError(t, err)
	assert.True(t, got.IsNull())
	_, err = DecodeObjLnk([]byte{0, 1})
	assert.Error(t, err)
}

func TestEncodeValueChecksType(t *testing.T) {
	_, err := EncodeValue(value.TypeInteger, "12")
	assert.True(t, errors.Is(err, value.ErrTypeMismatch))

	_, err = DecodeValue(value.TypeNone, []byte{1})
	assert.True(t, errors.Is(err, value.ErrTypeMismatch))

	b := []byte{1, 2}
	v, err := DecodeValue(value.TypeOpaque, b)
	require.NoError(t, err)
	b[0] = 9
	assert.Equal(t, []byte{1, 2}, v)
}

func TestValueProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("integers survive encoding", prop.ForAll(
		func(i int64) bool {
			b := EncodeInteger(i)
			back, err := DecodeInteger(b)
			return err == nil && back == i && (len(b) == 1 || len(b) == 2 || len(b) == 4 || len(b) == 8)
		},
		gen.Int64(),
	))

	properties.Property("unsigned integers survive encoding", prop.ForAll(
		func(u uint64) bool {
			back, err := DecodeUnsigned(EncodeUnsigned(value.ULong(u)))
			return err == nil && uint64(back) == u
		},
		gen.UInt64(),
	))

	properties.Property("floats survive encoding", prop.ForAll(
		func(f float64) bool {
			back, err := DecodeFloat(EncodeFloat(f))
			return err == nil && back == f
		},
		gen.Float64(),
	))

	properties.Property("float32 values use 4 bytes", prop.ForAll(
		func(f float32) bool {
			return len(EncodeFloat(float64(f))) == 4
		},
		gen.Float32(),
	))

	properties.TestingRun(t)
}
