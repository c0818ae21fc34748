package tlv

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mash-protocol/lwm2m-go/pkg/codec"
)

func TestDecodeHeaders(t *testing.T) {
	tests := []struct {
		name       string
		hex        string
		want       []TLV
		decodeOnly bool
	}{
		{
			name: "3-bit length",
			hex:  "c10055",
			want: []TLV{{Type: TypeResourceValue, ID: 0, Value: []byte{0x55}}},
		},
		{
			name: "16-bit id",
			hex:  "e1010355",
			want: []TLV{{Type: TypeResourceValue, ID: 0x0103, Value: []byte{0x55}}},
		},
		{
			// Encode picks the shorter 3-bit length for this value.
			name:       "8-bit length",
			hex:        "c8000255aa",
			want:       []TLV{{Type: TypeResourceValue, ID: 0, Value: []byte{0x55, 0xaa}}},
			decodeOnly: true,
		},
		{
			name: "multiple resource",
			hex:  "86064100014101 05",
			want: []TLV{{Type: TypeMultipleResource, ID: 6, Children: []TLV{
				{Type: TypeResourceInstance, ID: 0, Value: []byte{1}},
				{Type: TypeResourceInstance, ID: 1, Value: []byte{5}},
			}}},
		},
		{
			name: "object instance",
			hex:  "0300c10001",
			want: []TLV{{Type: TypeObjectInstance, ID: 0, Children: []TLV{
				{Type: TypeResourceValue, ID: 0, Value: []byte{1}},
			}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := mustHex(t, tt.hex)
			got, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.decodeOnly {
				return
			}

			out, err := Encode(got)
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, h := range []string{
		"c100",     // missing value
		"c800",     // missing length
		"c80005aa", // value shorter than length
		"e001",     // truncated 16-bit id
		"0302c101", // nested value truncated
	} {
		t.Run(h, func(t *testing.T) {
			_, err := Decode(mustHex(t, h))
			assert.True(t, errors.Is(err, codec.ErrMalformed), "got %v", err)
		})
	}
}

func TestEncodeLengths(t *testing.T) {
	for _, n := range []int{0, 7, 8, 255, 256, 65535, 65536} {
		v := bytes.Repeat([]byte{0xab}, n)
		data, err := Encode([]TLV{{Type: TypeResourceValue, ID: 300, Value: v}})
		require.NoError(t, err)
		got, err := Decode(data)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, uint16(300), got[0].ID)
		assert.Len(t, got[0].Value, n)
	}

	_, err := Encode([]TLV{{Type: TypeResourceValue, Value: make([]byte, MaxLength+1)}})
	assert.True(t, errors.Is(err, codec.ErrUnsupported))
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(string(bytes.ReplaceAll([]byte(s), []byte(" "), nil)))
	require.NoError(t, err)
	return b
}
