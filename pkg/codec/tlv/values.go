package tlv

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

// EncodeInteger encodes i in the shortest two's complement form of 1, 2, 4
// or 8 bytes.
func EncodeInteger(i int64) []byte {
	switch {
	case i >= math.MinInt8 && i <= math.MaxInt8:
		return []byte{byte(i)}
	case i >= math.MinInt16 && i <= math.MaxInt16:
		return binary.BigEndian.AppendUint16(nil, uint16(i))
	case i >= math.MinInt32 && i <= math.MaxInt32:
		return binary.BigEndian.AppendUint32(nil, uint32(i))
	}
	return binary.BigEndian.AppendUint64(nil, uint64(i))
}

// DecodeInteger decodes a big-endian two's complement integer of 1 to 8
// bytes.
func DecodeInteger(b []byte) (int64, error) {
	if len(b) == 0 || len(b) > 8 {
		return 0, fmt.Errorf("invalid length %d for an integer value", len(b))
	}
	var v int64
	if b[0]&0x80 != 0 {
		v = -1
	}
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v, nil
}

// EncodeUnsigned encodes u in the shortest unsigned form of 1, 2, 4 or 8
// bytes.
func EncodeUnsigned(u value.ULong) []byte {
	switch {
	case u <= math.MaxUint8:
		return []byte{byte(u)}
	case u <= math.MaxUint16:
		return binary.BigEndian.AppendUint16(nil, uint16(u))
	case u <= math.MaxUint32:
		return binary.BigEndian.AppendUint32(nil, uint32(u))
	}
	return binary.BigEndian.AppendUint64(nil, uint64(u))
}

// DecodeUnsigned decodes a big-endian unsigned integer of 1 to 8 bytes.
func DecodeUnsigned(b []byte) (value.ULong, error) {
	if len(b) == 0 || len(b) > 8 {
		return 0, fmt.Errorf("invalid length %d for an unsigned integer value", len(b))
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return value.ULong(v), nil
}

// EncodeFloat encodes f on 4 bytes when float32 holds it exactly, else on
// 8 bytes.
func EncodeFloat(f float64) []byte {
	if f32 := float32(f); float64(f32) == f || math.IsNaN(f) {
		return binary.BigEndian.AppendUint32(nil, math.Float32bits(f32))
	}
	return binary.BigEndian.AppendUint64(nil, math.Float64bits(f))
}

// DecodeFloat decodes an IEEE 754 float of 4 or 8 bytes.
func DecodeFloat(b []byte) (float64, error) {
	switch len(b) {
	case 4:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(b))), nil
	case 8:
		return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
	}
	return 0, fmt.Errorf("invalid length %d for a float value", len(b))
}

// EncodeBoolean encodes b as a single 0 or 1 byte.
func EncodeBoolean(b bool) []byte {
	if b {
		return []byte{1}
	}
	return []byte{0}
}

// ErrBooleanByte is returned by DecodeBoolean for a byte other than 0 or 1.
// The returned value is false.
var ErrBooleanByte = fmt.Errorf("boolean byte is neither 0 nor 1")

// DecodeBoolean decodes a single byte boolean.
func DecodeBoolean(b []byte) (bool, error) {
	if len(b) != 1 {
		return false, fmt.Errorf("invalid length %d for a boolean value", len(b))
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("%w: 0x%02x", ErrBooleanByte, b[0])
}

// EncodeTime encodes t as an integer number of seconds since the epoch.
func EncodeTime(t time.Time) []byte {
	return EncodeInteger(t.Unix())
}

// DecodeTime decodes an integer number of seconds since the epoch.
func DecodeTime(b []byte) (time.Time, error) {
	s, err := DecodeInteger(b)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(s, 0).UTC(), nil
}

// EncodeObjLnk encodes l as two big-endian 16-bit ids.
func EncodeObjLnk(l value.ObjectLink) []byte {
	b := binary.BigEndian.AppendUint16(nil, l.ObjectID)
	return binary.BigEndian.AppendUint16(b, l.InstanceID)
}

// DecodeObjLnk decodes two big-endian 16-bit ids.
func DecodeObjLnk(b []byte) (value.ObjectLink, error) {
	if len(b) != 4 {
		return value.ObjectLink{}, fmt.Errorf("invalid length %d for an object link value", len(b))
	}
	return value.ObjectLink{
		ObjectID:   binary.BigEndian.Uint16(b),
		InstanceID: binary.BigEndian.Uint16(b[2:]),
	}, nil
}

// EncodeValue encodes v, a valid value of type t.
func EncodeValue(t value.Type, v any) ([]byte, error) {
	if err := value.Check(t, v); err != nil {
		return nil, err
	}
	switch t {
	case value.TypeString:
		return []byte(v.(string)), nil
	case value.TypeInteger:
		return EncodeInteger(v.(int64)), nil
	case value.TypeUnsigned:
		return EncodeUnsigned(v.(value.ULong)), nil
	case value.TypeFloat:
		return EncodeFloat(v.(float64)), nil
	case value.TypeBoolean:
		return EncodeBoolean(v.(bool)), nil
	case value.TypeOpaque:
		return v.([]byte), nil
	case value.TypeTime:
		return EncodeTime(v.(time.Time)), nil
	case value.TypeObjLnk:
		return EncodeObjLnk(v.(value.ObjectLink)), nil
	}
	return nil, fmt.Errorf("%w: %s", value.ErrTypeMismatch, t)
}

// DecodeValue decodes b as a value of type t. A boolean byte other than 0
// or 1 decodes as false with an error wrapping ErrBooleanByte.
func DecodeValue(t value.Type, b []byte) (any, error) {
	switch t {
	case value.TypeString:
		return string(b), nil
	case value.TypeInteger:
		return DecodeInteger(b)
	case value.TypeUnsigned:
		return DecodeUnsigned(b)
	case value.TypeFloat:
		return DecodeFloat(b)
	case value.TypeBoolean:
		return DecodeBoolean(b)
	case value.TypeOpaque:
		return append([]byte{}, b...), nil
	case value.TypeTime:
		return DecodeTime(b)
	case value.TypeObjLnk:
		return DecodeObjLnk(b)
	}
	return nil, fmt.Errorf("%w: %s can not hold a value", value.ErrTypeMismatch, t)
}
