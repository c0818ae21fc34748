package tlv

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mash-protocol/lwm2m-go/pkg/codec"
)

// Type is the identifier type carried in the two high bits of a TLV header.
type Type uint8

// TLV identifier types.
const (
	TypeObjectInstance   Type = 0b00
	TypeResourceInstance Type = 0b01
	TypeMultipleResource Type = 0b10
	TypeResourceValue    Type = 0b11
)

// MaxLength is the largest value length a 24-bit length field can carry.
const MaxLength = 1<<24 - 1

// String returns the type name.
func (t Type) String() string {
	switch t {
	case TypeObjectInstance:
		return "OBJECT_INSTANCE"
	case TypeResourceInstance:
		return "RESOURCE_INSTANCE"
	case TypeMultipleResource:
		return "MULTIPLE_RESOURCE"
	case TypeResourceValue:
		return "RESOURCE_VALUE"
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// HasValue reports whether TLVs of this type carry a value rather than
// nested TLVs.
func (t Type) HasValue() bool {
	return t == TypeResourceInstance || t == TypeResourceValue
}

// TLV is one decoded Type-Length-Value entry. Value is set for resource
// values and resource instances, Children for object instances and
// multiple resources.
type TLV struct {
	Type     Type
	ID       uint16
	Value    []byte
	Children []TLV
}

func (t TLV) String() string {
	if t.Type.HasValue() {
		return fmt.Sprintf("%s[%d]=%s", t.Type, t.ID, hex.EncodeToString(t.Value))
	}
	parts := make([]string, len(t.Children))
	for i, c := range t.Children {
		parts[i] = c.String()
	}
	return fmt.Sprintf("%s[%d]{%s}", t.Type, t.ID, strings.Join(parts, ", "))
}

// Decode parses a sequence of TLVs. Nested TLVs of object instances and
// multiple resources are decoded recursively.
func Decode(data []byte) ([]TLV, error) {
	out, err := decodeAll(data, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", codec.ErrMalformed, err)
	}
	return out, nil
}

func decodeAll(data []byte, base int) ([]TLV, error) {
	var out []TLV
	for off := 0; off < len(data); {
		t, n, err := decodeOne(data[off:], base+off)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
		off += n
	}
	return out, nil
}

func decodeOne(data []byte, at int) (TLV, int, error) {
	header := data[0]
	t := TLV{Type: Type(header >> 6)}
	off := 1

	if header&0b0010_0000 == 0 {
		if len(data) < off+1 {
			return TLV{}, 0, fmt.Errorf("offset %d: truncated identifier", at)
		}
		t.ID = uint16(data[off])
		off++
	} else {
		if len(data) < off+2 {
			return TLV{}, 0, fmt.Errorf("offset %d: truncated identifier", at)
		}
		t.ID = binary.BigEndian.Uint16(data[off:])
		off += 2
	}

	var length int
	switch (header >> 3) & 0b11 {
	case 0:
		length = int(header & 0b111)
	case 1:
		if len(data) < off+1 {
			return TLV{}, 0, fmt.Errorf("offset %d: truncated length", at)
		}
		length = int(data[off])
		off++
	case 2:
		if len(data) < off+2 {
			return TLV{}, 0, fmt.Errorf("offset %d: truncated length", at)
		}
		length = int(binary.BigEndian.Uint16(data[off:]))
		off += 2
	case 3:
		if len(data) < off+3 {
			return TLV{}, 0, fmt.Errorf("offset %d: truncated length", at)
		}
		length = int(data[off])<<16 | int(data[off+1])<<8 | int(data[off+2])
		off += 3
	}

	if len(data) < off+length {
		return TLV{}, 0, fmt.Errorf("offset %d: %s %d: value length %d exceeds remaining %d bytes", at, t.Type, t.ID, length, len(data)-off)
	}
	payload := data[off : off+length]
	if t.Type.HasValue() {
		t.Value = append([]byte{}, payload...)
	} else {
		children, err := decodeAll(payload, at+off)
		if err != nil {
			return TLV{}, 0, err
		}
		t.Children = children
	}
	return t, off + length, nil
}

// Encode serializes tlvs. Identifiers above 255 use the 16-bit form and
// lengths use the smallest length field that fits.
func Encode(tlvs []TLV) ([]byte, error) {
	var buf []byte
	for _, t := range tlvs {
		var err error
		buf, err = appendTLV(buf, t)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func appendTLV(buf []byte, t TLV) ([]byte, error) {
	var payload []byte
	if t.Type.HasValue() {
		payload = t.Value
	} else {
		var err error
		if payload, err = Encode(t.Children); err != nil {
			return nil, err
		}
	}
	length := len(payload)
	if length > MaxLength {
		return nil, fmt.Errorf("%w: %s %d: value length %d exceeds %d", codec.ErrUnsupported, t.Type, t.ID, length, MaxLength)
	}

	header := byte(t.Type) << 6
	if t.ID > 0xFF {
		header |= 0b0010_0000
	}
	switch {
	case length < 8:
		header |= byte(length)
	case length <= 0xFF:
		header |= 0b01 << 3
	case length <= 0xFFFF:
		header |= 0b10 << 3
	default:
		header |= 0b11 << 3
	}

	buf = append(buf, header)
	if t.ID > 0xFF {
		buf = binary.BigEndian.AppendUint16(buf, t.ID)
	} else {
		buf = append(buf, byte(t.ID))
	}
	switch {
	case length < 8:
	case length <= 0xFF:
		buf = append(buf, byte(length))
	case length <= 0xFFFF:
		buf = binary.BigEndian.AppendUint16(buf, uint16(length))
	default:
		buf = append(buf, byte(length>>16), byte(length>>8), byte(length))
	}
	return append(buf, payload...), nil
}
