package codec

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mash-protocol/lwm2m-go/pkg/node"
	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

// NumberValue converts a numeric literal to the Go representation of t.
// FLOAT conversion rounds to the nearest float64; integer literals above
// 2^53 lose precision there.
func NumberValue(n value.Number, t value.Type) (any, error) {
	switch t {
	case value.TypeInteger:
		return n.Int64()
	case value.TypeUnsigned:
		return n.ULong()
	case value.TypeFloat:
		return n.Float64(), nil
	case value.TypeTime:
		return n.Time(), nil
	}
	return nil, fmt.Errorf("%w: numeric value %s for a %s resource", value.ErrTypeMismatch, n, t)
}

// GuessNumberType picks a type for a numeric literal when no model
// declares one: integer literals are INTEGER, or UNSIGNED_INTEGER beyond
// the signed range; anything else is FLOAT.
func GuessNumberType(n value.Number) value.Type {
	if n.IsDecimal() || !n.IsInteger() {
		return value.TypeFloat
	}
	if _, err := n.Int64(); err == nil {
		return value.TypeInteger
	}
	if _, err := n.ULong(); err == nil {
		return value.TypeUnsigned
	}
	return value.TypeFloat
}

// FormatNumber returns the numeric literal of a numeric value. Integral
// floats keep a fractional part, so they are read back as floats.
func FormatNumber(t value.Type, v any) (string, error) {
	if err := value.Check(t, v); err != nil {
		return "", err
	}
	switch t {
	case value.TypeInteger:
		return strconv.FormatInt(v.(int64), 10), nil
	case value.TypeUnsigned:
		return v.(value.ULong).String(), nil
	case value.TypeFloat:
		return FormatFloat(v.(float64))
	case value.TypeTime:
		return strconv.FormatInt(v.(time.Time).Unix(), 10), nil
	}
	return "", fmt.Errorf("%w: %s is not numeric", value.ErrTypeMismatch, t)
}

// FormatFloat formats f in its shortest form with a fractional part or an
// exponent.
func FormatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%w: %v can not be encoded", value.ErrInvalidNumber, f)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s, nil
}

// DecodeBase64 accepts the standard and the URL-safe alphabets, with or
// without padding.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimRight(s, "=")
	enc := base64.RawStdEncoding
	if strings.ContainsAny(s, "-_") {
		enc = base64.RawURLEncoding
	}
	b, err := enc.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	return b, nil
}

// Coerce returns v, of type from, as a value of type to, or an error when
// the conversion is not possible.
func Coerce(f ContentFormat, p node.Path, v any, from, to value.Type) (any, error) {
	if from == to || to == value.TypeNone {
		return v, nil
	}
	out, err := value.Convert(v, from, to)
	if err != nil {
		return nil, Errorf(f, p, err, "value does not match declared datatype")
	}
	return out, nil
}

// DeclaredType returns the model type of the resource addressed by p (a
// resource or resource instance path), falling back to fallback.
func DeclaredType(opts Options, p node.Path, fallback value.Type) value.Type {
	if p.Depth() < 3 {
		return fallback
	}
	if t, ok := opts.ResourceType(p.ObjectID(), p.ResourceID()); ok {
		return t
	}
	return fallback
}

// CheckSingleValue rejects a resource path the model declares multiple.
// Formats carrying one scalar value use it before decoding.
func CheckSingleValue(f ContentFormat, p node.Path, opts Options) error {
	if !p.IsResource() {
		return nil
	}
	if multiple, known := opts.IsMultiple(p.ObjectID(), p.ResourceID()); known && multiple {
		return Errorf(f, p, ErrUnsupported, "%s can not carry a multiple resource", f)
	}
	return nil
}
