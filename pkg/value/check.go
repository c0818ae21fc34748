package value

import (
	"fmt"
	"time"
)

// Check verifies that v is a valid Go representation for a value of type t.
// It returns nil on success, or an error wrapping ErrTypeMismatch (or
// ErrNilValue) describing the failure.
func Check(t Type, v any) error {
	if v == nil {
		return fmt.Errorf("%w: %s value", ErrNilValue, t)
	}
	ok := false
	switch t {
	case TypeString:
		_, ok = v.(string)
	case TypeInteger:
		_, ok = v.(int64)
	case TypeUnsigned:
		_, ok = v.(ULong)
	case TypeFloat:
		_, ok = v.(float64)
	case TypeBoolean:
		_, ok = v.(bool)
	case TypeOpaque:
		_, ok = v.([]byte)
	case TypeTime:
		_, ok = v.(time.Time)
	case TypeObjLnk:
		_, ok = v.(ObjectLink)
	default:
		return fmt.Errorf("%w: %s can not hold a value", ErrTypeMismatch, t)
	}
	if !ok {
		return fmt.Errorf("%w: %T is not a %s value", ErrTypeMismatch, v, t)
	}
	return nil
}

// Valid reports whether v is a valid value for type t.
func Valid(t Type, v any) bool {
	return Check(t, v) == nil
}

// TypeOf returns the Type whose Go representation is v's dynamic type.
func TypeOf(v any) (Type, bool) {
	switch v.(type) {
	case string:
		return TypeString, true
	case int64:
		return TypeInteger, true
	case ULong:
		return TypeUnsigned, true
	case float64:
		return TypeFloat, true
	case bool:
		return TypeBoolean, true
	case []byte:
		return TypeOpaque, true
	case time.Time:
		return TypeTime, true
	case ObjectLink:
		return TypeObjLnk, true
	}
	return TypeNone, false
}
