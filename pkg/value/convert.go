package value

import (
	"fmt"
	"math"
	"time"
)

// Convert converts v, a valid value of type from, to type to.
//
// Encoders use it when a node was built with a different Type than the one
// the object model declares. Supported conversions:
//
//	INTEGER  -> FLOAT, UNSIGNED (non-negative), TIME (epoch seconds)
//	UNSIGNED -> INTEGER (fits in int64), FLOAT (may round), TIME
//	FLOAT    -> INTEGER, UNSIGNED (integral values only)
//	TIME     -> INTEGER, UNSIGNED (epoch seconds)
//
// Any other pair fails with ErrTypeMismatch.
func Convert(v any, from, to Type) (any, error) {
	if err := Check(from, v); err != nil {
		return nil, err
	}
	if from == to {
		return v, nil
	}

	fail := func() (any, error) {
		return nil, fmt.Errorf("%w: can not convert %s value %v to %s", ErrTypeMismatch, from, v, to)
	}

	switch from {
	case TypeInteger:
		i := v.(int64)
		switch to {
		case TypeFloat:
			return float64(i), nil
		case TypeUnsigned:
			if i < 0 {
				return fail()
			}
			return ULong(i), nil
		case TypeTime:
			return time.Unix(i, 0).UTC(), nil
		}
	case TypeUnsigned:
		u := v.(ULong)
		switch to {
		case TypeInteger:
			i, ok := u.Int64()
			if !ok {
				return fail()
			}
			return i, nil
		case TypeFloat:
			return float64(u), nil
		case TypeTime:
			i, ok := u.Int64()
			if !ok {
				return fail()
			}
			return time.Unix(i, 0).UTC(), nil
		}
	case TypeFloat:
		f := v.(float64)
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return fail()
		}
		switch to {
		case TypeInteger:
			if f < math.MinInt64 || f >= math.MaxInt64 {
				return fail()
			}
			return int64(f), nil
		case TypeUnsigned:
			if f < 0 || f >= math.MaxUint64 {
				return fail()
			}
			return ULong(f), nil
		}
	case TypeTime:
		t := v.(time.Time)
		switch to {
		case TypeInteger:
			return t.Unix(), nil
		case TypeUnsigned:
			if t.Unix() < 0 {
				return fail()
			}
			return ULong(t.Unix()), nil
		}
	}
	return fail()
}
