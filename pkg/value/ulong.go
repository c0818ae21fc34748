package value

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
)

// ULong is an unsigned 64-bit integer resource value.
//
// It is a distinct type so that UNSIGNED_INTEGER values never mix with
// INTEGER values: an int64 is not a valid unsigned value and vice versa.
type ULong uint64

// MaxULong is the largest unsigned value.
const MaxULong = ULong(math.MaxUint64)

var maxULongBig = new(big.Int).SetUint64(math.MaxUint64)

// ParseULong parses a decimal unsigned integer.
func ParseULong(s string) (ULong, error) {
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an unsigned 64-bit integer", ErrInvalidNumber, s)
	}
	return ULong(u), nil
}

// ULongFromBig converts an arbitrary precision integer, failing when it is
// negative or does not fit in 64 bits.
func ULongFromBig(b *big.Int) (ULong, error) {
	if b == nil || b.Sign() < 0 || b.Cmp(maxULongBig) > 0 {
		return 0, fmt.Errorf("%w: %v is not in unsigned 64-bit range", ErrNumberConversion, b)
	}
	return ULong(b.Uint64()), nil
}

// Uint64 returns the value as uint64.
func (u ULong) Uint64() uint64 { return uint64(u) }

// Big returns the value as an arbitrary precision integer.
func (u ULong) Big() *big.Int { return new(big.Int).SetUint64(uint64(u)) }

// Int64 returns the value as int64 and whether it fits.
func (u ULong) Int64() (int64, bool) {
	if u > math.MaxInt64 {
		return 0, false
	}
	return int64(u), true
}

// String returns the decimal form.
func (u ULong) String() string { return strconv.FormatUint(uint64(u), 10) }
