package value

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// Number is an exact numeric literal as read from a wire format.
//
// Decoders do not know the target Type while reading a record, so they keep
// the exact value and convert once the Type is resolved. Integer conversions
// are lossless or fail. Float64 approximates.
type Number struct {
	rat     *big.Rat
	decimal bool
}

var (
	bigMinInt64 = big.NewInt(math.MinInt64)
	bigMaxInt64 = big.NewInt(math.MaxInt64)
	nanoPerSec  = big.NewInt(int64(time.Second))
)

// NumberFromInt64 returns an integer Number.
func NumberFromInt64(i int64) Number {
	return Number{rat: new(big.Rat).SetInt64(i)}
}

// NumberFromUint64 returns an integer Number.
func NumberFromUint64(u uint64) Number {
	return Number{rat: new(big.Rat).SetUint64(u)}
}

// NumberFromBig returns an integer Number.
func NumberFromBig(b *big.Int) Number {
	return Number{rat: new(big.Rat).SetInt(b)}
}

// NumberFromFloat64 returns a decimal Number holding the shortest decimal
// form of f, so 0.1 stays 0.1 and not its binary expansion.
func NumberFromFloat64(f float64) (Number, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Number{}, fmt.Errorf("%w: %v", ErrInvalidNumber, f)
	}
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(f, 'g', -1, 64))
	if !ok {
		return Number{}, fmt.Errorf("%w: %v", ErrInvalidNumber, f)
	}
	return Number{rat: r, decimal: true}, nil
}

// ParseNumber parses a JSON number literal. Exponent notation is accepted.
func ParseNumber(s string) (Number, error) {
	if !isNumberLiteral(s) {
		return Number{}, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Number{}, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return Number{rat: r, decimal: strings.ContainsAny(s, ".eE")}, nil
}

// isNumberLiteral checks the JSON number grammar:
// -? digits ( . digits )? ( [eE] [+-]? digits )?
func isNumberLiteral(s string) bool {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return false
	}
	if i < len(s) && s[i] == '.' {
		i++
		start = i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == start {
			return false
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		start = i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == start {
			return false
		}
	}
	return i == len(s)
}

// IsValid reports whether n holds a value. The zero Number does not.
func (n Number) IsValid() bool { return n.rat != nil }

// IsDecimal reports whether the literal was written with a fraction or an
// exponent (or came from a floating point item).
func (n Number) IsDecimal() bool { return n.decimal }

// IsInteger reports whether the value is integral, whatever its notation.
func (n Number) IsInteger() bool { return n.rat != nil && n.rat.IsInt() }

// Int64 converts to int64 without loss. Decimal literals with an integral
// value (1.5e3) are accepted.
func (n Number) Int64() (int64, error) {
	if !n.IsInteger() {
		return 0, fmt.Errorf("%w: %s is not an integer", ErrNumberConversion, n)
	}
	num := n.rat.Num()
	if num.Cmp(bigMinInt64) < 0 || num.Cmp(bigMaxInt64) > 0 {
		return 0, fmt.Errorf("%w: %s can not be stored in a signed 64-bit integer", ErrNumberConversion, n)
	}
	return num.Int64(), nil
}

// ULong converts to an unsigned value without loss.
func (n Number) ULong() (ULong, error) {
	if !n.IsInteger() {
		return 0, fmt.Errorf("%w: %s is not an integer", ErrNumberConversion, n)
	}
	if n.rat.Sign() < 0 {
		return 0, fmt.Errorf("%w: can not convert negative number %s to an unsigned integer", ErrNumberConversion, n)
	}
	return ULongFromBig(n.rat.Num())
}

// Float64 returns the nearest float64.
//
// This conversion is lossy: integers beyond 2^53 and most decimal fractions
// are rounded. FLOAT resources decoded from such literals carry the rounded
// value.
func (n Number) Float64() float64 {
	if n.rat == nil {
		return 0
	}
	f, _ := n.rat.Float64()
	return f
}

// Add returns n + o.
func (n Number) Add(o Number) Number {
	if n.rat == nil {
		return o
	}
	if o.rat == nil {
		return n
	}
	return Number{rat: new(big.Rat).Add(n.rat, o.rat), decimal: n.decimal || o.decimal}
}

// Cmp compares n with the integer i and returns -1, 0 or +1.
func (n Number) Cmp(i int64) int {
	if n.rat == nil {
		return new(big.Rat).Cmp(new(big.Rat).SetInt64(i))
	}
	return n.rat.Cmp(new(big.Rat).SetInt64(i))
}

// Time interprets n as seconds since the Unix epoch. Fractions below one
// nanosecond are truncated.
func (n Number) Time() time.Time {
	if n.rat == nil {
		return time.Unix(0, 0).UTC()
	}
	scaled := new(big.Int).Mul(n.rat.Num(), nanoPerSec)
	nanos := new(big.Int).Quo(scaled, n.rat.Denom())
	sec, rem := new(big.Int).QuoRem(nanos, nanoPerSec, new(big.Int))
	if rem.Sign() < 0 {
		sec.Sub(sec, big.NewInt(1))
		rem.Add(rem, nanoPerSec)
	}
	return time.Unix(sec.Int64(), rem.Int64()).UTC()
}

// Seconds returns n as a duration in seconds, truncated to nanoseconds.
func (n Number) Seconds() time.Duration {
	if n.rat == nil {
		return 0
	}
	scaled := new(big.Int).Mul(n.rat.Num(), nanoPerSec)
	return time.Duration(new(big.Int).Quo(scaled, n.rat.Denom()).Int64())
}

// String returns the exact decimal representation of n when it has one,
// else n rounded to nine decimals.
func (n Number) String() string {
	if n.rat == nil {
		return "<nil>"
	}
	if n.rat.IsInt() {
		return n.rat.Num().String()
	}
	s := n.rat.FloatString(decimalDigits(n.rat.Denom()))
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// Literal returns the JSON literal of n. Decimal numbers keep a fraction,
// so 22.0 is not read back as an integer.
func (n Number) Literal() string {
	s := n.String()
	if n.decimal && !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// decimalDigits returns the number of fraction digits needed to write 1/d
// exactly, or 9 when 1/d has no finite decimal expansion.
func decimalDigits(d *big.Int) int {
	rest := new(big.Int).Set(d)
	two, five := big.NewInt(2), big.NewInt(5)
	var twos, fives int
	m := new(big.Int)
	for rest.Cmp(big.NewInt(1)) > 0 {
		if m.Mod(rest, two).Sign() == 0 {
			rest.Quo(rest, two)
			twos++
		} else if m.Mod(rest, five).Sign() == 0 {
			rest.Quo(rest, five)
			fives++
		} else {
			return 9
		}
	}
	return max(twos, fives)
}

// NumberFromTime returns the seconds since the Unix epoch of t, keeping
// sub-second precision.
func NumberFromTime(t time.Time) Number {
	if t.Nanosecond() == 0 {
		return Number{rat: new(big.Rat).SetInt64(t.Unix())}
	}
	nanos := new(big.Int).Mul(big.NewInt(t.Unix()), nanoPerSec)
	nanos.Add(nanos, big.NewInt(int64(t.Nanosecond())))
	return Number{rat: new(big.Rat).SetFrac(nanos, nanoPerSec), decimal: true}
}

// FormatSeconds formats a time as epoch seconds with the shortest exact
// decimal fraction.
func FormatSeconds(t time.Time) string {
	return NumberFromTime(t).String()
}
