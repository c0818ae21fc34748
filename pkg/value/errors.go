package value

import "errors"

// Value errors.
var (
	ErrTypeMismatch     = errors.New("value does not match declared datatype")
	ErrNilValue         = errors.New("value must not be nil")
	ErrUnknownType      = errors.New("unknown value type")
	ErrInvalidObjLink   = errors.New("invalid object link")
	ErrInvalidNumber    = errors.New("invalid number")
	ErrNumberConversion = errors.New("number cannot be converted without loss")
)
