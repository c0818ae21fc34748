package codec

import (
	"errors"
	"fmt"

	"github.com/mash-protocol/lwm2m-go/pkg/node"
)

// Codec errors. Decoders and encoders return them wrapped in an *Error.
var (
	// ErrUnsupportedFormat is returned for a content format without codec.
	ErrUnsupportedFormat = errors.New("unsupported content format")

	// ErrUnsupported is returned when a format can not represent a node,
	// e.g. a multiple resource in TEXT.
	ErrUnsupported = errors.New("unsupported by content format")

	// ErrMalformed is returned for payloads that do not follow the format
	// grammar.
	ErrMalformed = errors.New("malformed payload")

	// ErrInvalidContent is returned for well-formed payloads whose content
	// does not fit the target path or the object model.
	ErrInvalidContent = errors.New("invalid content")

	// ErrUnknownType is returned when the value type of a resource can not
	// be determined.
	ErrUnknownType = errors.New("unknown resource type")
)

// Error is the error returned by every decoder and encoder. It wraps the
// underlying cause, so errors.Is(err, value.ErrTypeMismatch) or
// errors.Is(err, ErrMalformed) work through it.
type Error struct {
	Format ContentFormat
	Path   node.Path
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg += ": " + e.Err.Error()
		}
	}
	return fmt.Sprintf("%s codec, path %s: %s", e.Format, e.Path, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf returns an *Error wrapping cause, with a formatted message.
func Errorf(f ContentFormat, p node.Path, cause error, format string, args ...any) *Error {
	return &Error{Format: f, Path: p, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// Wrap wraps err in an *Error unless it already is one.
func Wrap(f ContentFormat, p node.Path, err error) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	return &Error{Format: f, Path: p, Err: err}
}
