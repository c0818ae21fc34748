package codec

import (
	"io"
	"log/slog"
	"time"

	"github.com/mash-protocol/lwm2m-go/pkg/model"
	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

// Options carry the context of one encode or decode call.
type Options struct {
	// Model describes objects and resources. Nil means none is known; types
	// are then guessed from the payload where the format allows it.
	Model model.Model

	// RootPath is the URI prefix of LWM2M paths (e.g. "/lwm2m"). Empty
	// means "/".
	RootPath string

	// Clock returns the current time. SenML relative times resolve against
	// it. Nil means time.Now.
	Clock func() time.Time

	// Logger receives non-fatal anomalies. Nil discards them.
	Logger *slog.Logger

	// Strict rejects tolerated deviations, such as a TLV boolean byte that
	// is neither 0 nor 1.
	Strict bool
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Now returns the current time from Clock.
func (o Options) Now() time.Time {
	if o.Clock != nil {
		return o.Clock()
	}
	return time.Now()
}

// Log returns the configured logger, never nil.
func (o Options) Log() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return discardLogger
}

// ResourceType returns the declared type of the resource at objectID and
// resourceID.
func (o Options) ResourceType(objectID, resourceID uint16) (value.Type, bool) {
	return model.ResourceType(o.Model, objectID, resourceID)
}

// IsMultiple reports whether the model declares the resource multiple.
func (o Options) IsMultiple(objectID, resourceID uint16) (multiple, known bool) {
	return model.IsMultipleResource(o.Model, objectID, resourceID)
}

// IsMultipleObject reports whether the model declares the object
// multi-instance.
func (o Options) IsMultipleObject(objectID uint16) (multiple, known bool) {
	return model.IsMultipleObject(o.Model, objectID)
}
