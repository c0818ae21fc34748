package wire

import (
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/mash-protocol/lwm2m-go/pkg/codec"
	"github.com/mash-protocol/lwm2m-go/pkg/codec/cbor"
	"github.com/mash-protocol/lwm2m-go/pkg/codec/omajson"
	"github.com/mash-protocol/lwm2m-go/pkg/codec/opaque"
	"github.com/mash-protocol/lwm2m-go/pkg/codec/senml"
	"github.com/mash-protocol/lwm2m-go/pkg/codec/text"
	"github.com/mash-protocol/lwm2m-go/pkg/codec/tlv"
	"github.com/mash-protocol/lwm2m-go/pkg/log"
	"github.com/mash-protocol/lwm2m-go/pkg/model"
	"github.com/mash-protocol/lwm2m-go/pkg/node"
	"github.com/mash-protocol/lwm2m-go/pkg/version"
)

// Option configures a Decoder or an Encoder.
type Option func(*config)

type config struct {
	opts     codec.Options
	trace    log.Logger
	newID    func() string
	decoders map[codec.ContentFormat]codec.NodeDecoder
	encoders map[codec.ContentFormat]codec.NodeEncoder
	manifest *version.Manifest
}

func newConfig(options []Option) *config {
	c := &config{
		newID:    uuid.NewString,
		decoders: DefaultDecoders(),
		encoders: DefaultEncoders(),
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// WithModel sets the object model. Without one, value types are guessed
// from the payload where the format allows it.
func WithModel(m model.Model) Option {
	return func(c *config) { c.opts.Model = m }
}

// WithRootPath sets the URI prefix of the paths carried in payloads, such
// as "/lwm2m".
func WithRootPath(root string) Option {
	return func(c *config) { c.opts.RootPath = root }
}

// WithClock sets the clock used to resolve relative SenML times.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.opts.Clock = now }
}

// WithLogger sets the operational logger. It receives warnings such as the
// use of a legacy content format.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.opts.Logger = l }
}

// WithTraceLogger sends one trace event per call to l.
func WithTraceLogger(l log.Logger) Option {
	return func(c *config) { c.trace = l }
}

// WithStrict rejects tolerated deviations from the formats.
func WithStrict(strict bool) Option {
	return func(c *config) { c.opts.Strict = strict }
}

// WithVersion limits the registered content formats to those defined by
// the enabler version of m. Custom formats are not affected.
func WithVersion(m *version.Manifest) Option {
	return func(c *config) { c.manifest = m }
}

// WithDecoder registers d for format f, replacing the default one.
// Decoders registered for a legacy code are used for that code only.
func WithDecoder(f codec.ContentFormat, d codec.NodeDecoder) Option {
	return func(c *config) { c.decoders[f] = d }
}

// WithEncoder registers e for format f, replacing the default one.
func WithEncoder(f codec.ContentFormat, e codec.NodeEncoder) Option {
	return func(c *config) { c.encoders[f] = e }
}

// checkVersion rejects registered formats the configured enabler version
// does not define.
func (c *config) checkVersion(f codec.ContentFormat, p node.Path) error {
	if c.manifest == nil || !f.IsKnown() || c.manifest.Supports(f) {
		return nil
	}
	return codec.Errorf(f, p, codec.ErrUnsupportedFormat, "content format %s is not defined by LwM2M %s", f, c.manifest.Version)
}

func (c *config) filter(formats []codec.ContentFormat) []codec.ContentFormat {
	if c.manifest == nil {
		return formats
	}
	return slices.DeleteFunc(formats, func(f codec.ContentFormat) bool {
		return c.checkVersion(f, node.RootPath) != nil
	})
}

// withTraceIDs replaces the trace id generator.
func withTraceIDs(next func() string) Option {
	return func(c *config) { c.newID = next }
}

// DefaultDecoders returns the decoders of the registered formats.
func DefaultDecoders() map[codec.ContentFormat]codec.NodeDecoder {
	return map[codec.ContentFormat]codec.NodeDecoder{
		codec.FormatText:      text.Codec{},
		codec.FormatOpaque:    opaque.Codec{},
		codec.FormatCBOR:      cbor.Codec{},
		codec.FormatTLV:       tlv.Codec{},
		codec.FormatJSON:      omajson.Codec{},
		codec.FormatSenMLJSON: senml.JSON,
		codec.FormatSenMLCBOR: senml.CBOR,
	}
}

// DefaultEncoders returns the encoders of the registered formats.
func DefaultEncoders() map[codec.ContentFormat]codec.NodeEncoder {
	return map[codec.ContentFormat]codec.NodeEncoder{
		codec.FormatText:      text.Codec{},
		codec.FormatOpaque:    opaque.Codec{},
		codec.FormatCBOR:      cbor.Codec{},
		codec.FormatTLV:       tlv.Codec{},
		codec.FormatJSON:      omajson.Codec{},
		codec.FormatSenMLJSON: senml.JSON,
		codec.FormatSenMLCBOR: senml.CBOR,
	}
}
