package codec

import (
	"fmt"
	"strconv"
	"strings"
)

// ContentFormat is a CoAP content-format code. Codes without a named
// constant are valid custom formats.
type ContentFormat uint16

// Registered content formats.
const (
	FormatText      ContentFormat = 0
	FormatLink      ContentFormat = 40
	FormatOpaque    ContentFormat = 42
	FormatCBOR      ContentFormat = 60
	FormatSenMLJSON ContentFormat = 110
	FormatSenMLCBOR ContentFormat = 112
	FormatTLV       ContentFormat = 11542
	FormatJSON      ContentFormat = 11543

	// Pre-registration codes used by LWM2M 1.0 clients.
	FormatLegacyTLV  ContentFormat = 1542
	FormatLegacyJSON ContentFormat = 1543
)

type formatInfo struct {
	name      string
	mediaType string
}

var formats = map[ContentFormat]formatInfo{
	FormatText:       {"TEXT", "text/plain"},
	FormatLink:       {"LINK", "application/link-format"},
	FormatOpaque:     {"OPAQUE", "application/octet-stream"},
	FormatCBOR:       {"CBOR", "application/cbor"},
	FormatSenMLJSON:  {"SENML_JSON", "application/senml+json"},
	FormatSenMLCBOR:  {"SENML_CBOR", "application/senml+cbor"},
	FormatTLV:        {"TLV", "application/vnd.oma.lwm2m+tlv"},
	FormatJSON:       {"JSON", "application/vnd.oma.lwm2m+json"},
	FormatLegacyTLV:  {"OLD_TLV", "application/vnd.oma.lwm2m+tlv"},
	FormatLegacyJSON: {"OLD_JSON", "application/vnd.oma.lwm2m+json"},
}

// String returns the format name, or the code for custom formats.
func (f ContentFormat) String() string {
	if info, ok := formats[f]; ok {
		return info.name
	}
	return strconv.Itoa(int(f))
}

// MediaType returns the media type, or "" for custom formats.
func (f ContentFormat) MediaType() string {
	return formats[f].mediaType
}

// IsKnown reports whether f is a registered content format.
func (f ContentFormat) IsKnown() bool {
	_, ok := formats[f]
	return ok
}

// IsLegacy reports whether f is a pre-registration LWM2M 1.0 code.
func (f ContentFormat) IsLegacy() bool {
	return f == FormatLegacyTLV || f == FormatLegacyJSON
}

// Canonical maps legacy codes to their registered equivalent.
func (f ContentFormat) Canonical() ContentFormat {
	switch f {
	case FormatLegacyTLV:
		return FormatTLV
	case FormatLegacyJSON:
		return FormatJSON
	}
	return f
}

// ParseContentFormat accepts a numeric code, a format name ("tlv",
// "senml-json", "SENML_CBOR") or a media type
// ("application/vnd.oma.lwm2m+tlv").
func ParseContentFormat(s string) (ContentFormat, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty content format", ErrUnsupportedFormat)
	}
	if n, err := strconv.ParseUint(s, 10, 16); err == nil {
		return ContentFormat(n), nil
	}

	want := normalizeFormatName(s)
	for f, info := range formats {
		if f.IsLegacy() {
			continue
		}
		if normalizeFormatName(info.name) == want || strings.EqualFold(info.mediaType, s) {
			return f, nil
		}
	}
	if alias, ok := formatAliases[want]; ok {
		return alias, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

var formatAliases = map[string]ContentFormat{
	"plain":     FormatText,
	"octet":     FormatOpaque,
	"lwm2mjson": FormatJSON,
	"omajson":   FormatJSON,
	"senml":     FormatSenMLJSON,
}

func normalizeFormatName(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer("_", "", "-", "", "+", "", " ", "").Replace(s)
}

// MarshalText implements encoding.TextMarshaler.
func (f ContentFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *ContentFormat) UnmarshalText(text []byte) error {
	parsed, err := ParseContentFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
