package codec

import (
	"errors"
	"testing"
)

func TestParseContentFormat(t *testing.T) {
	tests := []struct {
		in   string
		want ContentFormat
	}{
		{"11542", FormatTLV},
		{"tlv", FormatTLV},
		{"TLV", FormatTLV},
		{"application/vnd.oma.lwm2m+tlv", FormatTLV},
		{"senml+json", FormatSenMLJSON},
		{"senml-cbor", FormatSenMLCBOR},
		{"SENML_CBOR", FormatSenMLCBOR},
		{"text/plain", FormatText},
		{"opaque", FormatOpaque},
		{"cbor", FormatCBOR},
		{"json", FormatJSON},
		{"omajson", FormatJSON},
		{"1542", FormatLegacyTLV},
		{"65000", ContentFormat(65000)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseContentFormat(tt.in)
			if err != nil {
				t.Fatalf("ParseContentFormat(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseContentFormat(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	for _, bad := range []string{"", "xml", "70000"} {
		if _, err := ParseContentFormat(bad); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("ParseContentFormat(%q) error = %v, want ErrUnsupportedFormat", bad, err)
		}
	}
}

func TestContentFormatNames(t *testing.T) {
	if FormatSenMLJSON.String() != "SENML_JSON" {
		t.Errorf("String() = %q", FormatSenMLJSON.String())
	}
	if ContentFormat(65000).String() != "65000" {
		t.Errorf("custom String() = %q", ContentFormat(65000).String())
	}
	if FormatTLV.MediaType() != "application/vnd.oma.lwm2m+tlv" {
		t.Errorf("MediaType() = %q", FormatTLV.MediaType())
	}
	if ContentFormat(65000).IsKnown() {
		t.Error("custom format should not be known")
	}
	if !FormatLegacyJSON.IsLegacy() || FormatLegacyJSON.Canonical() != FormatJSON {
		t.Error("legacy JSON should map to JSON")
	}
	if FormatTLV.Canonical() != FormatTLV {
		t.Error("Canonical() changed a registered format")
	}
}

func TestContentFormatText(t *testing.T) {
	text, err := FormatSenMLCBOR.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	var f ContentFormat
	if err := f.UnmarshalText(text); err != nil {
		t.Fatal(err)
	}
	if f != FormatSenMLCBOR {
		t.Errorf("round trip = %v, want %v", f, FormatSenMLCBOR)
	}
}
