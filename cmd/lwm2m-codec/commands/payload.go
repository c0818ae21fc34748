package commands

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/mash-protocol/lwm2m-go/pkg/codec"
)

// Payload encodings accepted on input and produced on output.
const (
	EncodingAuto   = "auto"
	EncodingHex    = "hex"
	EncodingBase64 = "base64"
	EncodingRaw    = "raw"
)

// ReadPayload returns the payload given inline, or read from file ("-" is
// stdin), decoded from encoding.
func ReadPayload(inline, file, encoding string, stdin io.Reader) ([]byte, error) {
	var data []byte
	switch {
	case inline != "" && file != "":
		return nil, fmt.Errorf("payload given both inline and as file")
	case inline != "":
		data = []byte(inline)
		if encoding == EncodingAuto {
			encoding = EncodingHex
		}
	case file == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		data = b
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload: %w", err)
		}
		data = b
	default:
		return nil, fmt.Errorf("no payload given")
	}
	return DecodePayload(data, encoding)
}

// DecodePayload decodes data from encoding. Hex and base64 payloads may
// contain white space.
func DecodePayload(data []byte, encoding string) ([]byte, error) {
	switch strings.ToLower(encoding) {
	case EncodingRaw, EncodingAuto, "":
		return data, nil
	case EncodingHex:
		compact := strings.Join(strings.Fields(string(data)), "")
		compact = strings.TrimPrefix(strings.TrimPrefix(compact, "0x"), "0X")
		out, err := hex.DecodeString(compact)
		if err != nil {
			return nil, fmt.Errorf("invalid hex payload: %w", err)
		}
		return out, nil
	case EncodingBase64:
		compact := strings.Join(strings.Fields(string(data)), "")
		out, err := codec.DecodeBase64(compact)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 payload: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown encoding: %s (supported: hex, base64, raw)", encoding)
}

// WritePayload writes data to w in encoding. With EncodingAuto, textual
// formats are written as is and binary ones as hex.
func WritePayload(w io.Writer, data []byte, f codec.ContentFormat, encoding string) error {
	if strings.ToLower(encoding) == EncodingAuto || encoding == "" {
		encoding = EncodingHex
		if isTextual(f) && utf8.Valid(data) {
			encoding = EncodingRaw
		}
	}

	var out []byte
	switch strings.ToLower(encoding) {
	case EncodingRaw:
		out = data
		if isTextual(f) {
			out = append(bytes.Clone(data), '\n')
		}
	case EncodingHex:
		out = []byte(hex.EncodeToString(data) + "\n")
	case EncodingBase64:
		out = []byte(base64.StdEncoding.EncodeToString(data) + "\n")
	default:
		return fmt.Errorf("unknown encoding: %s (supported: auto, hex, base64, raw)", encoding)
	}
	_, err := w.Write(out)
	return err
}

func isTextual(f codec.ContentFormat) bool {
	switch f.Canonical() {
	case codec.FormatText, codec.FormatJSON, codec.FormatSenMLJSON, codec.FormatLink:
		return true
	}
	return false
}
