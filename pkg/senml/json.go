package senml

import (
	"bytes"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/mash-protocol/lwm2m-go/pkg/codec"
	"github.com/mash-protocol/lwm2m-go/pkg/codec/schema"
	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

//go:embed schema.json
var schemaDoc []byte

var validator = schema.New("senml.json", schemaDoc)

type jsonRecord struct {
	BaseName *string     `json:"bn,omitempty"`
	BaseTime json.Number `json:"bt,omitempty"`
	Name     *string     `json:"n,omitempty"`
	Time     json.Number `json:"t,omitempty"`
	Value    json.Number `json:"v,omitempty"`
	String   *string     `json:"vs,omitempty"`
	Bool     *bool       `json:"vb,omitempty"`
	Data     *string     `json:"vd,omitempty"`
	ObjLnk   *string     `json:"vlo,omitempty"`
}

// UnmarshalJSON decodes a SenML-JSON pack. An empty payload is an empty
// pack. Numbers keep their exact literal. Data values may use the standard
// or the URL-safe base64 alphabet, with or without padding.
func UnmarshalJSON(data []byte) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if err := validator.Validate(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPack, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw []jsonRecord
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPack, err)
	}

	records := make([]Record, len(raw))
	for i, jr := range raw {
		r := Record{
			BaseName:    jr.BaseName,
			Name:        jr.Name,
			StringValue: jr.String,
			BoolValue:   jr.Bool,
			ObjLnkValue: jr.ObjLnk,
		}
		var err error
		if r.BaseTime, err = parseNumber(jr.BaseTime); err != nil {
			return nil, fmt.Errorf("%w: record %d: bt: %w", ErrInvalidPack, i, err)
		}
		if r.Time, err = parseNumber(jr.Time); err != nil {
			return nil, fmt.Errorf("%w: record %d: t: %w", ErrInvalidPack, i, err)
		}
		if r.NumberValue, err = parseNumber(jr.Value); err != nil {
			return nil, fmt.Errorf("%w: record %d: v: %w", ErrInvalidPack, i, err)
		}
		if jr.Data != nil {
			b, err := codec.DecodeBase64(*jr.Data)
			if err != nil {
				return nil, fmt.Errorf("%w: record %d: vd: %w", ErrInvalidPack, i, err)
			}
			if b == nil {
				b = []byte{}
			}
			r.DataValue = b
		}
		records[i] = r
	}
	if err := checkValues(records); err != nil {
		return nil, err
	}
	return records, nil
}

func parseNumber(s json.Number) (*value.Number, error) {
	if s == "" {
		return nil, nil
	}
	n, err := value.ParseNumber(s.String())
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// MarshalJSON encodes records as a SenML-JSON pack. Data values use the
// URL-safe base64 alphabet without padding.
func MarshalJSON(records []Record) ([]byte, error) {
	if err := checkValues(records); err != nil {
		return nil, err
	}
	raw := make([]jsonRecord, len(records))
	for i, r := range records {
		jr := jsonRecord{
			BaseName: r.BaseName,
			Name:     r.Name,
			String:   r.StringValue,
			Bool:     r.BoolValue,
			ObjLnk:   r.ObjLnkValue,
		}
		if r.BaseTime != nil {
			jr.BaseTime = json.Number(r.BaseTime.Literal())
		}
		if r.Time != nil {
			jr.Time = json.Number(r.Time.Literal())
		}
		if r.NumberValue != nil {
			jr.Value = json.Number(r.NumberValue.Literal())
		}
		if r.DataValue != nil {
			s := base64.RawURLEncoding.EncodeToString(r.DataValue)
			jr.Data = &s
		}
		raw[i] = jr
	}
	return json.Marshal(raw)
}
