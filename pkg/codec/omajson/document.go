package omajson

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/mash-protocol/lwm2m-go/pkg/codec/schema"
)

//go:embed schema.json
var schemaDoc []byte

var validator = schema.New("lwm2m-json.json", schemaDoc)

// Document is an OMA LwM2M JSON document.
type Document struct {
	BaseName *string     `json:"bn,omitempty"`
	BaseTime json.Number `json:"bt,omitempty"`
	Entries  []Entry     `json:"e"`
}

// Entry is one element of the "e" array. Exactly one of Float, Bool,
// String and ObjLnk is set.
type Entry struct {
	Name   *string     `json:"n,omitempty"`
	Float  json.Number `json:"v,omitempty"`
	Bool   *bool       `json:"bv,omitempty"`
	String *string     `json:"sv,omitempty"`
	ObjLnk *string     `json:"ov,omitempty"`
	Time   json.Number `json:"t,omitempty"`
}

// Parse validates data against the document schema and decodes it.
// Numbers keep their literal form.
func Parse(data []byte) (*Document, error) {
	if err := validator.Validate(data); err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid lwm2m json: %w", err)
	}
	return &doc, nil
}

// Marshal serializes doc.
func Marshal(doc *Document) ([]byte, error) {
	if doc.Entries == nil {
		doc.Entries = []Entry{}
	}
	return json.Marshal(doc)
}
