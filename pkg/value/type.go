package value

import (
	"fmt"
	"strings"
)

// Type is the semantic type of a resource value.
type Type uint8

const (
	// TypeNone is used by the model for executable resources, which carry no value.
	TypeNone Type = iota
	TypeString
	TypeInteger
	TypeUnsigned
	TypeFloat
	TypeBoolean
	TypeOpaque
	TypeTime
	TypeObjLnk
)

var typeNames = []string{
	"NONE", "STRING", "INTEGER", "UNSIGNED_INTEGER", "FLOAT",
	"BOOLEAN", "OPAQUE", "TIME", "OBJLNK",
}

// String returns the type name.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// IsNumeric reports whether values of this type are carried as numbers.
func (t Type) IsNumeric() bool {
	switch t {
	case TypeInteger, TypeUnsigned, TypeFloat, TypeTime:
		return true
	}
	return false
}

// ParseType parses a type name as found in object model files.
// Both the OMA DDF spelling ("Unsigned Integer", "Objlnk") and the
// String form ("UNSIGNED_INTEGER") are accepted, case-insensitively.
// An empty string is TypeNone.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return TypeNone, nil
	case "string":
		return TypeString, nil
	case "integer", "int":
		return TypeInteger, nil
	case "unsigned integer", "unsigned_integer", "unsigned":
		return TypeUnsigned, nil
	case "float":
		return TypeFloat, nil
	case "boolean", "bool":
		return TypeBoolean, nil
	case "opaque":
		return TypeOpaque, nil
	case "time":
		return TypeTime, nil
	case "objlnk", "objectlink", "object link":
		return TypeObjLnk, nil
	}
	return TypeNone, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
