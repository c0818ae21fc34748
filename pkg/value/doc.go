// Package value defines the LWM2M resource value types and the checks applied
// to values before they enter a resource tree.
//
// Every resource value has one semantic Type. The Go representation for each
// Type is fixed:
//
//	TypeString    string
//	TypeInteger   int64
//	TypeUnsigned  ULong
//	TypeFloat     float64
//	TypeBoolean   bool
//	TypeOpaque    []byte
//	TypeTime      time.Time
//	TypeObjLnk    ObjectLink
//
// Check is the single place where a value is matched against its declared
// Type. Node constructors and every codec call it, so a value that passes
// Check can be encoded by any format able to carry its Type.
//
// Number holds a numeric literal read from a wire format before the target
// Type is known. It keeps the exact value and converts on demand.
package value
