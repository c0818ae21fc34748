package value

import (
	"fmt"
	"strconv"
	"strings"
)

// nullID marks an unset object or instance id inside an object link.
const nullID = 0xFFFF

// ObjectLink references an object instance by its object id and instance id.
// The link 65535:65535 is the null link.
type ObjectLink struct {
	ObjectID   uint16
	InstanceID uint16
}

// NullObjectLink is the link that references nothing.
var NullObjectLink = ObjectLink{ObjectID: nullID, InstanceID: nullID}

// IsNull reports whether the link is the null link.
func (l ObjectLink) IsNull() bool {
	return l == NullObjectLink
}

// String returns the link in "objectId:instanceId" form.
func (l ObjectLink) String() string {
	return strconv.Itoa(int(l.ObjectID)) + ":" + strconv.Itoa(int(l.InstanceID))
}

// ParseObjectLink parses the "objectId:instanceId" form.
func ParseObjectLink(s string) (ObjectLink, error) {
	objPart, instPart, ok := strings.Cut(s, ":")
	if !ok {
		return ObjectLink{}, fmt.Errorf("%w: %q has no ':' separator", ErrInvalidObjLink, s)
	}
	objID, err := strconv.ParseUint(objPart, 10, 16)
	if err != nil {
		return ObjectLink{}, fmt.Errorf("%w: object id in %q", ErrInvalidObjLink, s)
	}
	instID, err := strconv.ParseUint(instPart, 10, 16)
	if err != nil {
		return ObjectLink{}, fmt.Errorf("%w: instance id in %q", ErrInvalidObjLink, s)
	}
	return ObjectLink{ObjectID: uint16(objID), InstanceID: uint16(instID)}, nil
}
