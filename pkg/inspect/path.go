// Package inspect resolves human-readable paths and formats node trees for
// display.
//
// Paths may mix names and ids:
//   - "/3/0/9" - numeric path
//   - "device/0/battery level" - object and resource names
//   - "Device/0/Available_Power_Sources/1" - resource instance
//   - "0x3/0/0x9" - hex ids
//
// Names are matched against an object model ignoring case, spaces, dashes
// and underscores. Instance ids are always numeric.
package inspect

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mash-protocol/lwm2m-go/pkg/model"
	"github.com/mash-protocol/lwm2m-go/pkg/node"
)

// Path errors.
var (
	ErrEmptyPath   = errors.New("empty path")
	ErrUnknownName = errors.New("unknown name")
)

// Names is a model that can look objects up by name. *model.Registry
// implements it.
type Names interface {
	model.Model
	ObjectByName(name string) (*model.ObjectModel, bool)
}

// ResolvePath parses a path whose object and resource may be given by
// name. m may be nil, in which case only numeric ids are accepted.
func ResolvePath(m Names, input string) (node.Path, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return node.Path{}, ErrEmptyPath
	}
	trimmed := strings.Trim(input, "/")
	if trimmed == "" {
		return node.RootPath, nil
	}
	if strings.Contains(trimmed, "//") {
		return node.Path{}, fmt.Errorf("%w: empty element in %q", node.ErrInvalidPath, input)
	}

	parts := strings.Split(trimmed, "/")
	if len(parts) > 4 {
		return node.Path{}, fmt.Errorf("%w: too many elements in %q", node.ErrInvalidPath, input)
	}

	ids := make([]int, len(parts))
	var obj *model.ObjectModel
	for level, part := range parts {
		part = strings.TrimSpace(part)
		id, err := parseID(part)
		switch {
		case err == nil:
		case isNumber(part):
			err = fmt.Errorf("%w: id %s out of range", node.ErrInvalidPath, part)
		case level == 0:
			id, err = resolveObject(m, part)
		case level == 2:
			id, err = resolveResource(obj, ids[0], part)
		default:
			err = fmt.Errorf("%w: %q is not a number", node.ErrInvalidPath, part)
		}
		if err != nil {
			return node.Path{}, err
		}
		ids[level] = id

		if level == 0 && m != nil {
			obj, _ = m.Object(uint16(id))
		}
	}
	return node.NewPath(ids...)
}

func resolveObject(m Names, name string) (int, error) {
	if m == nil {
		return 0, fmt.Errorf("%w: object %q (no model)", ErrUnknownName, name)
	}
	o, ok := m.ObjectByName(name)
	if !ok {
		return 0, fmt.Errorf("%w: object %q", ErrUnknownName, name)
	}
	return int(o.ID), nil
}

func resolveResource(obj *model.ObjectModel, objectID int, name string) (int, error) {
	if obj == nil {
		return 0, fmt.Errorf("%w: resource %q of unknown object %d", ErrUnknownName, name, objectID)
	}
	r, ok := obj.ResourceByName(name)
	if !ok {
		return 0, fmt.Errorf("%w: resource %q of object %s", ErrUnknownName, name, obj.Name)
	}
	return int(r.ID), nil
}

// PathName returns p with object and resource names where m knows them,
// such as "/Device/0/Battery Level".
func PathName(m model.Model, p node.Path) string {
	if p.IsRoot() {
		return "/"
	}
	var sb strings.Builder
	for level, id := range p.IDs() {
		sb.WriteString("/")
		name := ""
		switch level {
		case 0:
			name = ObjectName(m, id)
		case 2:
			name = ResourceName(m, p.ObjectID(), id)
		}
		if name == "" {
			name = strconv.Itoa(int(id))
		}
		sb.WriteString(name)
	}
	return sb.String()
}

// parseID parses a decimal or hex (0x prefix) id.
func parseID(s string) (int, error) {
	var v uint64
	var err error

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err = strconv.ParseUint(s[2:], 16, 16)
	} else {
		v, err = strconv.ParseUint(s, 10, 16)
	}
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

func isNumber(s string) bool {
	_, err := strconv.ParseUint(s, 0, 64)
	return err == nil || errors.Is(err, strconv.ErrRange)
}
