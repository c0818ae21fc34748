package node

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Id limits.
const (
	// MaxObjectID is the largest object id.
	MaxObjectID = 65535

	// MaxObjectInstanceID is the largest object instance id. 65535 is reserved.
	MaxObjectInstanceID = 65534

	// MaxResourceID is the largest resource id.
	MaxResourceID = 65535

	// MaxResourceInstanceID is the largest resource instance id.
	MaxResourceInstanceID = 65535

	// UndefinedInstanceID is the instance id of an object instance whose id
	// is not known yet, typically in a CREATE request where the client
	// assigns it.
	UndefinedInstanceID uint16 = 0xFFFF
)

// Path addresses a node of the resource tree: /objectId/instanceId/resourceId/resourceInstanceId.
// Each level is set only if every shallower level is set. The zero Path is
// the root path "/".
//
// Path is a comparable value type and can be used as a map key.
type Path struct {
	ids   [4]uint16
	depth uint8
}

// RootPath is the path of the tree root.
var RootPath = Path{}

// NewPath builds a path from 0 to 4 ids.
func NewPath(ids ...int) (Path, error) {
	if len(ids) > 4 {
		return Path{}, fmt.Errorf("%w: %d levels, at most 4 are allowed", ErrInvalidPath, len(ids))
	}
	var p Path
	for i, id := range ids {
		if err := validateID(i, id); err != nil {
			return Path{}, err
		}
		p.ids[i] = uint16(id)
	}
	p.depth = uint8(len(ids))
	return p, nil
}

// MustPath is like NewPath but panics on invalid ids.
func MustPath(ids ...int) Path {
	p, err := NewPath(ids...)
	if err != nil {
		panic(err)
	}
	return p
}

// NewUndefinedInstancePath returns the object instance path of an instance
// whose id is not known yet. String renders the instance level as "?".
func NewUndefinedInstancePath(objectID int) (Path, error) {
	if err := validateID(0, objectID); err != nil {
		return Path{}, err
	}
	return Path{ids: [4]uint16{uint16(objectID), UndefinedInstanceID}, depth: 2}, nil
}

func validateID(level, id int) error {
	switch level {
	case 0:
		if id < 0 || id > MaxObjectID {
			return fmt.Errorf("%w: invalid object id %d, it MUST be an unsigned 16-bit integer", ErrInvalidPath, id)
		}
	case 1:
		if id < 0 || id > MaxObjectInstanceID {
			return fmt.Errorf("%w: invalid object instance id %d, it MUST be an unsigned 16-bit integer (65535 is reserved)", ErrInvalidPath, id)
		}
	case 2:
		if id < 0 || id > MaxResourceID {
			return fmt.Errorf("%w: invalid resource id %d, it MUST be an unsigned 16-bit integer", ErrInvalidPath, id)
		}
	case 3:
		if id < 0 || id > MaxResourceInstanceID {
			return fmt.Errorf("%w: invalid resource instance id %d, it MUST be an unsigned 16-bit integer", ErrInvalidPath, id)
		}
	}
	return nil
}

// ParsePath parses a path like "/3/0/1". Leading and trailing slashes are
// optional; "/" and "" are the root path.
func ParsePath(s string) (Path, error) {
	trimmed := strings.TrimPrefix(s, "/")
	trimmed = strings.TrimSuffix(trimmed, "/")
	if trimmed == "" {
		return RootPath, nil
	}

	parts := strings.Split(trimmed, "/")
	if len(parts) > 4 {
		return Path{}, fmt.Errorf("%w: invalid length for path %q", ErrInvalidPath, s)
	}

	ids := make([]int, len(parts))
	for i, part := range parts {
		id, err := parseID(part)
		if err != nil {
			return Path{}, fmt.Errorf("%w: invalid element %q in path %q", ErrInvalidPath, part, s)
		}
		ids[i] = id
	}
	return NewPath(ids...)
}

// MustParsePath is like ParsePath but panics on error.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePathWithRoot parses a full URI path that must start with rootPath
// ("/lwm2m/3/0" with root "/lwm2m"). An empty root means "/".
func ParsePathWithRoot(full, rootPath string) (Path, error) {
	root := normalizeRoot(rootPath)
	if !strings.HasPrefix(full, root) {
		// "/lwm2m" with root "/lwm2m/" addresses the root itself.
		if full+"/" != root {
			return Path{}, fmt.Errorf("%w: %q does not start with %q", ErrRootMismatch, full, root)
		}
		return RootPath, nil
	}
	return ParsePath(full[len(root):])
}

// normalizeRoot returns a root path that starts and ends with "/".
func normalizeRoot(rootPath string) string {
	if rootPath == "" || rootPath == "/" {
		return "/"
	}
	if !strings.HasPrefix(rootPath, "/") {
		rootPath = "/" + rootPath
	}
	if !strings.HasSuffix(rootPath, "/") {
		rootPath += "/"
	}
	return rootPath
}

// JoinRoot prefixes the string form of p with rootPath. An empty or "/"
// root returns p.String().
func JoinRoot(rootPath string, p Path) string {
	root := normalizeRoot(rootPath)
	if root == "/" {
		return p.String()
	}
	if p.IsRoot() {
		return root
	}
	return strings.TrimSuffix(root, "/") + p.String()
}

// parseID parses one decimal path segment.
func parseID(s string) (int, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// Depth returns the number of levels set, from 0 (root) to 4.
func (p Path) Depth() int { return int(p.depth) }

// IsRoot reports whether p is the root path.
func (p Path) IsRoot() bool { return p.depth == 0 }

// IsObject reports whether p addresses an object.
func (p Path) IsObject() bool { return p.depth == 1 }

// IsObjectInstance reports whether p addresses an object instance.
func (p Path) IsObjectInstance() bool { return p.depth == 2 }

// IsResource reports whether p addresses a resource.
func (p Path) IsResource() bool { return p.depth == 3 }

// IsResourceInstance reports whether p addresses a resource instance.
func (p Path) IsResourceInstance() bool { return p.depth == 4 }

// HasUndefinedInstance reports whether p is an object instance path whose
// instance id is undefined.
func (p Path) HasUndefinedInstance() bool {
	return p.depth == 2 && p.ids[1] == UndefinedInstanceID
}

// ObjectID returns the object id. It panics on the root path.
func (p Path) ObjectID() uint16 { return p.id(0) }

// InstanceID returns the object instance id. It panics when p is shallower
// than an object instance path.
func (p Path) InstanceID() uint16 { return p.id(1) }

// ResourceID returns the resource id. It panics when p is shallower than a
// resource path.
func (p Path) ResourceID() uint16 { return p.id(2) }

// ResourceInstanceID returns the resource instance id. It panics when p is
// not a resource instance path.
func (p Path) ResourceInstanceID() uint16 { return p.id(3) }

func (p Path) id(level int) uint16 {
	if int(p.depth) <= level {
		panic(fmt.Sprintf("lwm2m path %s has no level %d", p, level))
	}
	return p.ids[level]
}

// IDs returns the ids of the levels that are set.
func (p Path) IDs() []uint16 {
	return slices.Clone(p.ids[:p.depth])
}

// Append returns the path one level deeper.
func (p Path) Append(id int) (Path, error) {
	if p.depth == 4 {
		return Path{}, fmt.Errorf("%w: can not append %d to resource instance path %s", ErrInvalidPath, id, p)
	}
	if p.HasUndefinedInstance() {
		return Path{}, fmt.Errorf("%w: can not append %d to path %s with undefined instance", ErrInvalidPath, id, p)
	}
	if err := validateID(int(p.depth), id); err != nil {
		return Path{}, err
	}
	q := p
	q.ids[p.depth] = uint16(id)
	q.depth++
	return q, nil
}

// AppendString parses s as a relative path ("1/0") and appends its levels.
func (p Path) AppendString(s string) (Path, error) {
	s = strings.Trim(s, "/")
	if s == "" {
		return p, nil
	}
	q := p
	for _, part := range strings.Split(s, "/") {
		id, err := parseID(part)
		if err != nil {
			return Path{}, fmt.Errorf("%w: invalid element %q in %q", ErrInvalidPath, part, s)
		}
		if q, err = q.Append(id); err != nil {
			return Path{}, err
		}
	}
	return q, nil
}

// Truncate returns the path limited to depth levels.
func (p Path) Truncate(depth int) Path {
	if depth >= int(p.depth) {
		return p
	}
	if depth < 0 {
		depth = 0
	}
	q := Path{depth: uint8(depth)}
	copy(q.ids[:depth], p.ids[:depth])
	return q
}

// ObjectPath returns the object path of p. It panics on the root path.
func (p Path) ObjectPath() Path {
	p.id(0)
	return p.Truncate(1)
}

// InstancePath returns the object instance path of p.
func (p Path) InstancePath() Path {
	p.id(1)
	return p.Truncate(2)
}

// ResourcePath returns the resource path of p.
func (p Path) ResourcePath() Path {
	p.id(2)
	return p.Truncate(3)
}

// Parent returns the path one level up. The parent of the root is the root.
func (p Path) Parent() Path {
	if p.depth == 0 {
		return p
	}
	return p.Truncate(int(p.depth) - 1)
}

// StartsWith reports whether prefix addresses p or one of its ancestors.
func (p Path) StartsWith(prefix Path) bool {
	if prefix.depth > p.depth {
		return false
	}
	for i := 0; i < int(prefix.depth); i++ {
		if p.ids[i] != prefix.ids[i] {
			return false
		}
	}
	return true
}

// Compare orders paths level by level; a path sorts before its descendants.
func Compare(a, b Path) int {
	n := min(a.depth, b.depth)
	for i := 0; i < int(n); i++ {
		if a.ids[i] != b.ids[i] {
			if a.ids[i] < b.ids[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case a.depth < b.depth:
		return -1
	case a.depth > b.depth:
		return 1
	}
	return 0
}

// SortPaths sorts paths in place with Compare.
func SortPaths(paths []Path) {
	slices.SortFunc(paths, Compare)
}

// ValidateNotOverlapping fails when one path of the list equals or contains
// another one.
func ValidateNotOverlapping(paths []Path) error {
	sorted := slices.Clone(paths)
	SortPaths(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i].StartsWith(sorted[i-1]) {
			return fmt.Errorf("%w: %s and %s", ErrOverlapping, sorted[i-1], sorted[i])
		}
	}
	return nil
}

// String returns the path as "/o/i/r/ri", or "/" for the root.
func (p Path) String() string {
	if p.depth == 0 {
		return "/"
	}

	var sb strings.Builder
	for i := 0; i < int(p.depth); i++ {
		sb.WriteString("/")
		if i == 1 && p.ids[1] == UndefinedInstanceID {
			sb.WriteString("?")
			continue
		}
		sb.WriteString(strconv.Itoa(int(p.ids[i])))
	}
	return sb.String()
}

// MarshalText implements encoding.TextMarshaler.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Path) UnmarshalText(text []byte) error {
	parsed, err := ParsePath(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
