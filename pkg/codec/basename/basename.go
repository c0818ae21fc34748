// Package basename splits LWM2M paths into a base name and relative names,
// and joins them back, for the formats that factor a common prefix out of
// their records (OMA JSON, SenML-JSON and SenML-CBOR).
//
// Names are joined by plain concatenation: a base name "/3/0/1" followed by
// the name "1/0" addresses /3/0/11/0. Ids are only split on "/".
package basename

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mash-protocol/lwm2m-go/pkg/node"
)

// ErrNoName is returned when neither a base name nor a name is present.
var ErrNoName = errors.New("record has no name")

// Resolve returns the path addressed by the base name bn followed by the
// name n. A resolved name starting with "/" must start with rootPath; a
// name without a leading "/" is relative to the root path.
func Resolve(bn, n, rootPath string) (node.Path, error) {
	full := bn + n
	if full == "" {
		return node.Path{}, ErrNoName
	}
	if !strings.HasPrefix(full, "/") {
		return node.ParsePath(full)
	}
	return node.ParsePathWithRoot(full, rootPath)
}

// BaseName returns the base name for records under base. When the records
// carry names, the base name ends with "/" so that names are single ids or
// id sequences.
func BaseName(rootPath string, base node.Path, withNames bool) string {
	s := node.JoinRoot(rootPath, base)
	if withNames && !strings.HasSuffix(s, "/") {
		s += "/"
	}
	return s
}

// Relative returns the name of p relative to base, "" when p is base.
func Relative(base, p node.Path) (string, error) {
	if !p.StartsWith(base) {
		return "", fmt.Errorf("%w: %s does not start with %s", node.ErrPathMismatch, p, base)
	}
	ids := p.IDs()[base.Depth():]
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(int(id))
	}
	return strings.Join(parts, "/"), nil
}

// Prefix returns the deepest path every path in paths starts with. It
// returns the root path for an empty list.
func Prefix(paths []node.Path) node.Path {
	if len(paths) == 0 {
		return node.RootPath
	}
	prefix := paths[0]
	for _, p := range paths[1:] {
		for !p.StartsWith(prefix) {
			prefix = prefix.Parent()
		}
	}
	return prefix
}
