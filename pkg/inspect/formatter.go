package inspect

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mash-protocol/lwm2m-go/pkg/model"
	"github.com/mash-protocol/lwm2m-go/pkg/node"
	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

// Formatter formats node trees for display.
type Formatter struct {
	// Model supplies object and resource names and units. Optional.
	Model model.Model

	// ShowMetadata includes type, operations, and unit information
	ShowMetadata bool

	// ShowIDs includes numeric IDs alongside names
	ShowIDs bool

	// IndentWidth is the number of spaces per indent level
	IndentWidth int
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter(m model.Model) *Formatter {
	return &Formatter{
		Model:        m,
		ShowMetadata: true,
		ShowIDs:      true,
		IndentWidth:  2,
	}
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	return strings.Repeat(" ", depth*width) + content
}

// FormatValue formats a resource value for display, followed by unit when
// it is not empty.
func (f *Formatter) FormatValue(v any, unit string) string {
	var s string
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		s = strconv.Quote(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case value.ULong:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		s = strconv.FormatBool(v)
	case []byte:
		s = "0x" + hex.EncodeToString(v)
	case time.Time:
		s = v.UTC().Format(time.RFC3339Nano)
	case value.ObjectLink:
		s = v.String()
	default:
		s = fmt.Sprintf("%v", v)
	}
	if unit != "" {
		return s + " " + unit
	}
	return s
}

// FormatNode formats n, the node at path, as an indented tree.
func (f *Formatter) FormatNode(n node.Node, path node.Path) string {
	var sb strings.Builder
	f.writeNode(&sb, 0, n, path)
	return sb.String()
}

// FormatNodes formats several nodes in path order. Nil nodes are shown as
// missing.
func (f *Formatter) FormatNodes(nodes map[node.Path]node.Node) string {
	paths := make([]node.Path, 0, len(nodes))
	for p := range nodes {
		paths = append(paths, p)
	}
	node.SortPaths(paths)

	var sb strings.Builder
	for _, p := range paths {
		n := nodes[p]
		if n == nil {
			sb.WriteString(f.pathLabel(p) + ": (no value)\n")
			continue
		}
		sb.WriteString(f.pathLabel(p) + "\n")
		f.writeNode(&sb, 1, n, p)
	}
	return sb.String()
}

// FormatTimestamped formats a history of the node at path, one block per
// timestamp.
func (f *Formatter) FormatTimestamped(nodes []node.TimestampedNode, path node.Path) string {
	var sb strings.Builder
	for _, tn := range nodes {
		sb.WriteString(formatTime(tn.Timestamp) + "\n")
		f.writeNode(&sb, 1, tn.Node, path)
	}
	return sb.String()
}

// FormatTimestampedNodes formats nodes grouped by timestamp.
func (f *Formatter) FormatTimestampedNodes(tn *node.TimestampedNodes) string {
	var sb strings.Builder
	for _, ts := range tn.Timestamps() {
		sb.WriteString(formatTime(ts) + "\n")
		nodes := tn.NodesAt(ts)
		for _, p := range tn.PathsAt(ts) {
			sb.WriteString(f.Indent(1, f.pathLabel(p)) + "\n")
			f.writeNode(&sb, 2, nodes[p], p)
		}
	}
	return sb.String()
}

// FormatPaths formats a path list, one path per line.
func (f *Formatter) FormatPaths(paths []node.Path) string {
	var sb strings.Builder
	for _, p := range paths {
		sb.WriteString(f.pathLabel(p) + "\n")
	}
	return sb.String()
}

func (f *Formatter) writeNode(sb *strings.Builder, depth int, n node.Node, path node.Path) {
	switch n := n.(type) {
	case *node.Root:
		for _, o := range n.Objects() {
			f.writeNode(sb, depth, o, node.MustPath(int(o.ID())))
		}
	case *node.Object:
		sb.WriteString(f.Indent(depth, f.label("Object", n.ID(), ObjectName(f.Model, n.ID()))) + "\n")
		if n.Len() == 0 {
			sb.WriteString(f.Indent(depth+1, "(no instances)") + "\n")
		}
		for _, oi := range n.Instances() {
			f.writeNode(sb, depth+1, oi, node.MustPath(int(n.ID()), int(oi.ID())))
		}
	case *node.ObjectInstance:
		id := "undefined"
		if !n.IsUndefined() {
			id = strconv.Itoa(int(n.ID()))
		}
		sb.WriteString(f.Indent(depth, "Instance "+id) + "\n")
		if n.Len() == 0 {
			sb.WriteString(f.Indent(depth+1, "(no resources)") + "\n")
		}
		for _, r := range n.Resources() {
			f.writeResource(sb, depth+1, r, path.ObjectID())
		}
	case node.Resource:
		f.writeResource(sb, depth, n, path.ObjectID())
	case *node.ResourceInstance:
		rm, _ := model.ResourceModelOf(f.Model, path.ObjectID(), path.ResourceID())
		sb.WriteString(f.Indent(depth, fmt.Sprintf("[%d] %s", n.ID(), f.FormatValue(n.Value(), units(rm)))))
		if f.ShowMetadata {
			sb.WriteString(" (" + typeName(n.Type()) + ")")
		}
		sb.WriteString("\n")
	}
}

func (f *Formatter) writeResource(sb *strings.Builder, depth int, r node.Resource, objectID uint16) {
	rm, _ := model.ResourceModelOf(f.Model, objectID, r.ID())
	name := ""
	if rm != nil {
		name = rm.Name
	}
	line := f.label("Resource", r.ID(), name) + ":"
	if !r.IsMultiple() {
		line += " " + f.FormatValue(r.Value(), units(rm))
	}
	if f.ShowMetadata {
		line += " (" + f.metadata(r, rm) + ")"
	}
	sb.WriteString(f.Indent(depth, line) + "\n")

	if r.IsMultiple() {
		for _, ri := range r.Instances() {
			sb.WriteString(f.Indent(depth+1, fmt.Sprintf("[%d] %s", ri.ID(), f.FormatValue(ri.Value(), units(rm)))) + "\n")
		}
	}
}

func (f *Formatter) metadata(r node.Resource, rm *model.ResourceModel) string {
	parts := []string{typeName(r.Type())}
	if r.IsMultiple() {
		parts = append(parts, "multiple")
	}
	if rm != nil {
		parts = append(parts, rm.Operations.String())
	}
	return strings.Join(parts, ", ")
}

// typeName spells t the way object definitions do ("unsigned integer").
func typeName(t value.Type) string {
	return strings.ReplaceAll(strings.ToLower(t.String()), "_", " ")
}

// label returns "Name [id]" for named elements and "kind id" otherwise.
func (f *Formatter) label(kind string, id uint16, name string) string {
	switch {
	case name == "":
		return fmt.Sprintf("%s %d", kind, id)
	case f.ShowIDs:
		return fmt.Sprintf("%s [%d]", name, id)
	}
	return name
}

func (f *Formatter) pathLabel(p node.Path) string {
	named := PathName(f.Model, p)
	switch {
	case named == p.String():
		return named
	case f.ShowIDs:
		return fmt.Sprintf("%s (%s)", p, named)
	}
	return named
}

func units(rm *model.ResourceModel) string {
	if rm == nil {
		return ""
	}
	return rm.Units
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "(no timestamp)"
	}
	return ts.UTC().Format(time.RFC3339Nano)
}
