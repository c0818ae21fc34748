package inspect

import (
	"strings"
	"testing"
	"time"

	"github.com/mash-protocol/lwm2m-go/pkg/model"
	"github.com/mash-protocol/lwm2m-go/pkg/node"
	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

func TestFormatValue(t *testing.T) {
	f := &Formatter{}

	tests := []struct {
		name     string
		value    any
		unit     string
		expected string
	}{
		{"integer with unit", int64(21), "Cel", "21 Cel"},
		{"negative integer", int64(-7), "", "-7"},
		{"unsigned", value.ULong(18446744073709551615), "", "18446744073709551615"},
		{"float", 20.5, "Cel", "20.5 Cel"},
		{"large float", 1e21, "", "1e+21"},
		{"bool", true, "", "true"},
		{"string", "Open \"Mobile\"", "", `"Open \"Mobile\""`},
		{"opaque", []byte{0xab, 0xcd}, "", "0xabcd"},
		{"empty opaque", []byte{}, "", "0x"},
		{"time", time.Unix(1700000000, 0), "", "2023-11-14T22:13:20Z"},
		{"object link", value.ObjectLink{ObjectID: 3, InstanceID: 0}, "", "3:0"},
		{"nil", nil, "s", "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.FormatValue(tt.value, tt.unit); got != tt.expected {
				t.Errorf("FormatValue(%v, %q) = %q, want %q", tt.value, tt.unit, got, tt.expected)
			}
		})
	}
}

func TestIndent(t *testing.T) {
	f := &Formatter{}
	if got := f.Indent(2, "x"); got != "    x" {
		t.Errorf("Indent = %q", got)
	}
	f.IndentWidth = 3
	if got := f.Indent(1, "x"); got != "   x" {
		t.Errorf("Indent = %q", got)
	}
}

func deviceInstance() *node.ObjectInstance {
	return node.MustObjectInstance(0,
		node.NewStringResource(0, "Open Mobile Alliance"),
		node.MustMultipleResource(6, value.TypeInteger, node.NewIntegerInstance(0, 1), node.NewIntegerInstance(1, 5)),
		node.NewIntegerResource(9, 100),
	)
}

func TestFormatNode(t *testing.T) {
	f := NewFormatter(model.Default())

	got := f.FormatNode(deviceInstance(), node.MustPath(3, 0))
	want := strings.Join([]string{
		"Instance 0",
		`  Manufacturer [0]: "Open Mobile Alliance" (string, R)`,
		"  Available Power Sources [6]: (integer, multiple, R)",
		"    [0] 1",
		"    [1] 5",
		"  Battery Level [9]: 100 /100 (integer, R)",
		"",
	}, "\n")
	if got != want {
		t.Errorf("FormatNode =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatNodeWithoutMetadata(t *testing.T) {
	f := &Formatter{Model: model.Default()}

	obj := node.MustObject(3, deviceInstance())
	got := f.FormatNode(obj, node.MustPath(3))
	want := strings.Join([]string{
		"Device",
		"  Instance 0",
		`    Manufacturer: "Open Mobile Alliance"`,
		"    Available Power Sources:",
		"      [0] 1",
		"      [1] 5",
		"    Battery Level: 100 /100",
		"",
	}, "\n")
	if got != want {
		t.Errorf("FormatNode =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatNodeWithoutModel(t *testing.T) {
	f := &Formatter{ShowMetadata: true}

	got := f.FormatNode(node.NewFloatResource(5700, 20.5), node.MustPath(3303, 0, 5700))
	if got != "Resource 5700: 20.5 (float)\n" {
		t.Errorf("FormatNode = %q", got)
	}

	got = f.FormatNode(node.NewIntegerInstance(1, 5), node.MustPath(3, 0, 6, 1))
	if got != "[1] 5 (integer)\n" {
		t.Errorf("FormatNode = %q", got)
	}

	got = f.FormatNode(node.NewUnsignedResource(4, 7), node.MustPath(1024, 0, 4))
	if got != "Resource 4: 7 (unsigned integer)\n" {
		t.Errorf("FormatNode = %q", got)
	}

	got = f.FormatNode(node.MustObjectInstance(0), node.MustPath(3, 0))
	if got != "Instance 0\n  (no resources)\n" {
		t.Errorf("FormatNode = %q", got)
	}
}

func TestFormatNodes(t *testing.T) {
	f := &Formatter{Model: model.Default(), ShowIDs: true}

	got := f.FormatNodes(map[node.Path]node.Node{
		node.MustPath(3, 0, 9): node.NewIntegerResource(9, 80),
		node.MustPath(1, 0, 1): nil,
	})
	want := strings.Join([]string{
		"/1/0/1 (/LwM2M Server/0/Lifetime): (no value)",
		"/3/0/9 (/Device/0/Battery Level)",
		"  Battery Level [9]: 80 /100",
		"",
	}, "\n")
	if got != want {
		t.Errorf("FormatNodes =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatTimestamped(t *testing.T) {
	f := &Formatter{}
	ts := time.Unix(1700000000, 0)

	got := f.FormatTimestamped([]node.TimestampedNode{
		{Node: node.NewFloatResource(5700, 20)},
		{Timestamp: ts, Node: node.NewFloatResource(5700, 21.5)},
	}, node.MustPath(3303, 0, 5700))
	want := strings.Join([]string{
		"(no timestamp)",
		"  Resource 5700: 20",
		"2023-11-14T22:13:20Z",
		"  Resource 5700: 21.5",
		"",
	}, "\n")
	if got != want {
		t.Errorf("FormatTimestamped =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatTimestampedNodes(t *testing.T) {
	f := &Formatter{}
	ts := time.Unix(1700000000, 0)

	tn, err := node.NewTimestampedNodesBuilder().
		Put(ts, node.MustPath(3, 0, 9), node.NewIntegerResource(9, 70)).
		Put(ts, node.MustPath(3303, 0, 5700), node.NewFloatResource(5700, 19.5)).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got := f.FormatTimestampedNodes(tn)
	want := strings.Join([]string{
		"2023-11-14T22:13:20Z",
		"  /3/0/9",
		"    Resource 9: 70",
		"  /3303/0/5700",
		"    Resource 5700: 19.5",
		"",
	}, "\n")
	if got != want {
		t.Errorf("FormatTimestampedNodes =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatPaths(t *testing.T) {
	f := &Formatter{Model: model.Default()}
	got := f.FormatPaths([]node.Path{node.MustPath(3, 0, 9), node.MustPath(4242)})
	if got != "/Device/0/Battery Level\n/4242\n" {
		t.Errorf("FormatPaths = %q", got)
	}
}
