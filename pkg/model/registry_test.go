package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()

	for _, id := range []uint16{0, 1, 2, 3, 4, 5, 6, 7, 65, 66, 1024, 3303} {
		if _, ok := r.Object(id); !ok {
			t.Errorf("expected object %d in default registry", id)
		}
	}

	t.Run("Device", func(t *testing.T) {
		device, ok := r.Object(3)
		if !ok {
			t.Fatal("expected device object")
		}
		if device.Multiple {
			t.Error("device should be single instance")
		}
		if !device.Mandatory {
			t.Error("device should be mandatory")
		}
		res, ok := device.Resource(6)
		if !ok {
			t.Fatal("expected resource 6")
		}
		if !res.Multiple || res.Type != value.TypeInteger {
			t.Errorf("unexpected resource 6: %+v", res)
		}
		reboot, _ := device.Resource(4)
		if !reboot.Operations.CanExecute() || reboot.Type != value.TypeNone {
			t.Errorf("unexpected reboot resource: %+v", reboot)
		}
	})

	t.Run("ResourceType", func(t *testing.T) {
		tests := []struct {
			object, resource uint16
			want             value.Type
			known            bool
		}{
			{3, 0, value.TypeString, true},
			{3, 13, value.TypeTime, true},
			{3, 4, value.TypeNone, false},
			{65, 0, value.TypeObjLnk, true},
			{1024, 4, value.TypeUnsigned, true},
			{3, 999, value.TypeNone, false},
			{999, 0, value.TypeNone, false},
		}
		for _, tt := range tests {
			got, known := ResourceType(r, tt.object, tt.resource)
			if got != tt.want || known != tt.known {
				t.Errorf("/%d/x/%d: expected %s/%v, got %s/%v", tt.object, tt.resource, tt.want, tt.known, got, known)
			}
		}
	})

	t.Run("NilModel", func(t *testing.T) {
		if _, ok := ResourceType(nil, 3, 0); ok {
			t.Error("nil model should know nothing")
		}
		if _, known := IsMultipleObject(nil, 3); known {
			t.Error("nil model should know nothing")
		}
	})
}

func TestRegistryOverride(t *testing.T) {
	custom, err := NewObjectModel(3, "My Device", true,
		&ResourceModel{ID: 0, Name: "Vendor", Operations: OpRead, Type: value.TypeString},
	)
	if err != nil {
		t.Fatalf("NewObjectModel: %v", err)
	}
	r := Default().With(custom)

	device, _ := r.Object(3)
	if device.Name != "My Device" || len(device.Resources()) != 1 {
		t.Errorf("expected override, got %s", device)
	}
	if orig, _ := Default().Object(3); orig.Name != "Device" {
		t.Error("With must not modify the receiver")
	}
	if r.Len() != Default().Len() {
		t.Errorf("expected %d objects, got %d", Default().Len(), r.Len())
	}
}

func TestNames(t *testing.T) {
	r := Default()
	o, ok := r.ObjectByName("device")
	if !ok || o.ID != 3 {
		t.Fatalf("expected device, got %v", o)
	}
	res, ok := o.ResourceByName("current-time")
	if !ok || res.ID != 13 {
		t.Errorf("expected Current Time, got %v", res)
	}
	if _, ok := o.ResourceByName("missing"); ok {
		t.Error("unexpected resource")
	}
}

func TestNewObjectModelErrors(t *testing.T) {
	_, err := NewObjectModel(1, "x", false,
		&ResourceModel{ID: 0, Operations: OpRead, Type: value.TypeString},
		&ResourceModel{ID: 0, Operations: OpRead, Type: value.TypeString},
	)
	if !errors.Is(err, ErrInvalidModel) {
		t.Errorf("expected ErrInvalidModel for duplicate ids, got %v", err)
	}

	_, err = NewObjectModel(1, "x", false, &ResourceModel{ID: 0, Operations: OpRead})
	if !errors.Is(err, ErrInvalidModel) {
		t.Errorf("expected ErrInvalidModel for a readable resource without type, got %v", err)
	}
}

func TestParseOperations(t *testing.T) {
	tests := []struct {
		input   string
		want    Operations
		wantErr bool
	}{
		{"", OpNone, false},
		{"R", OpRead, false},
		{"rw", OpReadWrite, false},
		{"W", OpWrite, false},
		{"E", OpExecute, false},
		{"RE", OpNone, true},
		{"X", OpNone, true},
	}
	for _, tt := range tests {
		got, err := ParseOperations(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: unexpected error %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: expected %s, got %s", tt.input, tt.want, got)
		}
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()

	yamlDef := `
id: 3442
name: LwM2M v1.1 Test Object
multiple: true
resources:
  - {id: 110, name: String Value, operations: RW, type: string}
  - {id: 130, name: Unsigned Integer Value, operations: RW, type: unsigned integer}
`
	ddfDef := `<?xml version="1.0" encoding="utf-8"?>
<LWM2M>
  <Object ObjectType="MODefinition">
    <Name>Humidity</Name>
    <Description1>Relative humidity</Description1>
    <ObjectID>3304</ObjectID>
    <ObjectURN>urn:oma:lwm2m:ext:3304</ObjectURN>
    <MultipleInstances>Multiple</MultipleInstances>
    <Mandatory>Optional</Mandatory>
    <Resources>
      <Item ID="5700">
        <Name>Sensor Value</Name>
        <Operations>R</Operations>
        <MultipleInstances>Single</MultipleInstances>
        <Mandatory>Mandatory</Mandatory>
        <Type>Float</Type>
        <RangeEnumeration></RangeEnumeration>
        <Units>%RH</Units>
        <Description>Last or Current Measured Value from the Sensor</Description>
      </Item>
      <Item ID="5605">
        <Name>Reset Min and Max Measured Values</Name>
        <Operations>E</Operations>
        <MultipleInstances>Single</MultipleInstances>
        <Mandatory>Optional</Mandatory>
        <Type></Type>
      </Item>
    </Resources>
  </Object>
</LWM2M>`

	if err := os.WriteFile(filepath.Join(dir, "3442.yaml"), []byte(yamlDef), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "3304.xml"), []byte(ddfDef), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	humidity, ok := r.Object(3304)
	if !ok {
		t.Fatal("expected object 3304")
	}
	if !humidity.Multiple || humidity.Mandatory || humidity.URN != "urn:oma:lwm2m:ext:3304" {
		t.Errorf("unexpected object %s", humidity)
	}
	sv, _ := humidity.Resource(5700)
	if sv.Type != value.TypeFloat || sv.Units != "%RH" || !sv.Mandatory {
		t.Errorf("unexpected resource %+v", sv)
	}
	reset, _ := humidity.Resource(5605)
	if reset.Type != value.TypeNone || reset.Operations != OpExecute {
		t.Errorf("unexpected resource %+v", reset)
	}

	if typ, _ := ResourceType(r, 3442, 130); typ != value.TypeUnsigned {
		t.Errorf("expected UNSIGNED_INTEGER, got %s", typ)
	}
	if _, ok := r.Object(3); !ok {
		t.Error("Load should keep the default objects")
	}
}

func TestLoadFileUnknownFormat(t *testing.T) {
	p := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(p); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"missing name", "id: 5"},
		{"bad type", "id: 5\nname: x\nresources:\n  - {id: 0, operations: R, type: decimal}"},
		{"bad operations", "id: 5\nname: x\nresources:\n  - {id: 0, operations: RX, type: string}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseYAML([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
