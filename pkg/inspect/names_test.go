package inspect

import (
	"testing"

	"github.com/mash-protocol/lwm2m-go/pkg/model"
	"github.com/mash-protocol/lwm2m-go/pkg/value"
)

func TestResolveObjectName(t *testing.T) {
	m := model.Default()

	tests := []struct {
		name   string
		wantID uint16
		wantOK bool
	}{
		{"Device", 3, true},
		{"device", 3, true},
		{"LwM2M Server", 1, true},
		{"lwm2m_server", 1, true},
		{"Temperature", 3303, true},
		{"Toaster", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ResolveObjectName(m, tt.name)
			if ok != tt.wantOK {
				t.Errorf("ResolveObjectName(%q) ok = %v, want %v", tt.name, ok, tt.wantOK)
			}
			if ok && id != tt.wantID {
				t.Errorf("ResolveObjectName(%q) = %d, want %d", tt.name, id, tt.wantID)
			}
		})
	}
}

func TestResolveResourceName(t *testing.T) {
	m := model.Default()

	tests := []struct {
		object uint16
		name   string
		wantID uint16
		wantOK bool
	}{
		{3, "Manufacturer", 0, true},
		{3, "battery-level", 9, true},
		{3, "CurrentTime", 13, true},
		{3303, "Sensor Value", 5700, true},
		{3, "Sensor Value", 0, false},
		{4242, "Manufacturer", 0, false},
	}

	for _, tt := range tests {
		id, ok := ResolveResourceName(m, tt.object, tt.name)
		if ok != tt.wantOK {
			t.Errorf("ResolveResourceName(%d, %q) ok = %v, want %v", tt.object, tt.name, ok, tt.wantOK)
		}
		if ok && id != tt.wantID {
			t.Errorf("ResolveResourceName(%d, %q) = %d, want %d", tt.object, tt.name, id, tt.wantID)
		}
	}
}

func TestNamesWithoutModel(t *testing.T) {
	if name := ObjectName(nil, 3); name != "" {
		t.Errorf("ObjectName = %q, want empty", name)
	}
	if name := ResourceName(nil, 3, 0); name != "" {
		t.Errorf("ResourceName = %q, want empty", name)
	}
	if _, ok := ResolveObjectName(nil, "device"); ok {
		t.Error("ResolveObjectName resolved without model")
	}
	if _, ok := ResolveResourceName(nil, 3, "manufacturer"); ok {
		t.Error("ResolveResourceName resolved without model")
	}
}

func TestNamesFromCustomModel(t *testing.T) {
	obj, err := model.NewObjectModel(32000, "Charger", true,
		&model.ResourceModel{ID: 1, Name: "Session Energy", Operations: model.OpRead, Type: value.TypeFloat},
	)
	if err != nil {
		t.Fatalf("NewObjectModel: %v", err)
	}
	m := model.Default().With(obj)

	if got := ObjectName(m, 32000); got != "Charger" {
		t.Errorf("ObjectName = %q", got)
	}
	if got := ResourceName(m, 32000, 1); got != "Session Energy" {
		t.Errorf("ResourceName = %q", got)
	}
	if id, ok := ResolveResourceName(m, 32000, "session_energy"); !ok || id != 1 {
		t.Errorf("ResolveResourceName = %d, %v", id, ok)
	}
}
