package version

import (
	"embed"
	"fmt"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mash-protocol/lwm2m-go/pkg/codec"
	"github.com/mash-protocol/lwm2m-go/pkg/model"
)

//go:embed versions/*.yaml
var manifestFS embed.FS

// Manifest describes what an enabler version defines.
type Manifest struct {
	Version     string      `yaml:"version"`
	Description string      `yaml:"description"`
	Formats     []string    `yaml:"formats"`
	Objects     ObjectsSpec `yaml:"objects"`

	formats []codec.ContentFormat
}

// ObjectsSpec lists the objects every client of a version must implement.
type ObjectsSpec struct {
	Mandatory []uint16 `yaml:"mandatory"`
}

// ---------------------------------------------------------------------------
// Cache
// ---------------------------------------------------------------------------

var (
	cacheMu sync.RWMutex
	cache   = make(map[string]*Manifest)
)

// LoadManifest loads the manifest of a version string (e.g. "1.1").
func LoadManifest(ver string) (*Manifest, error) {
	v, err := Parse(ver)
	if err != nil {
		return nil, err
	}
	key := v.String()

	cacheMu.RLock()
	if m, ok := cache[key]; ok {
		cacheMu.RUnlock()
		return m, nil
	}
	cacheMu.RUnlock()

	data, err := manifestFS.ReadFile("versions/" + key + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("enabler version %q not found: %w", ver, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %q: %w", key, err)
	}
	for _, name := range m.Formats {
		f, err := codec.ParseContentFormat(name)
		if err != nil {
			return nil, fmt.Errorf("manifest %q: %w", key, err)
		}
		m.formats = append(m.formats, f)
	}
	slices.Sort(m.formats)

	cacheMu.Lock()
	cache[key] = &m
	cacheMu.Unlock()

	return &m, nil
}

// LoadCurrentManifest loads the manifest of the current enabler version.
func LoadCurrentManifest() (*Manifest, error) {
	return LoadManifest(Current)
}

// AvailableVersions returns the version strings of all embedded manifests.
func AvailableVersions() ([]string, error) {
	entries, err := manifestFS.ReadDir("versions")
	if err != nil {
		return nil, fmt.Errorf("reading versions directory: %w", err)
	}

	var versions []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") {
			versions = append(versions, strings.TrimSuffix(name, ".yaml"))
		}
	}
	slices.Sort(versions)
	return versions, nil
}

// ContentFormats returns the registered content formats of the version in
// code order.
func (m *Manifest) ContentFormats() []codec.ContentFormat {
	return slices.Clone(m.formats)
}

// Supports reports whether f is defined by the version. Legacy codes are
// accepted wherever their registered format is.
func (m *Manifest) Supports(f codec.ContentFormat) bool {
	return slices.Contains(m.formats, f.Canonical())
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// ValidationResult holds the outcome of validating object models against a
// manifest.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// ValidateObjects checks that the mandatory objects of the version are
// modelled, and warns about objects written for a newer enabler.
func ValidateObjects(m *Manifest, objects []*model.ObjectModel) ValidationResult {
	var result ValidationResult

	enabler, err := Parse(m.Version)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	present := make(map[uint16]bool, len(objects))
	for _, o := range objects {
		present[o.ID] = true

		if o.LwM2MVersion == "" {
			continue
		}
		ov, err := Parse(o.LwM2MVersion)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("object %d (%s): %v", o.ID, o.Name, err))
			continue
		}
		if !enabler.AtLeast(ov) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("object %d (%s) requires LwM2M %s, enabler is %s", o.ID, o.Name, ov, enabler))
		}
	}

	for _, id := range m.Objects.Mandatory {
		if !present[id] {
			result.Errors = append(result.Errors,
				fmt.Sprintf("mandatory object %d missing", id))
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}
