package model

import (
	"embed"
	"fmt"
	"path"
	"sync"
)

//go:embed defaults/*.yaml
var defaultFiles embed.FS

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry of embedded object definitions: the core
// objects 0 to 7, Temperature (3303) and the test objects 65, 66 and 1024.
func Default() *Registry {
	defaultOnce.Do(func() {
		objects, err := loadEmbedded()
		if err != nil {
			// embedded files are part of the build
			panic(fmt.Sprintf("model: embedded definitions: %v", err))
		}
		defaultRegistry = NewRegistry(objects...)
	})
	return defaultRegistry
}

func loadEmbedded() ([]*ObjectModel, error) {
	entries, err := defaultFiles.ReadDir("defaults")
	if err != nil {
		return nil, err
	}
	var out []*ObjectModel
	for _, e := range entries {
		data, err := defaultFiles.ReadFile(path.Join("defaults", e.Name()))
		if err != nil {
			return nil, err
		}
		objects, err := ParseYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		out = append(out, objects...)
	}
	return out, nil
}
