package feed

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

const DefaultUpdateIntervalMs = 30 * 60 * 1000

//go:embed default_sources.yml
var defaultSources []byte

type registryFile struct {
	Sources []Source `yaml:"sources"`
}

// Registry is the static catalog of feed sources. It is built once at
// startup and never mutated afterwards.
type Registry struct {
	sources []Source
	byName  map[string]int
}

// NewRegistry validates sources and builds a registry preserving their order.
func NewRegistry(sources []Source) (*Registry, error) {
	r := &Registry{
		sources: make([]Source, 0, len(sources)),
		byName:  make(map[string]int, len(sources)),
	}

	for i, src := range sources {
		if src.UpdateIntervalMs == 0 {
			src.UpdateIntervalMs = DefaultUpdateIntervalMs
		}
		if err := validateSource(src); err != nil {
			return nil, fmt.Errorf("invalid source at index %d: %w", i, err)
		}
		if _, dup := r.byName[src.Name]; dup {
			return nil, fmt.Errorf("duplicate source name %q", src.Name)
		}
		r.byName[src.Name] = len(r.sources)
		r.sources = append(r.sources, src)
	}

	return r, nil
}

// LoadRegistry reads the catalog from path, or the embedded default catalog
// when path is empty.
func LoadRegistry(path string) (*Registry, error) {
	data := defaultSources
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read sources file: %w", err)
		}
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	r, err := NewRegistry(file.Sources)
	if err != nil {
		return nil, err
	}

	for _, c := range Categories() {
		slog.Debug("Sources loaded", "category", c, "count", len(r.ByCategory(c)))
	}

	return r, nil
}

func (r *Registry) Sources() []Source {
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

func (r *Registry) ByCategory(c Category) []Source {
	var out []Source
	for _, src := range r.sources {
		if src.Category == c {
			out = append(out, src)
		}
	}
	return out
}

func (r *Registry) Lookup(name string) (Source, error) {
	i, ok := r.byName[name]
	if !ok {
		return Source{}, fmt.Errorf("%w: %q", ErrSourceNotFound, name)
	}
	return r.sources[i], nil
}

func (r *Registry) Len() int {
	return len(r.sources)
}

func validateSource(src Source) error {
	requiredFields := map[string]string{
		"name": src.Name,
		"url":  src.URL,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	if _, err := ParseCategory(string(src.Category)); err != nil {
		return err
	}

	if src.UpdateIntervalMs < 0 {
		return fmt.Errorf("update interval must be non-negative")
	}

	return nil
}
