package mapping

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk YAML form of a mapping, as written by the map command
// and consumed by generate.
type File struct {
	Template   string            `yaml:"template,omitempty"`
	NameColumn string            `yaml:"name_column,omitempty"`
	Bindings   map[string]string `yaml:"bindings"`
	Unbound    []string          `yaml:"unbound,omitempty"`
}

// LoadFile reads and parses a mapping file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse mapping file: %w", err)
	}
	return &f, nil
}

// Save writes the file as YAML.
func (f *File) Save(path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode mapping file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write mapping file: %w", err)
	}
	return nil
}

// Mapping returns the file's bindings as a Mapping.
func (f *File) Mapping() Mapping {
	m := make(Mapping, len(f.Bindings))
	for name, column := range f.Bindings {
		m[name] = column
	}
	return m
}
