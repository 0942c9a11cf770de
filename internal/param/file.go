package param

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SpaceFile is the on-disk YAML form of a parameter space.
type SpaceFile struct {
	Parameters []Spec `yaml:"parameters"`
}

// Parse builds a space from a YAML definition.
func Parse(data []byte) (*Space, error) {
	var f SpaceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing parameter space: %w", err)
	}
	return NewSpace(f.Parameters)
}

// LoadFile reads a parameter space definition from a YAML file.
func LoadFile(path string) (*Space, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading parameter space: %w", err)
	}
	return Parse(data)
}
