package spec

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a world spec from a JSON or YAML file.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a world spec. JSON is a subset of YAML, so both are accepted.
// An empty document yields an empty Spec.
func Parse(data []byte) (*Spec, error) {
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing spec: %w", err)
	}
	return &s, nil
}
