package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type policyFile struct {
	Policies []Policy `yaml:"policies"`
}

// LoadFile reads a YAML policy file. List order becomes registry order.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load policies %q: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Registry, error) {
	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse policies: %w", err)
	}
	if len(file.Policies) == 0 {
		return nil, fmt.Errorf("parse policies: no policies declared")
	}
	for _, p := range file.Policies {
		if !p.RuleVariant.IsKnown() {
			return nil, fmt.Errorf("policy %s: unknown variant %q", p.Key, p.RuleVariant)
		}
	}
	return NewRegistry(file.Policies...)
}

// Load returns the file registry when path is set, the built-in one otherwise.
func Load(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry(), nil
	}
	return LoadFile(path)
}
