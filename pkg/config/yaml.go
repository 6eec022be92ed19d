package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAML reads a YAML file into target.
func LoadYAML(path string, target any) error {
	// #nosec G304 -- path comes from the caller; untrusted inputs are the caller's problem.
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read YAML file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("unmarshal YAML: %w", err)
	}
	return nil
}

// SaveYAML writes config to a YAML file with restrictive permissions.
func SaveYAML(path string, config any) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write YAML file: %w", err)
	}
	return nil
}
