package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadJSON reads a JSON file into target.
func LoadJSON(path string, target any) error {
	// #nosec G304 -- path comes from the caller; untrusted inputs are the caller's problem.
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read JSON file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("unmarshal JSON: %w", err)
	}
	return nil
}

// SaveJSON writes config to a JSON file with restrictive permissions.
func SaveJSON(path string, config any) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write JSON file: %w", err)
	}
	return nil
}
