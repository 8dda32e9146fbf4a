package world

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a world definition from a .json, .yaml or .yml file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read world file: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes a world definition. ext selects the format and includes the dot.
func Parse(data []byte, ext string) (*Definition, error) {
	var def Definition
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("failed to unmarshal world: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("failed to unmarshal world: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported world file extension %q", ext)
	}
	return &def, nil
}

// Save writes def to path in the format chosen by its extension.
func Save(path string, def *Definition) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(def, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(def)
	default:
		return fmt.Errorf("unsupported world file extension %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("failed to marshal world: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write world file: %w", err)
	}
	return nil
}
