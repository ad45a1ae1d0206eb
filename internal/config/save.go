package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SaveProject writes the project block into the YAML file at path, keeping
// every other key already in the file.
func SaveProject(path string, p Project) error {
	if p.ID == "" {
		p.ID = DefaultProject
	}

	doc := map[string]interface{}{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if doc == nil {
			doc = map[string]interface{}{}
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	projects, _ := doc["projects"].(map[string]interface{})
	if projects == nil {
		projects = map[string]interface{}{}
	}
	projects[p.ID] = p
	doc["projects"] = projects

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	// 0600: the file holds the helpdesk password
	return os.WriteFile(path, out, 0o600)
}
