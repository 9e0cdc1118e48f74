package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// loadEntities reads a YAML mapping of entity names to replacement text.
//
//	copy: "©"
//	company: "<b>Example</b> Ltd"
func loadEntities(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entities %s: %w", path, err)
	}
	var entities map[string]string
	if err := yaml.Unmarshal(data, &entities); err != nil {
		return nil, fmt.Errorf("parse entities %s: %w", path, err)
	}
	for name := range entities {
		if name == "" {
			return nil, fmt.Errorf("parse entities %s: empty entity name", path)
		}
	}
	if entities == nil {
		entities = map[string]string{}
	}
	return entities, nil
}
