package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"DataTablesAPI/internal/logger"

	"gopkg.in/yaml.v3"
)

func LoadModelsFromDir(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return err
	}

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		m, err := ParseModel(name, data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		Registry[name] = m
		logger.Info("model_loaded", map[string]any{
			"model":     name,
			"table":     m.Table,
			"columns":   len(m.Columns),
			"relations": len(m.Relations),
		})
	}
	return nil
}

// ParseModel validates the YAML keys, decodes the definition and fills in
// defaults.
func ParseModel(name string, data []byte) (*Model, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("empty YAML")
	}
	if err := validateYAMLNode(root.Content[0], "model"); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	var m Model
	if err := root.Decode(&m); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}
	m.Name = name
	if err := m.prepare(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Model) prepare() error {
	if strings.TrimSpace(m.Table) == "" {
		return fmt.Errorf("model %s: table is required", m.Name)
	}
	if m.Alias == "" {
		m.Alias = m.Name
	}
	if len(m.Columns) == 0 && len(m.Computable) == 0 {
		return fmt.Errorf("model %s: no columns declared", m.Name)
	}
	for relName, rel := range m.Relations {
		if rel.Table == "" {
			return fmt.Errorf("model %s: relation %s has no table", m.Name, relName)
		}
		if rel.Type == "" {
			rel.Type = "belongs_to"
		}
		if rel.PK == "" {
			rel.PK = "id"
		}
		if rel.FK == "" {
			switch rel.Type {
			case "belongs_to":
				rel.FK = toSnakeCase(relName) + "_id"
			default:
				rel.FK = toSnakeCase(m.Name) + "_id"
			}
		}
	}
	for name, c := range m.Computable {
		if c == nil || strings.TrimSpace(c.Source) == "" {
			return fmt.Errorf("model %s: computable %s has no source", m.Name, name)
		}
	}
	for _, col := range m.Columns {
		if assoc, _, ok := strings.Cut(col, "."); ok && assoc != m.Alias && m.Relations[assoc] == nil {
			return fmt.Errorf("model %s: column %s references unknown relation %s", m.Name, col, assoc)
		}
	}
	return nil
}
