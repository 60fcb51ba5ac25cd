package model

import (
	"errors"
	"fmt"
)

// ErrUnknownTable is returned by Lookup for names missing from the registry.
var ErrUnknownTable = errors.New("unknown table")

var Registry = map[string]*Model{}

func InitRegistry(dir string) error {
	if err := LoadModelsFromDir(dir); err != nil {
		return fmt.Errorf("load error: %w", err)
	}
	if len(Registry) == 0 {
		return fmt.Errorf("no table definitions in %s", dir)
	}
	if err := ValidateRegistry(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

func Lookup(name string) (*Model, error) {
	m, ok := Registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return m, nil
}

func (m *Model) GetRelation(alias string) *ModelRelation {
	if m == nil || m.Relations == nil {
		return nil
	}
	return m.Relations[alias]
}
