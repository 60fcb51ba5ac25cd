package model

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// ValidateRegistry checks every loaded table for references that only make
// sense once the whole definition is known: default order columns, typed
// columns and alias clashes.
func ValidateRegistry() error {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := Registry[name].validate(); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) validate() error {
	for _, s := range m.Order {
		col, _, _ := strings.Cut(strings.TrimSpace(s), " ")
		if !m.KnownColumn(col) {
			return fmt.Errorf("model %s: order column %q is not declared", m.Name, col)
		}
	}
	for col := range m.Types {
		if !slices.Contains(m.Columns, col) {
			return fmt.Errorf("model %s: type given for undeclared column %q", m.Name, col)
		}
	}
	for name := range m.Computable {
		if slices.Contains(m.Columns, name) {
			return fmt.Errorf("model %s: computable %q shadows a column", m.Name, name)
		}
	}
	if _, ok := m.Relations[m.Alias]; ok {
		return fmt.Errorf("model %s: relation alias %q equals the table alias", m.Name, m.Alias)
	}
	return nil
}
