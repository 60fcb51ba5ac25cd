package model

import (
	"fmt"
	"slices"
	"strings"

	"DataTablesAPI/internal/datatables"
)

// KnownColumn reports whether name is a declared or computable column.
func (m *Model) KnownColumn(name string) bool {
	if _, ok := m.Computable[name]; ok {
		return true
	}
	return slices.Contains(m.Columns, name)
}

// SelectExpressions maps computable names to their SQL expressions. Columns
// of a non-text type map to a TEXT cast so both substring and equality
// search compare text.
func (m *Model) SelectExpressions() map[string]string {
	out := make(map[string]string, len(m.Computable)+len(m.Types))
	for col, typ := range m.Types {
		if typ != "string" {
			out[col] = fmt.Sprintf("CAST(%s AS TEXT)", col)
		}
	}
	for name, c := range m.Computable {
		out[name] = c.Source
	}
	return out
}

// RestrictColumns blanks every column name the model does not declare.
// Blank names take no part in search, ordering or export, so only declared
// columns ever reach the SQL.
func (m *Model) RestrictColumns(cols []datatables.ColumnParam) []datatables.ColumnParam {
	if cols == nil {
		return nil
	}
	out := make([]datatables.ColumnParam, len(cols))
	copy(out, cols)
	for i := range out {
		name := string(out[i].Name)
		if name != "" && !m.KnownColumn(name) {
			out[i].Name = ""
		}
	}
	return out
}

// Defaults returns the table's pagination and ordering defaults.
// fallbackLength is used when the definition has no length.
func (m *Model) Defaults(fallbackLength int) datatables.Defaults {
	d := datatables.Defaults{Start: m.Start, Length: m.Length}
	if d.Length <= 0 {
		d.Length = fallbackLength
	}
	for _, s := range m.Order {
		parts := strings.Fields(s)
		if len(parts) == 0 {
			continue
		}
		dir := datatables.Asc
		if len(parts) > 1 && strings.EqualFold(parts[1], "desc") {
			dir = datatables.Desc
		}
		d.Order = d.Order.Set(parts[0], dir)
	}
	return d
}
