package model

import (
	"strings"
	"unicode"
)

// Model describes one table served through the DataTables endpoint.
type Model struct {
	Name        string                    `yaml:"-"` // logical name, file name without extension
	Table       string                    `yaml:"table"`
	Alias       string                    `yaml:"alias"`   // defaults to Name
	Columns     []string                  `yaml:"columns"` // "Alias.column" or "Relation.column"
	Computable  map[string]*Computable    `yaml:"computable"`
	Types       map[string]string         `yaml:"types"` // non-text column types, e.g. "Users.id": int
	Relations   map[string]*ModelRelation `yaml:"relations"`
	Order       []string                  `yaml:"order"`  // default sort: ["Users.id desc"]
	Start       int                       `yaml:"start"`  // default offset
	Length      int                       `yaml:"length"` // default page length
	PrimaryKeys []string                  `yaml:"primary_keys"`
}

// Computable is a select expression exposed under its own column name.
type Computable struct {
	Source string `yaml:"source"` // SQL expression, e.g. "Users.first_name || ' ' || Users.last_name"
	Type   string `yaml:"type"`
}

// ModelRelation is a joined table. The map key is the alias it is joined
// under, which is also the association name clients use ("Roles.name").
type ModelRelation struct {
	Type  string `yaml:"type"`  // belongs_to, has_one, has_many
	Table string `yaml:"table"` // SQL table
	FK    string `yaml:"fk"`
	PK    string `yaml:"pk"`
	On    string `yaml:"on"`    // explicit join condition, overrides fk/pk
	Where string `yaml:"where"` // extra join condition (without WHERE)
}

// JoinSpec is a resolved LEFT JOIN.
type JoinSpec struct {
	Table    string
	Alias    string
	On       string
	Distinct bool
}

// GetPrimaryKeys returns the primary key columns, ["id"] when unset.
func (m *Model) GetPrimaryKeys() []string {
	if len(m.PrimaryKeys) > 0 {
		return m.PrimaryKeys
	}
	return []string{"id"}
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
