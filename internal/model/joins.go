package model

import (
	"fmt"
	"sort"
)

// Joins returns a LEFT JOIN per relation, sorted by alias so generated SQL is
// stable.
func (m *Model) Joins() []JoinSpec {
	names := make([]string, 0, len(m.Relations))
	for name := range m.Relations {
		names = append(names, name)
	}
	sort.Strings(names)

	joins := make([]JoinSpec, 0, len(names))
	for _, name := range names {
		rel := m.Relations[name]
		on := rel.On
		if on == "" {
			switch rel.Type {
			case "belongs_to":
				on = fmt.Sprintf("%s.%s = %s.%s", m.Alias, rel.FK, name, rel.PK)
			default:
				on = fmt.Sprintf("%s.%s = %s.%s", name, rel.FK, m.Alias, rel.PK)
			}
		}
		if rel.Where != "" {
			on = fmt.Sprintf("(%s) AND (%s)", on, rel.Where)
		}
		joins = append(joins, JoinSpec{
			Table:    rel.Table,
			Alias:    name,
			On:       on,
			Distinct: rel.Type == "has_many",
		})
	}
	return joins
}

func hasDistinct(joins []JoinSpec) bool {
	for _, j := range joins {
		if j.Distinct {
			return true
		}
	}
	return false
}
