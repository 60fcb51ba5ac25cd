package datatables

import "strings"

// Header returns the CSV header labels: every named column, with the
// joined-table marker removed, in request order.
func Header(cols []ColumnSpec) []string {
	header := make([]string, 0, len(cols))
	for _, c := range cols {
		if c.Name == "" {
			continue
		}
		header = append(header, strings.ReplaceAll(c.Name, matchingDataMarker, ""))
	}
	return header
}

// Paths returns the data path of every column that has both a name and a
// data path, in request order.
func Paths(cols []ColumnSpec) []string {
	paths := make([]string, 0, len(cols))
	for _, c := range cols {
		if c.Name == "" || c.Data == "" {
			continue
		}
		paths = append(paths, c.Data)
	}
	return paths
}
