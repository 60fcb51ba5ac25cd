package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

const matchingDataPrefix = "_matchingData."

// nestRow turns flat "Alias.column" keys into nested objects so clients can
// address cells with dotted data paths. Keys without a dot stay top-level.
func nestRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for key, v := range row {
		alias, col, ok := strings.Cut(key, ".")
		if !ok {
			out[key] = v
			continue
		}
		inner, _ := out[alias].(map[string]any)
		if inner == nil {
			inner = map[string]any{}
			out[alias] = inner
		}
		inner[col] = v
	}
	return out
}

// cell reads the value at a dotted data path. Joined-table paths may carry
// the _matchingData. prefix.
func cell(row map[string]any, path string) string {
	path = strings.TrimPrefix(path, matchingDataPrefix)
	if v, ok := row[path]; ok {
		return format(v)
	}
	x := jp.R()
	for _, seg := range strings.Split(path, ".") {
		x = x.C(seg)
	}
	return format(x.First(row))
}

func format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case map[string]any, []any:
		b, err := oj.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func writeCSV(w http.ResponseWriter, name string, header, paths []string, rows []map[string]any) error {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, name))

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	record := make([]string, len(paths))
	for _, row := range rows {
		for i, p := range paths {
			record[i] = cell(row, p)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
