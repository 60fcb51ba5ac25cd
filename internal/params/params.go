// Package params decodes the DataTables parameter bag from a query string,
// a form body or JSON.
package params

import (
	"encoding/json"
	"net/url"
	"strings"

	"DataTablesAPI/internal/datatables"
	"DataTablesAPI/internal/logger"

	"github.com/gorilla/schema"
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	d.SetAliasTag("schema")
	return d
}

// FromValues decodes bracket-notation keys such as columns[0][search][value].
// Fields that fail to decode are left empty; the rest of the bag is kept.
func FromValues(values url.Values) datatables.Params {
	var p datatables.Params
	if err := decoder.Decode(&p, dottedKeys(values)); err != nil {
		logger.Debug("params_decode_partial", map[string]any{"error": err.Error()})
	}
	return p
}

// dottedKeys rewrites columns[0][name] into columns.0.name, the path syntax
// the schema decoder understands.
func dottedKeys(values url.Values) map[string][]string {
	out := make(map[string][]string, len(values))
	for key, v := range values {
		out[dotted(key)] = v
	}
	return out
}

func dotted(key string) string {
	if !strings.Contains(key, "[") {
		return key
	}
	key = strings.ReplaceAll(key, "][", ".")
	key = strings.ReplaceAll(key, "[", ".")
	key = strings.TrimSuffix(key, "]")
	return key
}

// FromJSON decodes a JSON bag. Each top-level key is decoded on its own so a
// malformed one (say "columns": "x") only drops that key.
func FromJSON(body []byte) (datatables.Params, error) {
	var p datatables.Params
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return p, err
	}
	fields := map[string]any{
		"draw":        &p.Draw,
		"start":       &p.Start,
		"length":      &p.Length,
		"order":       &p.Order,
		"columns":     &p.Columns,
		"search":      &p.Search,
		"_csv_output": &p.CSVOutput,
	}
	for key, dst := range fields {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(msg, dst); err != nil {
			logger.Debug("params_field_skipped", map[string]any{"key": key, "error": err.Error()})
		}
	}
	return p, nil
}

// FilterFromJSON decodes the programmatic filter body of POST requests.
func FilterFromJSON(body []byte) (datatables.FilterParams, error) {
	p, err := FromJSON(body)
	if err != nil {
		return datatables.FilterParams{}, err
	}
	return datatables.FilterParams{Columns: p.Columns, Search: p.Search}, nil
}
