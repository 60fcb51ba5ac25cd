package datatables

import (
	"errors"
	"fmt"
)

// ErrOrderColumnOutOfRange means an order entry points past the column list.
// The client and server disagree on the column layout, so the request is not
// processed at all.
var ErrOrderColumnOutOfRange = errors.New("datatables: order column index out of range")

// TranslateConfig is what Translate needs besides the parameter bag.
type TranslateConfig struct {
	Defaults        Defaults
	ApplyLimit      bool
	Alias           string            // own alias of the data source
	Computed        map[string]string // computed select expressions
	CaseInsensitive bool              // ILIKE instead of LIKE for wildcard search
}

// Translate normalizes params into a QueryPlan: pagination, ordering, draw
// token, column list and the search conditions of every named column.
func Translate(params Params, cfg TranslateConfig) (*QueryPlan, error) {
	plan := &QueryPlan{
		Request: RequestModel{
			Start:      cfg.Defaults.Start,
			Length:     cfg.Defaults.Length,
			Order:      append(Order(nil), cfg.Defaults.Order...),
			ApplyLimit: cfg.ApplyLimit,
		},
	}
	req := &plan.Request

	if req.ApplyLimit {
		if n, ok := params.Length.int(); ok && n != 0 {
			if n < 0 {
				n = NoLimit
			}
			req.Length = n
		}
		if n, ok := params.Start.int(); ok {
			req.Start = n
		}
	}
	if req.Start < 0 {
		req.Start = 0
	}

	for _, item := range params.Order {
		idx, ok := item.Column.int()
		if !ok {
			continue
		}
		if idx < 0 || idx >= len(params.Columns) {
			return nil, fmt.Errorf("%w: index %d, %d columns", ErrOrderColumnOutOfRange, idx, len(params.Columns))
		}
		name := string(params.Columns[idx].Name)
		if name == "" {
			continue
		}
		req.Order = req.Order.Set(name, parseDirection(item.Dir))
	}

	if n, ok := params.Draw.int(); ok {
		req.Draw = n
	}

	plan.Columns = columnSpecs(params.Columns)

	// no column list, no search
	if len(plan.Columns) == 0 {
		return plan, nil
	}

	b := &conditionBuilder{
		alias:           cfg.Alias,
		computed:        cfg.Computed,
		caseInsensitive: cfg.CaseInsensitive,
		plan:            plan,
	}
	global := string(params.Search.Value)

	for _, col := range plan.Columns {
		if col.Name == "" {
			continue
		}
		if global != "" && col.Searchable {
			b.add(col.Name, global, ComboOr, MatchWildcard)
		}
		// Clients without a per-column search row copy the global term into
		// every column search; those copies are not column filters.
		if col.SearchValue == "" || col.SearchValue == global {
			continue
		}
		if col.ExactMatch {
			b.add(col.Name, col.SearchValue, ComboAnd, MatchExact)
		} else {
			b.add(col.Name, col.SearchValue, ComboAnd, MatchWildcard)
		}
	}
	return plan, nil
}

func columnSpecs(cols []ColumnParam) []ColumnSpec {
	if len(cols) == 0 {
		return nil
	}
	out := make([]ColumnSpec, 0, len(cols))
	for _, c := range cols {
		out = append(out, ColumnSpec{
			Name:        string(c.Name),
			Data:        string(c.Data),
			Searchable:  string(c.Searchable) == "true",
			SearchValue: string(c.Search.Value),
			ExactMatch:  c.Search.Regex.truthy(),
		})
	}
	return out
}
