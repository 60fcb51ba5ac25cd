package datatables

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Masterminds/squirrel"
)

// NoLimit is the page length sent by clients that want every row ("length=-1").
const NoLimit = -1

// matchingDataMarker prefixes data paths of columns that come from a joined table.
const matchingDataMarker = "_matchingData."

// Direction of one ORDER BY entry.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

func parseDirection(v Value) Direction {
	if strings.EqualFold(strings.TrimSpace(string(v)), string(Desc)) {
		return Desc
	}
	return Asc
}

// Value is a scalar of the parameter bag. Query strings always carry text,
// JSON clients may send numbers or booleans for the same field.
type Value string

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*v = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Value(s)
		return nil
	}
	*v = Value(b)
	return nil
}

func (v *Value) UnmarshalText(b []byte) error {
	*v = Value(b)
	return nil
}

func (v Value) String() string { return string(v) }

func (v Value) int() (int, bool) {
	s := strings.TrimSpace(string(v))
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// truthy treats "", "0" and "false" as false and anything else as true.
func (v Value) truthy() bool {
	s := strings.TrimSpace(string(v))
	return s != "" && s != "0" && !strings.EqualFold(s, "false")
}

// Params is the request parameter bag of the server-side table protocol.
type Params struct {
	Draw      Value         `json:"draw" schema:"draw"`
	Start     Value         `json:"start" schema:"start"`
	Length    Value         `json:"length" schema:"length"`
	Order     []OrderParam  `json:"order" schema:"order"`
	Columns   []ColumnParam `json:"columns" schema:"columns"`
	Search    SearchParam   `json:"search" schema:"search"`
	CSVOutput Value         `json:"_csv_output" schema:"_csv_output"`
}

// ExportRequested reports whether the client asked for bulk (CSV) output.
func (p Params) ExportRequested() bool {
	return p.CSVOutput.truthy()
}

type OrderParam struct {
	Column Value `json:"column" schema:"column"`
	Dir    Value `json:"dir" schema:"dir"`
}

type ColumnParam struct {
	Data       Value       `json:"data" schema:"data"`
	Name       Value       `json:"name" schema:"name"`
	Searchable Value       `json:"searchable" schema:"searchable"`
	Orderable  Value       `json:"orderable" schema:"orderable"`
	Search     SearchParam `json:"search" schema:"search"`
}

type SearchParam struct {
	Value Value `json:"value" schema:"value"`
	Regex Value `json:"regex" schema:"regex"`
}

// FilterParams replaces the column and search portion of a request for
// programmatic (non-ajax) filtering.
type FilterParams struct {
	Columns []ColumnParam `json:"columns"`
	Search  SearchParam   `json:"search"`
}

// OrderEntry is one column of a multi-column sort.
type OrderEntry struct {
	Column string
	Dir    Direction
}

// Order maps columns to directions. Slice order is sort precedence.
type Order []OrderEntry

// Set returns a copy of o with column sorted in dir. A column that is already
// present keeps its position.
func (o Order) Set(column string, dir Direction) Order {
	out := make(Order, len(o), len(o)+1)
	copy(out, o)
	for i := range out {
		if out[i].Column == column {
			out[i].Dir = dir
			return out
		}
	}
	return append(out, OrderEntry{Column: column, Dir: dir})
}

func (o Order) Get(column string) (Direction, bool) {
	for _, e := range o {
		if e.Column == column {
			return e.Dir, true
		}
	}
	return "", false
}

// Defaults holds the pagination and ordering used when the request does not
// carry its own.
type Defaults struct {
	Start  int
	Length int
	Order  Order
}

var DefaultDefaults = Defaults{Start: 0, Length: 10}

// RequestModel is the normalized form of one protocol request.
type RequestModel struct {
	Start      int
	Length     int
	Draw       int
	Order      Order
	ApplyLimit bool
}

// ColumnSpec is one column as declared by the client.
type ColumnSpec struct {
	Name        string
	Data        string
	Searchable  bool
	SearchValue string
	// ExactMatch is the protocol's "regex" flag. It selects equality instead
	// of substring matching; no regular expression is ever evaluated.
	ExactMatch bool
}

type MatchMode int

const (
	MatchWildcard MatchMode = iota
	MatchExact
)

func (m MatchMode) String() string {
	if m == MatchExact {
		return "exact"
	}
	return "wildcard"
}

// Target is the bucket a Condition is filed into.
type Target int

const (
	TargetOwn Target = iota
	TargetGlobal
	TargetRelated
)

func (t Target) String() string {
	switch t {
	case TargetGlobal:
		return "global"
	case TargetRelated:
		return "related"
	default:
		return "own"
	}
}

// Combo selects how a condition combines with its siblings.
type Combo int

const (
	ComboAnd Combo = iota
	ComboOr
)

// Condition is a single search predicate.
type Condition struct {
	Column      string // client supplied name
	Expression  string // column or computed expression the predicate uses
	Operand     any
	Match       MatchMode
	Target      Target
	Association string // set for TargetRelated
	Pred        squirrel.Sqlizer
}

// RelatedConditions are the AND conditions on one joined association.
type RelatedConditions struct {
	Association string
	Conditions  []Condition
}

// QueryPlan is everything Translate derived from one request.
type QueryPlan struct {
	Request RequestModel
	Columns []ColumnSpec
	And     []Condition
	Or      []Condition
	Related []RelatedConditions
}

// RelatedFor returns the conditions filed for association.
func (p *QueryPlan) RelatedFor(association string) []Condition {
	for _, r := range p.Related {
		if r.Association == association {
			return r.Conditions
		}
	}
	return nil
}

// HasConditions reports whether any bucket is non-empty.
func (p *QueryPlan) HasConditions() bool {
	return len(p.And) > 0 || len(p.Or) > 0 || len(p.Related) > 0
}

// ResultSummary carries the counters echoed to the client.
type ResultSummary struct {
	RecordsTotal    int64 `json:"recordsTotal"`
	RecordsFiltered int64 `json:"recordsFiltered"`
	Draw            int   `json:"draw"`
}

// DataSource is a query under construction. Process only attaches
// conditions, ordering and pagination; executing it is up to the caller.
type DataSource interface {
	// Alias is the name the primary table is referenced by in column names.
	Alias() string
	// SelectExpressions maps computed select aliases to their expressions.
	SelectExpressions() map[string]string
	// Count must run against the conditions attached so far; a result cached
	// before the last Where call is never acceptable.
	Count(ctx context.Context) (int64, error)
	Where(pred squirrel.Sqlizer)
	Limit(n uint64)
	Offset(n uint64)
	OrderBy(column string, dir Direction)
}

// CacheKeyer is implemented by data sources whose unfiltered count may be
// served from a TotalCache.
type CacheKeyer interface {
	CacheKey() (string, error)
}

// TotalCache serves the unfiltered record count. count is called on a miss.
type TotalCache interface {
	Total(ctx context.Context, key string, count func(context.Context) (int64, error)) (int64, error)
}
