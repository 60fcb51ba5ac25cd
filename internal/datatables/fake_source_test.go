package datatables

import (
	"context"
	"fmt"
	"testing"

	"github.com/Masterminds/squirrel"
)

// fakeSource records every call Process makes. Count returns total until the
// first Where and filtered afterwards.
type fakeSource struct {
	alias    string
	computed map[string]string
	total    int64
	filtered int64
	countErr error

	calls  []string
	wheres []squirrel.Sqlizer
	limit  *uint64
	offset *uint64
	order  Order
}

func (f *fakeSource) Alias() string                        { return f.alias }
func (f *fakeSource) SelectExpressions() map[string]string { return f.computed }

func (f *fakeSource) Count(ctx context.Context) (int64, error) {
	f.calls = append(f.calls, "count")
	if f.countErr != nil {
		return 0, f.countErr
	}
	if len(f.wheres) == 0 {
		return f.total, nil
	}
	return f.filtered, nil
}

func (f *fakeSource) Where(pred squirrel.Sqlizer) {
	f.calls = append(f.calls, "where")
	f.wheres = append(f.wheres, pred)
}

func (f *fakeSource) Limit(n uint64) {
	f.calls = append(f.calls, fmt.Sprintf("limit %d", n))
	f.limit = &n
}

func (f *fakeSource) Offset(n uint64) {
	f.calls = append(f.calls, fmt.Sprintf("offset %d", n))
	f.offset = &n
}

func (f *fakeSource) OrderBy(column string, dir Direction) {
	f.calls = append(f.calls, fmt.Sprintf("order %s %s", column, dir))
	f.order = append(f.order, OrderEntry{Column: column, Dir: dir})
}

// twoColumns is the name/email column list used across tests.
func twoColumns() []ColumnParam {
	return []ColumnParam{
		{Name: "name", Data: "name", Searchable: "true", Orderable: "true"},
		{Name: "email", Data: "email", Searchable: "true", Orderable: "true"},
	}
}

func toSQL(t *testing.T, s squirrel.Sqlizer) (string, []any) {
	t.Helper()
	sql, args, err := s.ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	return sql, args
}
