package model

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"DataTablesAPI/internal/datatables"
	"DataTablesAPI/internal/db"
	"DataTablesAPI/internal/logger"

	"github.com/Masterminds/squirrel"
)

// Query is a SELECT over one model that datatables.Process configures.
// Every Count and Rows call builds and runs fresh SQL.
type Query struct {
	m      *Model
	exec   db.Executor
	where  []squirrel.Sqlizer
	order  []string
	limit  uint64
	offset uint64

	hasLimit  bool
	hasOffset bool
}

var _ datatables.DataSource = (*Query)(nil)
var _ datatables.CacheKeyer = (*Query)(nil)

func (m *Model) NewQuery(exec db.Executor) *Query {
	return &Query{m: m, exec: exec}
}

func (q *Query) Alias() string { return q.m.Alias }

func (q *Query) SelectExpressions() map[string]string { return q.m.SelectExpressions() }

func (q *Query) Where(pred squirrel.Sqlizer) {
	q.where = append(q.where, pred)
}

func (q *Query) Limit(n uint64) {
	q.limit, q.hasLimit = n, true
}

func (q *Query) Offset(n uint64) {
	q.offset, q.hasOffset = n, true
}

// OrderBy ignores columns the model does not declare; ORDER BY is raw SQL.
func (q *Query) OrderBy(column string, dir datatables.Direction) {
	if !q.m.KnownColumn(column) {
		logger.Warn("order_column_ignored", map[string]any{
			"model":  q.m.Name,
			"column": column,
		})
		return
	}
	expr := column
	if _, ok := q.m.Computable[column]; ok {
		expr = quoteIdent(column)
	}
	q.order = append(q.order, expr+" "+strings.ToUpper(string(dir)))
}

func (q *Query) from() squirrel.SelectBuilder {
	sb := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).Select()
	sb = sb.From(fmt.Sprintf("%s AS %s", q.m.Table, q.m.Alias))
	for _, j := range q.m.Joins() {
		sb = sb.LeftJoin(fmt.Sprintf("%s AS %s ON %s", j.Table, j.Alias, j.On))
	}
	for _, w := range q.where {
		sb = sb.Where(w)
	}
	return sb
}

// CountBuilder counts rows matching the conditions attached so far.
func (q *Query) CountBuilder() squirrel.SelectBuilder {
	sb := q.from()
	if hasDistinct(q.m.Joins()) {
		pks := make([]string, 0, len(q.m.GetPrimaryKeys()))
		for _, pk := range q.m.GetPrimaryKeys() {
			pks = append(pks, q.m.Alias+"."+pk)
		}
		return sb.Column(fmt.Sprintf("COUNT(DISTINCT (%s))", strings.Join(pks, ", ")))
	}
	return sb.Column("COUNT(*)")
}

// SelectBuilder is the final query: columns, conditions, order, pagination.
func (q *Query) SelectBuilder() squirrel.SelectBuilder {
	sb := q.from().Columns(q.selectColumns()...)
	if hasDistinct(q.m.Joins()) {
		sb = sb.Distinct()
	}
	if len(q.order) > 0 {
		sb = sb.OrderBy(q.order...)
	}
	if q.hasLimit {
		sb = sb.Limit(q.limit)
	}
	if q.hasOffset {
		sb = sb.Offset(q.offset)
	}
	return sb
}

func (q *Query) selectColumns() []string {
	cols := make([]string, 0, len(q.m.Columns)+len(q.m.Computable))
	for _, c := range q.m.Columns {
		cols = append(cols, fmt.Sprintf("%s AS %s", c, quoteIdent(c)))
	}
	names := make([]string, 0, len(q.m.Computable))
	for name := range q.m.Computable {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cols = append(cols, fmt.Sprintf("(%s) AS %s", q.m.Computable[name].Source, quoteIdent(name)))
	}
	return cols
}

func (q *Query) Count(ctx context.Context) (int64, error) {
	sqlStr, args, err := q.CountBuilder().ToSql()
	if err != nil {
		return 0, err
	}
	logger.Debug("sql", map[string]any{"model": q.m.Name, "kind": "count", "sql": sqlStr, "args": args})
	return q.exec.QueryCount(ctx, sqlStr, args...)
}

// Rows runs the final query.
func (q *Query) Rows(ctx context.Context) ([]map[string]any, error) {
	sqlStr, args, err := q.SelectBuilder().ToSql()
	if err != nil {
		return nil, err
	}
	logger.Debug("sql", map[string]any{"model": q.m.Name, "kind": "select", "sql": sqlStr, "args": args})
	return q.exec.QueryMaps(ctx, sqlStr, args...)
}

// CacheKey identifies the current count statement.
func (q *Query) CacheKey() (string, error) {
	sqlStr, args, err := q.CountBuilder().ToSql()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%v", sqlStr, args)))
	return "dtcount:" + q.m.Name + ":" + hex.EncodeToString(sum[:]), nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
