package datatables

import (
	"context"
	"fmt"

	"DataTablesAPI/internal/logger"

	"github.com/Masterminds/squirrel"
)

type options struct {
	defaults        Defaults
	filter          *FilterParams
	applyLimit      *bool
	caseInsensitive bool
	totalCache      TotalCache
}

// Option tunes a single Process call.
type Option func(*options)

// WithDefaults sets the pagination and ordering used when the request has none.
func WithDefaults(d Defaults) Option {
	return func(o *options) { o.defaults = d }
}

// WithFilterParams filters with fp instead of the request's columns and
// search, and turns pagination off.
func WithFilterParams(fp FilterParams) Option {
	return func(o *options) { o.filter = &fp }
}

// WithApplyLimit forces pagination on or off.
func WithApplyLimit(apply bool) Option {
	return func(o *options) { o.applyLimit = &apply }
}

// WithCaseInsensitive makes wildcard search use ILIKE.
func WithCaseInsensitive(ci bool) Option {
	return func(o *options) { o.caseInsensitive = ci }
}

// WithTotalCache serves the unfiltered count from c when the data source
// implements CacheKeyer. The filtered count is never cached.
func WithTotalCache(c TotalCache) Option {
	return func(o *options) { o.totalCache = c }
}

// Result is what Process hands back to the caller.
type Result struct {
	Source  DataSource
	Summary ResultSummary
	Plan    *QueryPlan
	// Export is set when the client requested bulk output; Header and
	// Extract are filled only then.
	Export  bool
	Header  []string
	Extract []string
}

// Process applies one protocol request to ds: total count, search
// conditions, filtered count, pagination, ordering. The order of these steps
// is what makes both counts correct.
func Process(ctx context.Context, ds DataSource, params Params, opts ...Option) (*Result, error) {
	o := options{defaults: DefaultDefaults}
	for _, opt := range opts {
		opt(&o)
	}

	alias := ds.Alias()
	computed := ds.SelectExpressions()

	applyLimit := !params.ExportRequested()
	if o.filter != nil {
		params.Columns = o.filter.Columns
		params.Search = o.filter.Search
		applyLimit = false
	}
	if o.applyLimit != nil {
		applyLimit = *o.applyLimit
	}

	plan, err := Translate(params, TranslateConfig{
		Defaults:        o.defaults,
		ApplyLimit:      applyLimit,
		Alias:           alias,
		Computed:        computed,
		CaseInsensitive: o.caseInsensitive,
	})
	if err != nil {
		return nil, err
	}

	total, err := countTotal(ctx, ds, o.totalCache)
	if err != nil {
		return nil, fmt.Errorf("datatables: count total: %w", err)
	}

	if len(plan.And) > 0 {
		ds.Where(squirrel.And(predicates(plan.And)))
	}
	for _, rel := range plan.Related {
		ds.Where(squirrel.And(predicates(rel.Conditions)))
	}
	if len(plan.Or) > 0 {
		ds.Where(squirrel.Or(predicates(plan.Or)))
	}

	filtered, err := ds.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("datatables: count filtered: %w", err)
	}
	// A cached total may be stale; the fresh filtered count bounds it.
	if !plan.HasConditions() {
		total = filtered
	} else if total < filtered {
		total = filtered
	}

	req := plan.Request
	if req.ApplyLimit {
		if req.Length > 0 {
			ds.Limit(uint64(req.Length))
		}
		ds.Offset(uint64(req.Start))
	}
	for _, e := range req.Order {
		ds.OrderBy(e.Column, e.Dir)
	}

	res := &Result{
		Source: ds,
		Plan:   plan,
		Summary: ResultSummary{
			RecordsTotal:    total,
			RecordsFiltered: filtered,
			Draw:            req.Draw,
		},
		Export: params.ExportRequested(),
	}
	if res.Export {
		res.Header = Header(plan.Columns)
		res.Extract = Paths(plan.Columns)
	}

	logger.Debug("datatables_processed", map[string]any{
		"alias":            alias,
		"draw":             req.Draw,
		"records_total":    total,
		"records_filtered": filtered,
		"and":              len(plan.And),
		"or":               len(plan.Or),
		"related":          len(plan.Related),
		"apply_limit":      req.ApplyLimit,
		"export":           res.Export,
	})
	return res, nil
}

func countTotal(ctx context.Context, ds DataSource, cache TotalCache) (int64, error) {
	if cache == nil {
		return ds.Count(ctx)
	}
	keyer, ok := ds.(CacheKeyer)
	if !ok {
		return ds.Count(ctx)
	}
	key, err := keyer.CacheKey()
	if err != nil {
		logger.Warn("total_cache_key_failed", map[string]any{"error": err.Error()})
		return ds.Count(ctx)
	}
	return cache.Total(ctx, key, ds.Count)
}
