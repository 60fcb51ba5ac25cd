package db

import (
	"context"
	"fmt"
)

// Executor runs the SQL a table query produces.
type Executor interface {
	QueryCount(ctx context.Context, sql string, args ...any) (int64, error)
	QueryMaps(ctx context.Context, sql string, args ...any) ([]map[string]any, error)
}

// DefaultExecutor returns the executor of whichever pool was initialized.
func DefaultExecutor() (Executor, error) {
	switch {
	case Pool != nil:
		return PgxExecutor{Pool: Pool}, nil
	case SQL != nil:
		return SqlxExecutor{DB: SQL}, nil
	}
	return nil, fmt.Errorf("db: no connection initialized")
}
