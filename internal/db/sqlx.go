package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// SQL is the database/sql connection used when DB_DRIVER is not "pgx".
var SQL *sqlx.DB

func InitSQL(driver, dsn string) error {
	if dsn == "" {
		dsn = defaultDSN
	}
	var err error
	SQL, err = sqlx.Connect(driver, dsn)
	if err != nil {
		return fmt.Errorf("connect %s: %w", driver, err)
	}
	return nil
}

// SqlxExecutor runs queries through database/sql.
type SqlxExecutor struct {
	DB *sqlx.DB
}

func (e SqlxExecutor) QueryCount(ctx context.Context, sql string, args ...any) (int64, error) {
	var n int64
	if err := e.DB.QueryRowxContext(ctx, sql, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (e SqlxExecutor) QueryMaps(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	rows, err := e.DB.QueryxContext(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		// text columns come back as []byte
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
