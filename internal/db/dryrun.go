package db

import (
	"context"
	"fmt"
	"io"
)

// DryRun prints every statement instead of executing it. Counts are zero and
// no rows are returned.
type DryRun struct {
	Out io.Writer
}

func (d DryRun) QueryCount(ctx context.Context, sql string, args ...any) (int64, error) {
	fmt.Fprintf(d.Out, "-- count\n%s\n-- args: %v\n", sql, args)
	return 0, nil
}

func (d DryRun) QueryMaps(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	fmt.Fprintf(d.Out, "-- select\n%s\n-- args: %v\n", sql, args)
	return nil, nil
}
