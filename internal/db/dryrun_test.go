package db

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestDryRunPrintsStatements(t *testing.T) {
	var buf bytes.Buffer
	d := DryRun{Out: &buf}

	n, err := d.QueryCount(context.Background(), "SELECT COUNT(*) FROM users", 1)
	if err != nil || n != 0 {
		t.Fatalf("QueryCount = %d, %v", n, err)
	}
	rows, err := d.QueryMaps(context.Background(), "SELECT * FROM users")
	if err != nil || rows != nil {
		t.Fatalf("QueryMaps = %v, %v", rows, err)
	}

	out := buf.String()
	if !strings.Contains(out, "-- count\nSELECT COUNT(*) FROM users") || !strings.Contains(out, "-- select\nSELECT * FROM users") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestDefaultExecutorWithoutConnection(t *testing.T) {
	Pool, SQL = nil, nil
	if _, err := DefaultExecutor(); err == nil {
		t.Fatalf("expected error without an initialized connection")
	}
}
