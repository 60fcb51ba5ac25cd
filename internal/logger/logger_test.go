package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestWriteJSONLine(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(&bytes.Buffer{}) })

	Warn("order_column_ignored", map[string]any{"column": "x"})

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("not a JSON line: %q (%v)", buf.String(), err)
	}
	if line["level"] != "warn" || line["msg"] != "order_column_ignored" || line["column"] != "x" {
		t.Fatalf("unexpected line: %v", line)
	}
	if _, ok := line["ts"]; !ok {
		t.Fatalf("missing ts: %v", line)
	}
}

func TestDebugRequiresFlag(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetDebug(false)
		SetOutput(&bytes.Buffer{})
	})

	SetDebug(false)
	Debug("sql", nil)
	if buf.Len() != 0 {
		t.Fatalf("debug written while disabled: %s", buf.String())
	}

	SetDebug(true)
	Debug("sql", map[string]any{"sql": "SELECT 1"})
	if !strings.Contains(buf.String(), `"level":"debug"`) {
		t.Fatalf("debug line missing: %s", buf.String())
	}
}
