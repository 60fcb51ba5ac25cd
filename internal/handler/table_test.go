package handler

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"DataTablesAPI/internal/model"

	"github.com/google/go-cmp/cmp"
)

const usersYAML = `
table: users
alias: Users
columns: [Users.id, Users.name, Roles.name]
types:
  Users.id: int
relations:
  Roles:
    type: belongs_to
    table: roles
    fk: role_id
order: ["Users.id asc"]
`

type fakeExec struct {
	counts []int64
	rows   []map[string]any
	stmts  []string
}

func (e *fakeExec) QueryCount(ctx context.Context, sql string, args ...any) (int64, error) {
	e.stmts = append(e.stmts, sql)
	n := e.counts[0]
	e.counts = e.counts[1:]
	return n, nil
}

func (e *fakeExec) QueryMaps(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	e.stmts = append(e.stmts, sql)
	return e.rows, nil
}

func setup(t *testing.T) (*TableHandler, *fakeExec) {
	t.Helper()
	m, err := model.ParseModel("Users", []byte(usersYAML))
	if err != nil {
		t.Fatalf("ParseModel: %v", err)
	}
	model.Registry = map[string]*model.Model{"Users": m}
	t.Cleanup(func() { model.Registry = map[string]*model.Model{} })

	exec := &fakeExec{
		counts: []int64{3, 1},
		rows: []map[string]any{
			{"Users.id": int64(2), "Users.name": "Ann", "Roles.name": "admin"},
		},
	}
	return &TableHandler{Exec: exec, DefaultLength: 10}, exec
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.Handle("GET /api/tables/{name}", h)
	mux.Handle("POST /api/tables/{name}", h)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

const query = "draw=3&start=0&length=10" +
	"&columns[0][data]=Users.name&columns[0][name]=Users.name&columns[0][searchable]=true" +
	"&columns[1][data]=_matchingData.Roles.name&columns[1][name]=Roles.name&columns[1][searchable]=true" +
	"&order[0][column]=0&order[0][dir]=desc&search[value]=an"

func TestTableHandlerJSON(t *testing.T) {
	h, exec := setup(t)
	w := serve(h, httptest.NewRequest(http.MethodGet, "/api/tables/Users?"+query, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Draw != 3 || resp.RecordsTotal != 3 || resp.RecordsFiltered != 1 {
		t.Fatalf("unexpected summary: %+v", resp)
	}
	want := []map[string]any{{
		"Users": map[string]any{"id": float64(2), "name": "Ann"},
		"Roles": map[string]any{"name": "admin"},
	}}
	if diff := cmp.Diff(want, resp.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}

	sel := exec.stmts[len(exec.stmts)-1]
	if !strings.Contains(sel, "ORDER BY Users.id ASC, Users.name DESC LIMIT 10 OFFSET 0") {
		t.Fatalf("unexpected select: %s", sel)
	}
	if !strings.Contains(sel, "Roles.name LIKE $") {
		t.Fatalf("global search missing: %s", sel)
	}
}

func TestTableHandlerUnknownColumnIsDropped(t *testing.T) {
	h, exec := setup(t)
	q := "columns[0][name]=password&columns[0][searchable]=true&columns[0][search][value]=x&order[0][column]=0"
	w := serve(h, httptest.NewRequest(http.MethodGet, "/api/tables/Users?"+q, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	for _, s := range exec.stmts {
		if strings.Contains(s, "password") {
			t.Fatalf("undeclared column reached SQL: %s", s)
		}
	}
}

func TestTableHandlerCSV(t *testing.T) {
	h, exec := setup(t)
	w := serve(h, httptest.NewRequest(http.MethodGet, "/api/tables/Users?"+query+"&_csv_output=1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type %q", ct)
	}
	records, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	want := [][]string{{"Users.name", "Roles.name"}, {"Ann", "admin"}}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Fatalf("csv mismatch (-want +got):\n%s", diff)
	}
	sel := exec.stmts[len(exec.stmts)-1]
	if strings.Contains(sel, "LIMIT") || strings.Contains(sel, "OFFSET") {
		t.Fatalf("export must not paginate: %s", sel)
	}
}

func TestTableHandlerPostJSONFilter(t *testing.T) {
	h, exec := setup(t)
	body := `{"columns":[{"name":"Users.name","search":{"value":"Ann","regex":"true"}}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/tables/Users?length=5", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := serve(h, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	sel := exec.stmts[len(exec.stmts)-1]
	if !strings.Contains(sel, "WHERE (Users.name = $1)") {
		t.Fatalf("filter not applied: %s", sel)
	}
	if strings.Contains(sel, "LIMIT") {
		t.Fatalf("programmatic filter must not paginate: %s", sel)
	}
}

func TestTableHandlerPostForm(t *testing.T) {
	h, _ := setup(t)
	req := httptest.NewRequest(http.MethodPost, "/api/tables/Users", strings.NewReader(query))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := serve(h, req)

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v (%s)", err, w.Body.String())
	}
	if resp.Draw != 3 {
		t.Fatalf("form params not decoded: %+v", resp)
	}
}

func TestTableHandlerErrors(t *testing.T) {
	h, _ := setup(t)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/api/tables/Nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown table: status %d", w.Code)
	}

	w = serve(h, httptest.NewRequest(http.MethodGet, "/api/tables/Users?columns[0][name]=Users.name&order[0][column]=4", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("order out of range: status %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/tables/Users", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	if w = serve(h, req); w.Code != http.StatusBadRequest {
		t.Fatalf("bad JSON: status %d", w.Code)
	}
}

func TestCellPaths(t *testing.T) {
	row := nestRow(map[string]any{"Roles.name": "admin", "full_name": "Ann Lee", "Users.tags": []any{"a"}})
	cases := map[string]string{
		"Roles.name":               "admin",
		"_matchingData.Roles.name": "admin",
		"full_name":                "Ann Lee",
		"Users.tags":               `["a"]`,
		"Users.missing":            "",
	}
	for path, want := range cases {
		if got := cell(row, path); got != want {
			t.Fatalf("cell(%q) = %q, want %q", path, got, want)
		}
	}
}
