package handler

import (
	"DataTablesAPI/internal/datatables"
	"DataTablesAPI/internal/db"
	"DataTablesAPI/internal/logger"
	"DataTablesAPI/internal/model"
	"DataTablesAPI/internal/params"

	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
)

// TableHandler serves GET and POST /api/tables/{name}.
type TableHandler struct {
	Exec            db.Executor
	Cache           datatables.TotalCache // nil disables the total-count cache
	DefaultLength   int
	CaseInsensitive bool
}

// Response is the DataTables server-side reply.
type Response struct {
	Draw            int              `json:"draw"`
	RecordsTotal    int64            `json:"recordsTotal"`
	RecordsFiltered int64            `json:"recordsFiltered"`
	Data            []map[string]any `json:"data"`
}

func (h *TableHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	m, err := model.Lookup(name)
	if err != nil {
		logger.Warn("table_not_found", map[string]any{"table": name})
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	p, opts, err := h.decode(r, m)
	if err != nil {
		logger.Warn("invalid_request", map[string]any{
			"table": name,
			"error": err.Error(),
		})
		http.Error(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}
	p.Columns = m.RestrictColumns(p.Columns)

	opts = append(opts,
		datatables.WithDefaults(m.Defaults(h.DefaultLength)),
		datatables.WithCaseInsensitive(h.CaseInsensitive),
	)
	if h.Cache != nil {
		opts = append(opts, datatables.WithTotalCache(h.Cache))
	}

	q := m.NewQuery(h.Exec)
	res, err := datatables.Process(r.Context(), q, p, opts...)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, datatables.ErrOrderColumnOutOfRange) {
			status = http.StatusBadRequest
		}
		logger.Error("process_failed", map[string]any{
			"table": name,
			"error": err.Error(),
		})
		http.Error(w, "Failed to process request: "+err.Error(), status)
		return
	}

	rows, err := q.Rows(r.Context())
	if err != nil {
		logger.Error("query_failed", map[string]any{
			"table": name,
			"error": err.Error(),
		})
		http.Error(w, "Failed to load rows: "+err.Error(), http.StatusInternalServerError)
		return
	}
	data := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		data = append(data, nestRow(row))
	}

	if res.Export {
		if err := writeCSV(w, name, res.Header, res.Extract, data); err != nil {
			logger.Error("write_response_failed", map[string]any{
				"table": name,
				"error": err.Error(),
			})
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(Response{
		Draw:            res.Summary.Draw,
		RecordsTotal:    res.Summary.RecordsTotal,
		RecordsFiltered: res.Summary.RecordsFiltered,
		Data:            data,
	}); err != nil {
		logger.Error("write_response_failed", map[string]any{
			"table": name,
			"error": err.Error(),
		})
	}
}

// decode reads the parameter bag. A JSON POST body is a programmatic filter:
// its columns and search replace the query-string ones and pagination is off
// unless the body sets apply_limit.
func (h *TableHandler) decode(r *http.Request, m *model.Model) (datatables.Params, []datatables.Option, error) {
	if r.Method != http.MethodPost {
		return params.FromValues(r.URL.Query()), nil, nil
	}

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct != "application/json" {
		if err := r.ParseForm(); err != nil {
			return datatables.Params{}, nil, err
		}
		return params.FromValues(r.Form), nil, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return datatables.Params{}, nil, err
	}
	fp, err := params.FilterFromJSON(body)
	if err != nil {
		return datatables.Params{}, nil, err
	}
	fp.Columns = m.RestrictColumns(fp.Columns)
	opts := []datatables.Option{datatables.WithFilterParams(fp)}

	var extra struct {
		ApplyLimit *bool `json:"apply_limit"`
	}
	if err := json.Unmarshal(body, &extra); err == nil && extra.ApplyLimit != nil {
		opts = append(opts, datatables.WithApplyLimit(*extra.ApplyLimit))
	}
	return params.FromValues(r.URL.Query()), opts, nil
}
