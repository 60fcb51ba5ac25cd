package router

import (
	"DataTablesAPI/internal/config"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testConfig() *config.Config {
	return &config.Config{CORS: config.CORSConfig{AllowOrigin: "*"}}
}

func TestNewRouterRoutesTables(t *testing.T) {
	var name string
	tables := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name = r.PathValue("name")
		w.WriteHeader(http.StatusOK)
	})
	h, err := NewRouter(testConfig(), tables)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tables/Users", nil))
	if w.Code != http.StatusOK || name != "Users" {
		t.Fatalf("status %d name %q", w.Code, name)
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatalf("missing request id")
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/tables/Users", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("DELETE: status %d", w.Code)
	}
}

func TestNewRouterKeepsRequestID(t *testing.T) {
	h, err := NewRouter(testConfig(), okHandler)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/tables/Users", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("request id not propagated: %q", got)
	}
}

func TestNewRouterAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, JWT: config.JWTConfig{ValidationType: "HS256", Issuer: "i", Audience: "a", HMACSecret: "s"}}
	h, err := NewRouter(cfg, okHandler)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tables/Users", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	cfg.Auth.JWT.HMACSecret = ""
	if _, err := NewRouter(cfg, okHandler); err == nil {
		t.Fatalf("expected validator error without a secret")
	}
}
