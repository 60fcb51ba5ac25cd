package itests

import (
	"DataTablesAPI/internal"
	"DataTablesAPI/internal/config"
	"DataTablesAPI/internal/db"
	"DataTablesAPI/internal/handler"
	"DataTablesAPI/internal/model"
	"DataTablesAPI/internal/router"
	"fmt"
	"log"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

var (
	testBaseURL string
	testDSN     string
)

// TestMain runs the package against a real Postgres. Set ITEST_POSTGRES_DSN
// (a local postgres:// URL) to enable it.
func TestMain(m *testing.M) {
	baseDSN := os.Getenv("ITEST_POSTGRES_DSN")
	if baseDSN == "" {
		fmt.Println("ITEST_POSTGRES_DSN not set, skipping integration tests")
		os.Exit(0)
	}

	dsn, teardownDB, err := SetupAndTeardownTestDB(baseDSN, db.InitPostgres)
	if err != nil {
		fmt.Println("setup test DB failed:", err.Error())
		os.Exit(1)
	}
	testDSN = dsn

	root, err := internal.FindRepoRoot()
	if err != nil {
		fmt.Println("findRepoRoot failed:", err.Error())
		os.Exit(1)
	}
	tablesDir := filepath.Join(root, "test_db")
	if err := model.InitRegistry(tablesDir); err != nil {
		fmt.Println("InitRegistry failed:", err.Error())
		os.Exit(1)
	}

	exec, err := db.DefaultExecutor()
	if err != nil {
		fmt.Println("executor:", err.Error())
		os.Exit(1)
	}
	cfg := &config.Config{CORS: config.CORSConfig{AllowOrigin: "*"}}
	h, err := router.NewRouter(cfg, &handler.TableHandler{Exec: exec, DefaultLength: 10})
	if err != nil {
		fmt.Println("router:", err.Error())
		os.Exit(1)
	}
	srv := httptest.NewServer(h)
	testBaseURL = srv.URL

	code := m.Run()

	srv.Close()
	db.Pool.Close()
	if err := teardownDB(); err != nil {
		fmt.Println("drop test DB failed:", err.Error())
	} else {
		log.Printf("TestMain: test DB dropped")
	}
	os.Exit(code)
}
