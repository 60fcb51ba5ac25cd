package main

import (
	"DataTablesAPI/internal/cache"
	"DataTablesAPI/internal/config"
	"DataTablesAPI/internal/datatables"
	"DataTablesAPI/internal/db"
	"DataTablesAPI/internal/handler"
	"DataTablesAPI/internal/logger"
	"DataTablesAPI/internal/model"
	"DataTablesAPI/internal/params"
	"DataTablesAPI/internal/router"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

func main() {
	var debug bool
	rootCmd := &cobra.Command{
		Use:   "datatables-api",
		Short: "DataTables server-side processing API",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Init("."); err != nil {
				return fmt.Errorf("log init failed: %w", err)
			}
			logger.SetDebug(debug)
			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(explainCmd())
	rootCmd.AddCommand(flushCacheCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()

			exec, err := initDB(cfg)
			if err != nil {
				logger.Error("db_init_failed", map[string]any{"error": err.Error()})
				return err
			}
			logger.Info("db_connected", map[string]any{"driver": cfg.DBDriver})

			if err := model.InitRegistry(cfg.TablesDir); err != nil {
				logger.Error("registry_init_failed", map[string]any{"error": err.Error()})
				return err
			}
			logger.Info("tables_initialized", map[string]any{"count": len(model.Registry)})

			tables := &handler.TableHandler{
				Exec:            exec,
				DefaultLength:   cfg.DataTables.DefaultLength,
				CaseInsensitive: cfg.DataTables.CaseInsensitive,
			}
			db.InitRedis(cfg.Redis.Addr)
			if db.RDB != nil {
				if err := db.PingRedis(cmd.Context()); err != nil {
					logger.Warn("redis_unavailable", map[string]any{"error": err.Error()})
				}
				tables.Cache = cache.NewTotalCache(db.RDB, cfg.Redis.TotalTTL)
			}

			h, err := router.NewRouter(cfg, tables)
			if err != nil {
				logger.Error("router_init_failed", map[string]any{"error": err.Error()})
				return err
			}

			srv := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           h,
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				logger.Info("server_start", map[string]any{"port": cfg.Port})
				fmt.Printf("Starting server on port %s\n", cfg.Port)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server_error", map[string]any{"error": err.Error()})
					os.Exit(1)
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			logger.Info("server_shutdown", nil)
			return srv.Shutdown(ctx)
		},
	}
}

// initDB connects the configured driver and returns its executor.
func initDB(cfg *config.Config) (db.Executor, error) {
	switch cfg.DBDriver {
	case "pgx":
		if err := db.InitPostgres(cfg.PostgresDSN); err != nil {
			return nil, err
		}
	case "postgres":
		if err := db.InitSQL(cfg.DBDriver, cfg.PostgresDSN); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return db.DefaultExecutor()
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	run := func(cmd *cobra.Command, step func(*migrate.Migrate) error) error {
		cfg := config.LoadConfig()
		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = cfg.MigrationsDir
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("abs migrations: %w", err)
		}
		m, err := migrate.New("file://"+filepath.ToSlash(abs), cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("migrate.New: %w", err)
		}
		defer func() { _, _ = m.Close() }()

		if err := step(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration failed: %w", err)
		}
		version, dirty, _ := m.Version()
		logger.Info("migrations_applied", map[string]any{"version": version, "dirty": dirty})
		fmt.Printf("Schema at version %d (dirty=%t)\n", version, dirty)
		return nil
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(m *migrate.Migrate) error { return m.Up() })
		},
	}
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(m *migrate.Migrate) error { return m.Steps(-1) })
		},
	}
	for _, c := range []*cobra.Command{upCmd, downCmd} {
		c.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
		cmd.AddCommand(c)
	}
	return cmd
}

func explainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <table> <query-string>",
		Short: "Print the SQL a DataTables request produces without running it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			if err := model.InitRegistry(cfg.TablesDir); err != nil {
				return err
			}
			m, err := model.Lookup(args[0])
			if err != nil {
				return err
			}
			values, err := url.ParseQuery(args[1])
			if err != nil {
				return fmt.Errorf("parse query: %w", err)
			}
			p := params.FromValues(values)
			p.Columns = m.RestrictColumns(p.Columns)

			q := m.NewQuery(db.DryRun{Out: cmd.OutOrStdout()})
			res, err := datatables.Process(cmd.Context(), q, p,
				datatables.WithDefaults(m.Defaults(cfg.DataTables.DefaultLength)),
				datatables.WithCaseInsensitive(cfg.DataTables.CaseInsensitive),
			)
			if err != nil {
				return err
			}
			if _, err := q.Rows(cmd.Context()); err != nil {
				return err
			}
			if res.Export {
				fmt.Fprintf(cmd.OutOrStdout(), "-- csv header: %v\n", res.Header)
			}
			return nil
		},
	}
}

func flushCacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush-cache",
		Short: "Drop every cached unfiltered total",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			db.InitRedis(cfg.Redis.Addr)
			if db.RDB == nil {
				return errors.New("REDIS_ADDR is not set")
			}
			if err := cache.NewTotalCache(db.RDB, cfg.Redis.TotalTTL).Flush(cmd.Context()); err != nil {
				return err
			}
			logger.Info("total_cache_flushed", nil)
			return nil
		},
	}
}
