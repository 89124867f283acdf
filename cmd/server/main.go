package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/evanshaw/shopd/internal"
	"github.com/evanshaw/shopd/internal/middleware"
	"github.com/evanshaw/shopd/internal/postgres"
	"github.com/evanshaw/shopd/internal/router"
	"github.com/evanshaw/shopd/internal/routes"
	"github.com/evanshaw/shopd/internal/service"
	"github.com/evanshaw/shopd/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func run() error {
	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Run migrations
	logger.Info("Running migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close migration connection: %w", err)
	}

	// Initialize pgx connection pool for the application
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Initialize file storage
	files, err := storage.NewStorage(cfg.Media)
	if err != nil {
		return fmt.Errorf("failed to initialize file storage: %w", err)
	}

	// Build stores and services
	userStore := postgres.NewUserStore(pool)
	catalogStore := postgres.NewCatalogStore(pool)
	cartStore := postgres.NewCartStore(pool)

	users := service.NewUserService(userStore)
	catalog := service.NewCatalogService(catalogStore, files)
	carts := service.NewCartService(cartStore)

	// Metrics
	metrics := middleware.NewMetrics("shopd")

	// Create router with global middleware
	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		metrics.Middleware,
		router.Logger(logger),
		middleware.WithUser(users),
		middleware.WithRequestLogger(logger),
	)

	// Serve uploaded media
	r.Static(cfg.Media.URL, cfg.Media.Root)

	// Operational endpoints
	r.Handle(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Register API routes
	routes.RegisterAPI(r, routes.Deps{
		Logger:  logger,
		Users:   users,
		Catalog: catalog,
		Carts:   carts,
		Files:   files,
	})

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("Starting server", "address", addr, "env", cfg.Env)

	if err := http.ListenAndServe(addr, r); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
