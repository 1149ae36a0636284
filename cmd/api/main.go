package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Lelo88/inventory-api-golang/internal/config"
	"github.com/Lelo88/inventory-api-golang/internal/db"
	"github.com/Lelo88/inventory-api-golang/internal/docs"
	"github.com/Lelo88/inventory-api-golang/internal/health"
	"github.com/Lelo88/inventory-api-golang/internal/httpx"
	"github.com/Lelo88/inventory-api-golang/internal/logging"
	"github.com/Lelo88/inventory-api-golang/internal/metrics"
	"github.com/Lelo88/inventory-api-golang/internal/products"
)

// appStorage es el repositorio de productos más lo que necesita el arranque.
type appStorage interface {
	products.RepositoryAPI
	health.Pinger
	EnsureSchema(ctx context.Context) error
}

// appDeps agrupa lo que run necesita del mundo exterior; en tests se reemplaza.
type appDeps struct {
	loadConfig  func() (config.Config, error)
	openStorage func(ctx context.Context, cfg config.Config) (appStorage, func(), error)
	serve       func(ctx context.Context, server *http.Server) error
	logOutput   io.Writer
}

var (
	depsFn = defaultDeps
	fatalf = func(args ...any) {
		log.Fatal(args...)
	}
)

func main() {
	// Contexto raíz del proceso: se cancela con SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, depsFn()); err != nil {
		fatalf(err)
	}
}

func defaultDeps() appDeps {
	return appDeps{
		loadConfig:  config.Load,
		openStorage: openStorage,
		serve:       serve,
		logOutput:   os.Stdout,
	}
}

func run(ctx context.Context, deps appDeps) error {
	cfg, err := deps.loadConfig()
	if err != nil {
		return err
	}

	logger := logging.New(deps.logOutput, cfg.LogLevel, cfg.LogFormat)

	store, closeStore, err := deps.openStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer closeStore()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           buildRouter(cfg, logger, store),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info().Str("addr", server.Addr).Str("storage", storageName(cfg)).Msg("listening")
	if err := deps.serve(ctx, server); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")

	return nil
}

// openStorage elige backend: PostgreSQL si hay DATABASE_URL, si no el archivo SQLite.
func openStorage(ctx context.Context, cfg config.Config) (appStorage, func(), error) {
	if cfg.UsePostgres() {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return products.NewPostgresRepository(pool), pool.Close, nil
	}

	database, err := db.OpenSQLite(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	return products.NewSQLiteRepository(database), func() {
		_ = db.CloseSQLite(database)
	}, nil
}

// serve atiende hasta que el contexto se cancela y después hace shutdown ordenado.
func serve(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func storageName(cfg config.Config) string {
	if cfg.UsePostgres() {
		return "postgres"
	}
	return "sqlite:" + cfg.DatabasePath
}

func buildRouter(cfg config.Config, logger zerolog.Logger, store appStorage) http.Handler {
	httpMetrics := metrics.New()

	r := chi.NewRouter()

	// Middlewares base para trazabilidad y estabilidad.
	r.Use(httpx.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(logger))
	r.Use(httpMetrics.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(httpx.CORS(cfg.AllowedOrigins))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	// Errores de routing se manejan a nivel router.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Detail(w, http.StatusNotFound, httpx.MessageNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Detail(w, http.StatusMethodNotAllowed, httpx.MessageMethodNotAllowed)
	})

	healthHandler := health.New(store)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Method(http.MethodGet, "/metrics", httpMetrics.Handler())

	docs.RegisterRoutes(r)
	products.RegisterRoutes(r, products.NewHandler(products.NewService(store)))

	return r
}
