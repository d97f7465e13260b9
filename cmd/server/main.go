package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/classroll/internal/config"
	"github.com/mmynk/classroll/internal/enrollment"
	"github.com/mmynk/classroll/internal/metrics"
	"github.com/mmynk/classroll/internal/service"
	"github.com/mmynk/classroll/internal/storage/postgres"
	"github.com/mmynk/classroll/internal/storage/sqlite"
	"github.com/mmynk/classroll/internal/storage/sqlstore"
	"github.com/mmynk/classroll/pkg/logging"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to an optional config file")
	reset := flag.Bool("reset", false, "drop and recreate the database schema before serving")
	flag.Parse()

	if err := run(*configPath, *reset); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, reset bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.SetupWith(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.DB.Driver)

	if reset || cfg.DB.Reset {
		if err := store.Reset(ctx); err != nil {
			return err
		}
		slog.Warn("Database schema reset, all data removed")
	}

	m := metrics.New()

	opts := []enrollment.Option{enrollment.WithRecorder(m)}
	if cfg.Enrollment.LegacyAssignCount {
		opts = append(opts, enrollment.WithAssignCounting(enrollment.CountAll))
		slog.Info("Enrollment endpoint counts inactive members towards capacity")
	}
	enroll := enrollment.NewService(store, opts...)

	router := service.NewRouter(enroll, store, service.RouterOptions{
		Metrics:        m,
		RateLimit:      cfg.HTTP.RateLimit,
		RateBurst:      cfg.HTTP.RateBurst,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	// Wrap with h2c for HTTP/2 without TLS
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", srv.Addr, "url", fmt.Sprintf("http://localhost%s", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.DBConfig) (*sqlstore.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.URL)
	default:
		return sqlite.New(ctx, cfg.Path)
	}
}
