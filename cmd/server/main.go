/*
main.go - Application entry point

STARTUP SEQUENCE:
  1. Load configuration (.env + environment), parse flags
  2. Initialize SQLite store
  3. Wire engine, registry, report builder, authenticator
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS (override environment):
  -port    HTTP server port (default from PORT, else 8080)
  -db      SQLite database path (default from DB_PATH)
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, wait up to 30s for
  active requests, close the database, exit.
*/
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

	"github.com/gudang/stock-engine/api"
	"github.com/gudang/stock-engine/auth"
	"github.com/gudang/stock-engine/config"
	"github.com/gudang/stock-engine/ledger"
	"github.com/gudang/stock-engine/logging"
	"github.com/gudang/stock-engine/report"
	"github.com/gudang/stock-engine/store/sqlite"
)

func main() {
	logging.Setup()
	cfg := config.Load()

	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	store, err := sqlite.New(*dbPath)
	if err != nil {
		slog.Error("failed to initialize database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage initialized", "database", *dbPath)

	engine := ledger.NewEngine(store)
	registry := ledger.NewRegistry(store)
	reports := report.NewBuilder(store)
	tokens := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TokenTTL)
	authn := auth.NewAuthenticator(store, registry, tokens)

	handler := api.NewHandler(engine, registry, reports, authn)
	router := api.NewRouter(handler, tokens)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
