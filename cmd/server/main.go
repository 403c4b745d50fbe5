/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the timesheet engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load the YAML config (or defaults) and apply flag overrides
  3. Initialize SQLite store
  4. Create API handler with dependencies
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML config file (optional)
  -port    HTTP server port, overrides the file
  -db      SQLite database path, overrides the file
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (server.shutdown_timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/timesheet.db"

  # Run with a config file, on another port
  ./server -config=./server.yaml -port=3000

SEE ALSO:
  - config/config.go: Config file format and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/warp/timesheet-engine/api"
	"github.com/warp/timesheet-engine/config"
	"github.com/warp/timesheet-engine/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML config file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	logger := cfg.Log.NewLogger()
	slog.SetDefault(logger)

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to initialize database", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	handler := api.NewHandler(store, logger)
	router := api.NewRouter(handler, api.RouterOptions{AllowedOrigins: cfg.Server.CORSOrigins})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr, "database", cfg.Database.Path)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or a failed listener
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		logger.Error("server failed", "error", err)
		store.Close()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return
	}

	logger.Info("server stopped")
}
