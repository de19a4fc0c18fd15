/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the recall-engine review-scheduling server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (file -> environment -> flags, later wins)
  2. Initialize SQLite store
  3. Wire processor, due resolver, and API handler
  4. Configure HTTP router
  5. Start server with graceful shutdown

CONFIGURATION:
  Flags:
    --config            Path to YAML config file (optional)
    --server.port       HTTP server port (default 8080)
    --server.origins    Allowed CORS origins
    --db.path           SQLite database path; ":memory:" for in-memory
    --display.timezone  Timezone for *_local response fields

  Environment variables use the RECALL_ prefix with underscores for dots:
    RECALL_SERVER_PORT=3000, RECALL_DB_PATH=/data/recall.db

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/warp/recall-engine/api"
	"github.com/warp/recall-engine/schedule"
	"github.com/warp/recall-engine/store/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	k, err := loadConfig(os.Args[1:])
	if err != nil {
		logger.Error("config load failed", "error", err.Error())
		os.Exit(1)
	}

	loc, err := time.LoadLocation(k.String("display.timezone"))
	if err != nil {
		logger.Error("invalid display timezone", "timezone", k.String("display.timezone"), "error", err.Error())
		os.Exit(1)
	}

	store, err := sqlite.New(k.String("db.path"))
	if err != nil {
		logger.Error("failed to initialize database", "error", err.Error())
		os.Exit(1)
	}
	defer store.Close()

	processor := schedule.NewProcessor(store, logger)
	resolver := schedule.NewDueResolver(store)
	handler := api.NewHandler(processor, resolver, loc, logger)
	router := api.NewRouter(handler, k.Strings("server.origins"))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", k.Int("server.port")),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			"port", k.Int("server.port"),
			"db_path", k.String("db.path"),
			"display_timezone", loc.String(),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err.Error())
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// loadConfig merges defaults, an optional YAML file, RECALL_* environment
// variables, and command-line flags, in that order of precedence.
func loadConfig(args []string) (*koanf.Koanf, error) {
	f := pflag.NewFlagSet("server", pflag.ContinueOnError)
	f.String("config", "", "path to YAML config file")
	f.Int("server.port", 8080, "HTTP server port")
	f.StringSlice("server.origins", []string{"http://localhost:5173", "http://localhost:8080"}, "allowed CORS origins")
	f.String("db.path", "recall.db", "SQLite database path (\":memory:\" for in-memory)")
	f.String("display.timezone", "Asia/Tokyo", "timezone for *_local response fields")
	if err := f.Parse(args); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if cfgPath, _ := f.GetString("config"); cfgPath != "" {
		if err := k.Load(file.Provider(cfgPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read %s: %w", cfgPath, err)
		}
	}

	if err := k.Load(env.Provider("RECALL_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "RECALL_")), "_", ".")
	}), nil); err != nil {
		return nil, err
	}

	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, err
	}

	return k, nil
}
