/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the overtime engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load OVERTIME_* environment configuration
  2. Initialize SQLite store
  3. Wire bank and closing services
  4. Configure HTTP router
  5. Start server with graceful shutdown

CONFIGURATION (environment, all optional):
  OVERTIME_PORT                      HTTP port (default: 8080)
  OVERTIME_DB_PATH                   SQLite path (default: ./data/overtime.db,
                                     use ":memory:" for in-memory)
  The -port and -db flags override their environment counterparts.
  OVERTIME_NIGHT_START / NIGHT_END   Night window clocks (21:00 / 06:00)
  OVERTIME_ALLOCATION_WINDOW_MONTHS  Banking lookback (default: 3)
  OVERTIME_CORS_ORIGINS              Comma-separated origins (default: *)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - config/config.go: Environment configuration
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/overtime-engine/api"
	"github.com/warp/overtime-engine/bank"
	"github.com/warp/overtime-engine/closing"
	"github.com/warp/overtime-engine/config"
	"github.com/warp/overtime-engine/store/sqlite"
)

func main() {
	port := flag.Int("port", 0, "HTTP port (overrides OVERTIME_PORT)")
	dbPath := flag.String("db", "", "SQLite database path (overrides OVERTIME_DB_PATH)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	night, err := cfg.NightWindow()
	if err != nil {
		log.Fatalf("Invalid night window configuration: %v", err)
	}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Wire services; the store implements every repository interface
	bankSvc := bank.NewService(store, store, store, store, store)
	bankSvc.NightWindow = night
	bankSvc.WindowMonths = cfg.AllocationWindowMonths

	closingSvc := closing.NewService(store, store, store, store)
	closingSvc.NightWindow = night

	// Initialize handler and router
	handler := api.NewHandler(store, bankSvc, closingSvc, night)
	router := api.NewRouter(handler, cfg.CORSOrigins)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", cfg.Port)
		log.Printf("API available at http://localhost:%d/api", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
