/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the absence engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and the optional YAML config file
  2. Initialize SQLite store
  3. Seed default policy rules when the database is fresh
  4. Create service + API handler
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080, file value if -config set)
  -db      SQLite database path (default: absence.db)
           Use ":memory:" for in-memory database
  -config    Optional YAML configuration file; flags win on conflict
  -policies  Optional JSON rule-set file parsed through the rule factory;
             its rules replace the stored ones at startup

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/absence.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run with a config file, overriding its port
  ./server -config=absence.yaml -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/absence-engine/absence"
	"github.com/warp/absence-engine/api"
	"github.com/warp/absence-engine/config"
	"github.com/warp/absence-engine/factory"
	"github.com/warp/absence-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 0, "HTTP server port (overrides config file)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config file)")
	configPath := flag.String("config", "", "YAML configuration file")
	policiesPath := flag.String("policies", "", "JSON rule-set file; overwrites stored rules at startup")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	entitlement, err := cfg.AccrualConfig()
	if err != nil {
		log.Fatalf("Invalid entitlement config: %v", err)
	}

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// A fresh database gets the default per-type rules; an explicit rule
	// set overwrites whatever is stored
	if *policiesPath != "" {
		raw, err := os.ReadFile(*policiesPath)
		if err != nil {
			log.Fatalf("Failed to read rule set: %v", err)
		}
		rules, parsedEntitlement, err := factory.NewRuleFactory().ParseRuleSet(string(raw))
		if err != nil {
			log.Fatalf("Failed to parse rule set: %v", err)
		}
		for _, rule := range rules {
			if err := store.SavePolicyRule(context.Background(), rule); err != nil {
				log.Fatalf("Failed to store policy rule: %v", err)
			}
		}
		entitlement = parsedEntitlement
	} else if err := api.SeedDefaultRules(context.Background(), store); err != nil {
		log.Fatalf("Failed to seed policy rules: %v", err)
	}

	// Wire domain service; notifications persist through the store so the
	// API can serve them
	notifier := &absence.StoreNotifier{Store: store}
	svc := absence.NewService(store, entitlement, notifier)

	// Initialize handler and router
	handler := api.NewHandler(svc, store)
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", cfg.Server.Port)
		log.Printf("📊 API available at http://localhost:%d/api", cfg.Server.Port)
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
