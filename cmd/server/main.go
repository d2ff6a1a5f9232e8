package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/messaging-engine/internal/api"
	"github.com/ignite/messaging-engine/internal/config"
	"github.com/ignite/messaging-engine/internal/engine"
	"github.com/ignite/messaging-engine/internal/metrics"
	"github.com/ignite/messaging-engine/internal/provider"
	"github.com/ignite/messaging-engine/internal/repository/postgres"
	"github.com/ignite/messaging-engine/internal/service/audit"
	"github.com/ignite/messaging-engine/internal/service/processing"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	log.Println("[Server] Messaging decision engine starting")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[Server] DATABASE_URL env override active")
	}

	// Pre-flight check: verify the target port is available
	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Invalid rules are a startup failure, with every problem reported
	// at once.
	catalog, err := engine.LoadCatalog(ctx, cfg.Rules.Path)
	if err != nil {
		log.Fatalf("[Catalog] Failed to load rule catalog from %s:\n%v", cfg.Rules.Path, err)
	}

	// Postgres
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL (or database.url in config) is required")
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime())

	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	err = db.PingContext(pingCtx)
	pingCancel()
	if err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("[Server] Connected to database")

	store := postgres.NewStore(db)

	// Message provider: file-log stub by default, SES for real email
	// delivery. Non-email channels always go through the file log.
	templates := provider.NewTemplates()
	fileLog, err := provider.NewFileLog(templates, cfg.Provider.MessageLogPath)
	if err != nil {
		log.Fatalf("Failed to open message log %s: %v", cfg.Provider.MessageLogPath, err)
	}
	defer fileLog.Close()

	var prov provider.Provider = fileLog
	if cfg.Provider.Kind == "ses" {
		sesProvider, err := provider.NewSES(ctx, provider.SESConfig{
			Region:           cfg.Provider.SES.Region,
			AccessKey:        cfg.Provider.SES.AccessKey,
			SecretKey:        cfg.Provider.SES.SecretKey,
			FromAddress:      cfg.Provider.SES.FromAddress,
			ConfigurationSet: cfg.Provider.SES.ConfigurationSet,
		}, templates, fileLog)
		if err != nil {
			log.Fatalf("Failed to initialize SES provider: %v", err)
		}
		prov = sesProvider
		log.Printf("[Provider] SES delivery enabled (region %s, from %s)",
			cfg.Provider.SES.Region, cfg.Provider.SES.FromAddress)
	} else {
		log.Printf("[Provider] File-log delivery, messages append to %s", cfg.Provider.MessageLogPath)
	}

	// Optional decision metrics feed. A dead Redis disables the feed but
	// never blocks event processing.
	var publisher *metrics.Publisher
	if cfg.Metrics.Enabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.Metrics.RedisAddr,
			DB:   cfg.Metrics.RedisDB,
		})
		redisCtx, redisCancel := context.WithTimeout(ctx, 2*time.Second)
		err := redisClient.Ping(redisCtx).Err()
		redisCancel()
		if err != nil {
			log.Printf("[Metrics] Redis unreachable at %s, decision feed disabled: %v", cfg.Metrics.RedisAddr, err)
			redisClient.Close()
		} else {
			publisher = metrics.NewPublisher(redisClient, cfg.Metrics.RecentLimit)
			publisher.Start()
			log.Printf("[Metrics] Decision feed publishing to %s", cfg.Metrics.RedisAddr)
		}
	} else {
		log.Println("[Metrics] Decision feed disabled (no redis_addr configured)")
	}

	// Services
	var recorder processing.MetricsRecorder
	if publisher != nil {
		recorder = publisher
	}
	processor := processing.NewService(store, engine.NewEvaluator(catalog), prov, recorder)
	auditor := audit.NewService(store.Decisions(), store.Events(), store.SendRequests(), store.Suppressions())

	var feed api.DecisionFeed
	if publisher != nil {
		feed = publisher
	}
	handlers := api.NewHandlers(processor, auditor, feed, db)
	server := api.NewServer(cfg.Server, handlers)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, cfg.Server.Port)
		log.Printf("[Server] Listening on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("[Server] Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if publisher != nil {
		publisher.Stop()
	}

	log.Println("[Server] Stopped")
}
