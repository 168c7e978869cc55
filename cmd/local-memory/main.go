package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/esskayesss/local-memory/internal/config"
	"github.com/esskayesss/local-memory/internal/embedding"
	"github.com/esskayesss/local-memory/internal/engine"
	"github.com/esskayesss/local-memory/internal/server"
	"github.com/esskayesss/local-memory/internal/storage"
	"github.com/esskayesss/local-memory/internal/storage/postgres"
	"github.com/esskayesss/local-memory/internal/storage/sqlite"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	embedder := embedding.NewOllamaClient(embedding.OllamaConfig{
		BaseURL:           cfg.Embedding.OllamaURL,
		Model:             cfg.Embedding.Model,
		Timeout:           time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
	})
	if err := embedder.HealthCheck(context.Background()); err != nil {
		log.Printf("Warning: embedding backend not reachable at %s: %v", cfg.Embedding.OllamaURL, err)
	}

	eng := engine.New(store, embedder, cfg.Recall.CandidateLimit)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, err := server.Start(ctx, cfg, eng)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("local-memory API running at http://%s", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second) // Give time for connections to close
}

// openStore opens the configured storage backend. The sqlite backend
// creates its data directory on first run.
func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Engine {
	case "postgres":
		return postgres.New(cfg.Storage.PostgresDSN)
	default:
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
			return nil, err
		}
		return sqlite.New(filepath.Join(cfg.Storage.DataPath, "local-memory.db"))
	}
}
