package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"DocChatAI/app/configs"
	"DocChatAI/app/extractor"
	"DocChatAI/app/models"
	"DocChatAI/app/rag"
	"DocChatAI/app/server"
	"DocChatAI/app/storage"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("📂 Loaded environment from .env")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := configs.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("❌ Error loading configuration: %v", err)
	}

	chunker, err := rag.NewChunker(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		log.Fatalf("❌ Invalid chunking configuration: %v", err)
	}

	store, err := rag.NewQdrantStore(cfg.Qdrant.Host, cfg.Qdrant.Port)
	if err != nil {
		log.Fatalf("❌ Error connecting to qdrant: %v", err)
	}
	defer store.Close()

	uploads := storage.NewSQLiteStorage(cfg.Storage.DBPath)
	defer uploads.Close()

	model := models.NewLLMClient(cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.EmbeddingsModel)
	pipeline := rag.NewService(extractor.NewPDFExtractor(), model, store, uploads, chunker, cfg.Retrieval.TopK)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err = pipeline.Rehydrate(ctx); err != nil {
		log.Printf("⚠️ Could not rehydrate sessions: %v", err)
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.NewServer(pipeline, cfg.Server.MaxUploadMB).Handler(),
	}

	go func() {
		log.Printf("🚀 Listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Shutdown error: %v", err)
	}
}
