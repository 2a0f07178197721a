package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/groupzer0/flowbaby/pkg/config"
	"github.com/groupzer0/flowbaby/pkg/db"
	"github.com/groupzer0/flowbaby/pkg/service"
	"github.com/groupzer0/flowbaby/pkg/utils"
)

func main() {
	// Initialize logging system
	utils.InitLogger()
	logger := utils.GetLogger()

	if _, err := config.EnsureDefaultConfig(); err != nil {
		logger.Warn("Failed to write default config", "error", err)
	}

	cfg, _, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	database, err := db.Connect(cfg.DatabasePath())
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}

	summaryService, err := service.NewSummaryService(database, &service.SummaryConfig{
		EnableVectorStore:   cfg.VectorEnabled(),
		VectorStorePath:     cfg.VectorPath(),
		EmbeddingProvider:   cfg.EmbeddingProvider(),
		OpenAIAPIKey:        cfg.OpenAIAPIKey(),
		OpenAIModel:         cfg.OpenAIModel(),
		OllamaURL:           cfg.OllamaURL(),
		OllamaModel:         cfg.OllamaModel(),
		DefaultMaxResults:   50,
		SemanticSearchLimit: 20,
	})
	if err != nil {
		logger.Error("Failed to create summary service", "error", err)
		os.Exit(1)
	}
	if err := summaryService.AutoMigrate(); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := NewServer(summaryService)
	if err := server.Start(ctx, cfg.Port()); err != nil {
		logger.Error("Failed to start server", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Shutting down")
}
