package main

import (
	"context"
	"log"

	"github.com/ammiranda/forest/config"
	"github.com/ammiranda/forest/handlers"
	"github.com/ammiranda/forest/internal/app"
	"github.com/ammiranda/forest/logging"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	// Initialize config provider
	cfgProvider, err := config.NewProvider(ctx)
	if err != nil {
		log.Fatal("Failed to create config provider:", err)
	}

	logger, err := logging.New(cfgProvider.GetEnvironment())
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logger.Sync()

	if cfgProvider.GetEnvironment() != config.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize store, cache and service
	forest, err := app.New(ctx, cfgProvider, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer forest.Close(ctx)

	r := handlers.NewRouter(forest.Service, logger)

	port, err := cfgProvider.GetString(ctx, "PORT")
	if err != nil {
		port = "8080"
	}

	logger.Info("Starting server", zap.String("port", port))
	if err := r.Run(":" + port); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
