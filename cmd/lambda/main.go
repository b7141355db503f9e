package main

import (
	"context"
	"log"

	"github.com/ammiranda/forest/config"
	"github.com/ammiranda/forest/internal/app"
	"github.com/ammiranda/forest/internal/lambda"
	"github.com/ammiranda/forest/logging"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	cfgProvider, err := config.NewProvider(ctx)
	if err != nil {
		log.Fatal("Failed to create config provider:", err)
	}

	logger, err := logging.New(cfgProvider.GetEnvironment())
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logger.Sync()

	forest, err := app.New(ctx, cfgProvider, logger, app.RequireSharedCache())
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer forest.Close(ctx)

	handler := lambda.NewHandler(forest.Service, logger)

	// Start Lambda
	awslambda.Start(handler.Handle)
}
