package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/hireloop/internal/logging"
	"github.com/dmitrijs2005/hireloop/internal/server"
	"github.com/dmitrijs2005/hireloop/internal/server/config"
	"github.com/dmitrijs2005/hireloop/internal/telemetry"
)

func main() {

	ctx := context.Background()

	cfg := config.LoadConfig()
	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)

	shutdown, err := telemetry.Setup(ctx, "hireloop-server", cfg.OTELEndpoint)
	if err != nil {
		logger.Warn(ctx, "tracing disabled", "err", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn(ctx, "trace shutdown", "err", err)
		}
	}()

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
