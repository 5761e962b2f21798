package main

import (
	"context"
	"errors"
	"os"

	"github.com/Temutjin2k/taximeter/config"
	"github.com/Temutjin2k/taximeter/internal/app"
	"github.com/Temutjin2k/taximeter/pkg/logger"
)

const serviceName = "taximeter"

func main() {
	ctx := context.Background()
	log := logger.InitLogger(serviceName, logger.LevelInfo)

	cfg, err := config.NewConfig()
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			config.PrintHelp()
			return
		}
		log.Error(ctx, "failed to configure application", err)
		config.PrintHelp()
		os.Exit(1)
	}

	log = logger.InitLogger(serviceName, cfg.Log.Level)

	// Printing configuration
	if cfg.Log.Level == logger.LevelDebug {
		config.PrintConfig(os.Stdout, cfg)
	}

	// Creating application
	application, err := app.NewApplication(ctx, *cfg, log)
	if err != nil {
		log.Error(ctx, "failed to init application", err)
		os.Exit(1)
	}

	// Running the apllication
	if err = application.Run(ctx); err != nil {
		log.Error(ctx, "failed to run application", err)
		os.Exit(1)
	}
}
