package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"PmdaPipeline/internal/app"
	"PmdaPipeline/internal/config"
	"PmdaPipeline/internal/logging"
)

func main() {
	stage := flag.String("stage", "all", "pipeline stage to run: all, raw, refined or curated")
	daemon := flag.Bool("daemon", false, "keep running and refresh on the configured interval")
	flag.Parse()

	cfg := config.Load()
	logger := logging.NewWithSink(cfg.Logging.Level, cfg.Logging.JSONPath)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	if *daemon {
		err = application.RunDaemon(ctx)
	} else {
		err = application.Run(ctx, *stage)
	}
	if err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
