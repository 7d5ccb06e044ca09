package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"sample-app/internal/app"
	"sample-app/internal/config"
	"sample-app/internal/demo"
	"sample-app/internal/logger"
)

func main() {
	dataset := flag.String("dataset", "", "CSV file under data.dir to feed the pipeline flow")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "text").Fatalf("load config: %v", err)
	}
	// The demo never reaches a real gateway or mail server.
	cfg.App.Debug = true

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Infof("Starting %s", cfg.App.Name)
	log.WithFields(cfg.Public()).Debug("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatalf("build app: %v", err)
	}

	_, runErr := demo.Run(ctx, demo.Deps{
		Auth:     a.Auth,
		Payments: a.Payments,
		Emails:   a.Emails,
		Loader:   a.Loader,
		Dataset:  *dataset,
		Exporter: a.Exporter,
		Logger:   log,
	})
	if err := a.Close(); err != nil {
		log.Warnf("close: %v", err)
	}
	if runErr != nil {
		log.Fatalf("demo failed: %v", runErr)
	}
}
