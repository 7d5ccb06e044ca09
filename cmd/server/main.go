package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sample-app/internal/app"
	"sample-app/internal/config"
	apphttp "sample-app/internal/http"
	"sample-app/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "optional JSON or YAML config override file")
	flag.Parse()

	boot := logger.New("info", "text")

	cfg, err := loadConfig(*configPath, boot)
	if err != nil {
		boot.Fatalf("load config: %v", err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.WithFields(cfg.Public()).Info("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatalf("build app: %v", err)
	}
	defer a.Close()

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(apphttp.Deps{
		Auth:     a.Auth,
		Payments: a.Payments,
		Emails:   a.Emails,
		Exporter: a.Exporter,
		Storage:  a.Storage,
		Bucket:   cfg.Storage.Bucket,
		Logger:   log.WithField("component", "http"),
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		log.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("http shutdown: %v", err)
	}

	log.Info("bye")
}

func loadConfig(path string, log logrus.FieldLogger) (config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path, log)
}
