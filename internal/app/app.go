// Package app assembles the services from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"sample-app/internal/config"
	"sample-app/internal/domain"
	"sample-app/internal/loader"
	"sample-app/internal/repository"
	"sample-app/internal/repository/memory"
	"sample-app/internal/repository/sqlite"
	"sample-app/internal/service"
	"sample-app/internal/session"
	"sample-app/internal/storage"
)

// App holds the wired services and the resources they own.
type App struct {
	Config   config.Config
	Auth     service.AuthService
	Payments service.PaymentService
	Emails   service.EmailService
	Storage  storage.Service
	Exporter *service.Exporter
	Loader   *loader.Loader

	closers []func() error
}

// Build wires every service. Storage, sqlite and redis are only used when
// configured; otherwise in-memory stores stand in.
func Build(ctx context.Context, cfg config.Config, log *logrus.Logger) (*App, error) {
	a := &App{Config: cfg}

	scheme, err := domain.ParsePasswordScheme(cfg.Auth.PasswordScheme)
	if err != nil {
		return nil, err
	}

	ledger, err := a.buildLedger(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	sessions, err := a.buildSessions(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Storage.Bucket != "" {
		a.Storage, err = buildStorage(ctx, cfg, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("setup storage: %w", err)
		}
	}

	a.Auth = service.NewAuthService(sessions, service.AuthOptions{
		TokenTTL: cfg.Auth.TokenTTL,
		Scheme:   scheme,
		Logger:   log.WithField("component", "auth"),
	})
	a.Payments = service.NewPaymentService(ledger, service.PaymentOptions{
		Debug:  cfg.App.Debug,
		Logger: log.WithField("component", "payment"),
	})

	var mailer service.Mailer
	if cfg.Email.Host != "" {
		mailer = service.NewSMTPMailer(cfg.Email.Host, cfg.Email.Port, cfg.Email.Username, cfg.Email.Password)
	}
	a.Emails = service.NewEmailService(service.EmailOptions{
		AppName: cfg.App.Name,
		From:    cfg.Email.Username,
		Debug:   cfg.App.Debug,
		Mailer:  mailer,
		Logger:  log.WithField("component", "email"),
	})

	a.Exporter = service.NewExporter(a.Storage, cfg.Storage.Bucket, cfg.Storage.KeyPrefix)
	a.Loader = loader.New(a.source(), log.WithField("component", "loader"))
	return a, nil
}

// source reads datasets from the bucket when storage is configured and from
// the data directory otherwise.
func (a *App) source() loader.Source {
	if a.Storage != nil {
		return loader.ObjectSource{Store: a.Storage, Bucket: a.Config.Storage.Bucket, Prefix: a.Config.Data.Dir}
	}
	return loader.DirSource{Base: filepath.Clean(a.Config.Data.Dir)}
}

func (a *App) buildLedger(ctx context.Context, cfg config.Config, log *logrus.Logger) (repository.TransactionRepository, error) {
	path, ok := cfg.SQLitePath()
	if !ok {
		log.Info("using in-memory transaction ledger")
		return memory.NewTransactionRepository(), nil
	}

	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.closers = append(a.closers, db.Close)

	ledger := sqlite.NewTransactionRepository(db)
	if err := ledger.Init(ctx); err != nil {
		return nil, fmt.Errorf("init transaction repository: %w", err)
	}
	log.Infof("using sqlite transaction ledger at %s", path)
	return ledger, nil
}

func (a *App) buildSessions(ctx context.Context, cfg config.Config, log *logrus.Logger) (session.Store, error) {
	if !cfg.Cache.Enabled {
		return session.NewMemoryStore(), nil
	}

	store, err := session.NewRedisStoreFromURL(cfg.Cache.URL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.Close)
	if err := store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	log.Info("using redis session store")
	return store, nil
}

func buildStorage(ctx context.Context, cfg config.Config, log *logrus.Logger) (storage.Service, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	log.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}

// Close releases the database and cache connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
