package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sample-app/internal/config"
	"sample-app/internal/domain"
	"sample-app/internal/loader"
	"sample-app/internal/repository/memory"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	var cfg config.Config
	cfg.App.Name = "SampleApp"
	cfg.App.Debug = true
	cfg.Database.URL = "memory://"
	cfg.Data.Dir = t.TempDir()
	cfg.Auth.PasswordScheme = "sha256"
	return cfg
}

func TestBuild_InMemory(t *testing.T) {
	log, _ := test.NewNullLogger()
	a, err := Build(context.Background(), testConfig(t), log)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Storage)
	assert.False(t, a.Exporter.Enabled())

	tx, err := a.Payments.Charge(context.Background(), decimal.NewFromInt(10), "4532015112830366", "")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSuccess, tx.Status)
	assert.IsType(t, loader.DirSource{}, a.source())
}

func TestBuild_DefaultConfigKeepsLedgerInMemory(t *testing.T) {
	t.Chdir(t.TempDir())
	log, _ := test.NewNullLogger()
	ctx := context.Background()

	cfg, err := config.Load()
	require.NoError(t, err)

	var bare App
	ledger, err := bare.buildLedger(ctx, cfg, log)
	require.NoError(t, err)
	assert.IsType(t, &memory.TransactionRepository{}, ledger)
	assert.Empty(t, bare.closers)

	a, err := Build(ctx, cfg, log)
	require.NoError(t, err)
	tx, err := a.Payments.Charge(ctx, decimal.NewFromInt(50), "4532015112830366", "")
	require.NoError(t, err)
	require.NoError(t, a.Close())

	again, err := Build(ctx, cfg, log)
	require.NoError(t, err)
	defer again.Close()
	got, err := again.Payments.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoDirExists(t, "data")
}

func TestBuild_SQLiteLedger(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "db", "sample.db")
	cfg.Database.URL = "sqlite://" + path

	a, err := Build(context.Background(), cfg, log)
	require.NoError(t, err)

	ctx := context.Background()
	tx, err := a.Payments.Charge(ctx, decimal.NewFromInt(25), "4532015112830366", "EUR")
	require.NoError(t, err)

	got, err := a.Payments.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "EUR", got.Currency)
	assert.FileExists(t, path)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
}

func TestBuild_Errors(t *testing.T) {
	log, _ := test.NewNullLogger()

	cfg := testConfig(t)
	cfg.Auth.PasswordScheme = "md5"
	_, err := Build(context.Background(), cfg, log)
	assert.ErrorIs(t, err, domain.ErrUnknownScheme)

	cfg = testConfig(t)
	cfg.Cache.Enabled = true
	cfg.Cache.URL = "http://not-redis"
	_, err = Build(context.Background(), cfg, log)
	assert.Error(t, err)
}
