package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sample-app/internal/domain"
	"sample-app/internal/repository"
)

func newTestRepo(t *testing.T) *TransactionRepository {
	t.Helper()
	db, err := Open(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewTransactionRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func newMockRepo(t *testing.T) (*TransactionRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewTransactionRepository(db), mock
}

func sampleTx(id string, created time.Time) *domain.Transaction {
	return &domain.Transaction{
		ID:        id,
		Amount:    decimal.RequireFromString("149.99"),
		Currency:  "USD",
		Card:      "****-****-****-0366",
		Status:    domain.PaymentStatusPending,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestTransactionRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tx := sampleTx("tx-1", created)
	require.NoError(t, repo.Save(ctx, tx))

	got, err := repo.Get(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, "tx-1", got.ID)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("149.99")))
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, "****-****-****-0366", got.Card)
	assert.Equal(t, domain.PaymentStatusPending, got.Status)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Nil(t, got.RefundedAt)

	refunded := created.Add(time.Hour)
	require.NoError(t, tx.Transition(domain.PaymentStatusSuccess, created.Add(time.Minute)))
	require.NoError(t, tx.Transition(domain.PaymentStatusRefunded, refunded))
	require.NoError(t, repo.Update(ctx, tx))

	got, err = repo.Get(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusRefunded, got.Status)
	require.NotNil(t, got.RefundedAt)
	assert.True(t, refunded.Equal(*got.RefundedAt))
}

func TestTransactionRepository_Duplicate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Save(ctx, sampleTx("dup", time.Now())))
	assert.ErrorIs(t, repo.Save(ctx, sampleTx("dup", time.Now())), repository.ErrDuplicateTransaction)
}

func TestTransactionRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrTransactionNotFound)
	assert.ErrorIs(t, repo.Update(ctx, sampleTx("missing", time.Now())), repository.ErrTransactionNotFound)
}

func TestTransactionRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, sampleTx("second", base.Add(time.Second))))
	require.NoError(t, repo.Save(ctx, sampleTx("first", base)))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].ID)
	assert.Equal(t, "second", list[1].ID)
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	repo := NewTransactionRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	assert.FileExists(t, path)
}

func TestTransactionRepository_InitError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS transactions").WillReturnError(errors.New("disk full"))

	err := repo.Init(context.Background())
	assert.ErrorContains(t, err, "create transactions table: disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_SaveErrors(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("INSERT INTO transactions").WillReturnError(errors.New("db down"))

	err := repo.Save(context.Background(), sampleTx("x", time.Now()))
	assert.ErrorContains(t, err, "insert transaction: db down")
	assert.NotErrorIs(t, err, repository.ErrDuplicateTransaction)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_UpdateErrors(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("UPDATE transactions").WillReturnError(errors.New("locked"))
	mock.ExpectExec("UPDATE transactions").WillReturnResult(sqlmock.NewErrorResult(errors.New("no driver support")))

	err := repo.Update(context.Background(), sampleTx("x", time.Now()))
	assert.ErrorContains(t, err, "update transaction: locked")

	err = repo.Update(context.Background(), sampleTx("x", time.Now()))
	assert.ErrorContains(t, err, "rows affected")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_GetErrors(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()
	columns := []string{"id", "amount", "currency", "card", "status", "created_at", "updated_at", "refunded_at"}

	mock.ExpectQuery("FROM transactions WHERE id").
		WithArgs("bad").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("bad", "not-a-number", "USD", "****", "pending", now, now, nil))
	mock.ExpectQuery("FROM transactions WHERE id").
		WithArgs("boom").
		WillReturnError(errors.New("io error"))

	_, err := repo.Get(context.Background(), "bad")
	assert.ErrorContains(t, err, "parse amount")

	_, err = repo.Get(context.Background(), "boom")
	assert.ErrorContains(t, err, "scan transaction: io error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_ListError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("FROM transactions ORDER BY").WillReturnError(errors.New("db down"))

	_, err := repo.List(context.Background())
	assert.ErrorContains(t, err, "list transactions: db down")
}
