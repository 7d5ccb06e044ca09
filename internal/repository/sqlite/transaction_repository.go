package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sample-app/internal/domain"
	"sample-app/internal/repository"
)

const createTransactionsTable = `
CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	amount TEXT NOT NULL,
	currency TEXT NOT NULL,
	card TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	refunded_at DATETIME NULL
);
`

const selectTransaction = `
SELECT id, amount, currency, card, status, created_at, updated_at, refunded_at
FROM transactions`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTransactionsTable); err != nil {
		return fmt.Errorf("create transactions table: %w", err)
	}
	return nil
}

func (r *TransactionRepository) Save(ctx context.Context, tx *domain.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO transactions (id, amount, currency, card, status, created_at, updated_at, refunded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID,
		tx.Amount.String(),
		tx.Currency,
		tx.Card,
		string(tx.Status),
		tx.CreatedAt.UTC(),
		tx.UpdatedAt.UTC(),
		nullTime(tx.RefundedAt),
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return fmt.Errorf("%w: %s", repository.ErrDuplicateTransaction, tx.ID)
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE transactions
SET amount=?, currency=?, card=?, status=?, updated_at=?, refunded_at=?
WHERE id=?`,
		tx.Amount.String(),
		tx.Currency,
		tx.Card,
		string(tx.Status),
		tx.UpdatedAt.UTC(),
		nullTime(tx.RefundedAt),
		tx.ID,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", repository.ErrTransactionNotFound, tx.ID)
	}
	return nil
}

func (r *TransactionRepository) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx, selectTransaction+`
WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", repository.ErrTransactionNotFound, id)
		}
		return nil, err
	}
	return tx, nil
}

func (r *TransactionRepository) List(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, selectTransaction+`
ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

func scanTransaction(scanner interface {
	Scan(dest ...any) error
}) (*domain.Transaction, error) {
	var (
		tx         domain.Transaction
		amount     string
		status     string
		refundedAt sql.NullTime
	)
	if err := scanner.Scan(
		&tx.ID,
		&amount,
		&tx.Currency,
		&tx.Card,
		&status,
		&tx.CreatedAt,
		&tx.UpdatedAt,
		&refundedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	tx.Amount = value
	tx.Status = domain.PaymentStatus(status)
	if refundedAt.Valid {
		at := refundedAt.Time
		tx.RefundedAt = &at
	}
	return &tx, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

var _ repository.TransactionRepository = (*TransactionRepository)(nil)
