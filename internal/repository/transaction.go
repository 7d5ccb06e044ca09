package repository

import (
	"context"
	"errors"

	"sample-app/internal/domain"
)

// ErrTransactionNotFound is returned by Get and Update for an unknown id.
var ErrTransactionNotFound = errors.New("transaction not found")

// ErrDuplicateTransaction is returned by Save when the id is already stored.
var ErrDuplicateTransaction = errors.New("transaction already exists")

// TransactionRepository exposes persistence operations for the payment ledger.
type TransactionRepository interface {
	Init(ctx context.Context) error
	Save(ctx context.Context, tx *domain.Transaction) error
	Update(ctx context.Context, tx *domain.Transaction) error
	Get(ctx context.Context, id string) (*domain.Transaction, error)
	List(ctx context.Context) ([]domain.Transaction, error)
}
