// Package memory holds in-process repository implementations.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"sample-app/internal/domain"
	"sample-app/internal/repository"
)

type TransactionRepository struct {
	mu   sync.RWMutex
	byID map[string]domain.Transaction
}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{byID: make(map[string]domain.Transaction)}
}

func (r *TransactionRepository) Init(context.Context) error {
	return nil
}

func (r *TransactionRepository) Save(_ context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[tx.ID]; ok {
		return fmt.Errorf("%w: %s", repository.ErrDuplicateTransaction, tx.ID)
	}
	r.byID[tx.ID] = copyTransaction(tx)
	return nil
}

func (r *TransactionRepository) Update(_ context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[tx.ID]; !ok {
		return fmt.Errorf("%w: %s", repository.ErrTransactionNotFound, tx.ID)
	}
	r.byID[tx.ID] = copyTransaction(tx)
	return nil
}

func (r *TransactionRepository) Get(_ context.Context, id string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tx, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrTransactionNotFound, id)
	}
	out := copyTransaction(&tx)
	return &out, nil
}

func (r *TransactionRepository) List(context.Context) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Transaction, 0, len(r.byID))
	for _, tx := range r.byID {
		out = append(out, copyTransaction(&tx))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// copyTransaction detaches the stored value from the caller's pointer.
func copyTransaction(tx *domain.Transaction) domain.Transaction {
	out := *tx
	if tx.RefundedAt != nil {
		at := *tx.RefundedAt
		out.RefundedAt = &at
	}
	return out
}

var _ repository.TransactionRepository = (*TransactionRepository)(nil)
