package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"sample-app/internal/domain"
	"sample-app/internal/helpers"
	"sample-app/internal/repository"
	"sample-app/internal/validate"
)

// DefaultCurrency is charged when the caller passes no currency.
const DefaultCurrency = "USD"

// PaymentService charges cards and refunds successful charges.
type PaymentService interface {
	Charge(ctx context.Context, amount decimal.Decimal, card, currency string) (*domain.Transaction, error)
	Refund(ctx context.Context, id string) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
}

// PaymentOptions tunes NewPaymentService. Debug approves every charge
// without calling the gateway.
type PaymentOptions struct {
	Debug   bool
	Gateway Gateway
	Now     func() time.Time
	Logger  logrus.FieldLogger
}

type paymentService struct {
	mu      sync.Mutex
	ledger  repository.TransactionRepository
	gateway Gateway
	debug   bool
	now     func() time.Time
	log     logrus.FieldLogger
}

func NewPaymentService(ledger repository.TransactionRepository, opts PaymentOptions) PaymentService {
	log := loggerOrDiscard(opts.Logger)
	if opts.Gateway == nil {
		opts.Gateway = NewStubGateway(log)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &paymentService{
		ledger:  ledger,
		gateway: opts.Gateway,
		debug:   opts.Debug,
		now:     opts.Now,
		log:     log,
	}
}

// Charge validates the request, records a pending transaction and settles it
// through the gateway. A declined or failed gateway call yields a failed
// transaction, not an error.
func (s *paymentService) Charge(ctx context.Context, amount decimal.Decimal, card, currency string) (*domain.Transaction, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount.String())
	}
	if !validate.CardNumber(card) {
		return nil, ErrInvalidCard
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCurrency
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	tx := &domain.Transaction{
		ID:        uuid.NewString(),
		Amount:    amount,
		Currency:  currency,
		Card:      domain.MaskCard(validate.DigitsOnly(card)),
		Status:    domain.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.ledger.Save(ctx, tx); err != nil {
		return nil, fmt.Errorf("save transaction: %w", err)
	}

	status := domain.PaymentStatusSuccess
	if !s.debug {
		status = s.settle(ctx, tx, validate.DigitsOnly(card))
	}
	if err := tx.Transition(status, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.ledger.Update(ctx, tx); err != nil {
		s.abandon(ctx, tx.ID)
		return nil, fmt.Errorf("update transaction: %w", err)
	}

	s.log.WithField("transaction_id", tx.ID).
		Infof("Payment %s: %s", tx.Status, helpers.FormatCurrency(tx.Amount, tx.Currency))
	return tx, nil
}

// abandon marks a transaction that is still pending as failed so a charge
// whose settlement could not be recorded does not stay pending. Errors are
// logged only.
func (s *paymentService) abandon(ctx context.Context, id string) {
	log := s.log.WithField("transaction_id", id)

	stored, err := s.ledger.Get(ctx, id)
	if err != nil {
		log.WithError(err).Error("Transaction left pending")
		return
	}
	if stored.Status != domain.PaymentStatusPending {
		return
	}
	if err := stored.Transition(domain.PaymentStatusFailed, s.now().UTC()); err != nil {
		log.WithError(err).Error("Transaction left pending")
		return
	}
	if err := s.ledger.Update(ctx, stored); err != nil {
		log.WithError(err).Error("Transaction left pending")
		return
	}
	log.Warn("Transaction marked failed after settlement could not be recorded")
}

func (s *paymentService) settle(ctx context.Context, tx *domain.Transaction, card string) domain.PaymentStatus {
	approved, err := s.gateway.Charge(ctx, GatewayRequest{
		TransactionID: tx.ID,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		Card:          card,
	})
	if err != nil {
		s.log.WithError(err).WithField("transaction_id", tx.ID).Warn("Gateway call failed")
		return domain.PaymentStatusFailed
	}
	if !approved {
		s.log.WithField("transaction_id", tx.ID).Warn("Payment declined by gateway")
		return domain.PaymentStatusFailed
	}
	return domain.PaymentStatusSuccess
}

// Refund moves a successful transaction to refunded. It returns nil without
// an error when the id is unknown.
func (s *paymentService) Refund(ctx context.Context, id string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		s.log.WithField("transaction_id", id).Warn("Refund failed: transaction not found")
		return nil, nil
	}
	if tx.Status != domain.PaymentStatusSuccess {
		return nil, fmt.Errorf("%w: status is %s", ErrNotRefundable, tx.Status)
	}

	if err := tx.Transition(domain.PaymentStatusRefunded, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.ledger.Update(ctx, tx); err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}

	s.log.WithField("transaction_id", id).Info("Refund issued")
	return tx, nil
}

func (s *paymentService) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(ctx, id)
}

// ListTransactions returns every transaction in the ledger, oldest first.
func (s *paymentService) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txs, err := s.ledger.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *paymentService) lookup(ctx context.Context, id string) (*domain.Transaction, error) {
	tx, err := s.ledger.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}
