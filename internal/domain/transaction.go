package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"sample-app/internal/helpers"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusSuccess  PaymentStatus = "success"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// ErrInvalidTransition is returned when a transaction status change is not allowed.
var ErrInvalidTransition = errors.New("invalid payment status transition")

var allowedTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusSuccess, PaymentStatusFailed},
	PaymentStatusSuccess: {PaymentStatusRefunded},
}

// CanTransition reports whether a transaction may move from one status to another.
func CanTransition(from, to PaymentStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transaction is a single card charge tracked by the payment ledger.
type Transaction struct {
	ID         string
	Amount     decimal.Decimal
	Currency   string
	Card       string
	Status     PaymentStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
	RefundedAt *time.Time
}

// Transition moves the transaction to status at t.
func (t *Transaction) Transition(status PaymentStatus, at time.Time) error {
	if !CanTransition(t.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, status)
	}
	t.Status = status
	t.UpdatedAt = at
	if status == PaymentStatusRefunded {
		t.RefundedAt = &at
	}
	return nil
}

// FormattedAmount renders the amount with the currency symbol.
func (t *Transaction) FormattedAmount() string {
	return helpers.FormatCurrency(t.Amount, t.Currency)
}

// MaskCard hides everything but the last four digits of a card number.
func MaskCard(digits string) string {
	last4 := digits
	if len(digits) > 4 {
		last4 = digits[len(digits)-4:]
	}
	return "****-****-****-" + last4
}
