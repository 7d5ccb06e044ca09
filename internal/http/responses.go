package http

import (
	"time"

	"sample-app/internal/domain"
	"sample-app/internal/storage"
)

type UserResponse struct {
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	FullName  string  `json:"full_name"`
	IsActive  bool    `json:"is_active"`
	IsAdmin   bool    `json:"is_admin"`
	CreatedAt string  `json:"created_at"`
	LastLogin *string `json:"last_login,omitempty"`
}

type TransactionResponse struct {
	ID              string               `json:"id"`
	Amount          string               `json:"amount"`
	FormattedAmount string               `json:"formatted_amount"`
	Currency        string               `json:"currency"`
	Card            string               `json:"card"`
	Status          domain.PaymentStatus `json:"status"`
	CreatedAt       string               `json:"created_at"`
	UpdatedAt       string               `json:"updated_at"`
	RefundedAt      *string              `json:"refunded_at,omitempty"`
}

type StorageObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func userToResponse(user *domain.User) UserResponse {
	resp := UserResponse{
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		FullName:  user.FullName(),
		IsActive:  user.IsActive,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
	resp.LastLogin = formatTime(user.LastLogin)
	return resp
}

func transactionToResponse(tx *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              tx.ID,
		Amount:          tx.Amount.StringFixed(2),
		FormattedAmount: tx.FormattedAmount(),
		Currency:        tx.Currency,
		Card:            tx.Card,
		Status:          tx.Status,
		CreatedAt:       tx.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       tx.UpdatedAt.Format(time.RFC3339),
		RefundedAt:      formatTime(tx.RefundedAt),
	}
}

func objectToResponse(obj storage.ObjectInfo) StorageObjectResponse {
	return StorageObjectResponse{
		Key:          obj.Key,
		Size:         obj.Size,
		LastModified: formatTime(obj.LastModified),
	}
}

func formatTime(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Format(time.RFC3339)
	return &v
}
