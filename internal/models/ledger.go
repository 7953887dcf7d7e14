package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы транзакций
const (
	TransactionTypeDeposit       = "deposit"
	TransactionTypeEscrowHold    = "escrow_hold"
	TransactionTypeEscrowRelease = "escrow_release"
)

// Статусы транзакций
const (
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// AccountBalance представляет баланс счёта в минимальных единицах валюты.
type AccountBalance struct {
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Available int64     `db:"available" json:"available"`
	Frozen    int64     `db:"frozen" json:"frozen"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction представляет запись журнала движения средств.
type Transaction struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	UserID      uuid.UUID  `db:"user_id" json:"user_id"`
	CaseID      *uuid.UUID `db:"case_id" json:"case_id,omitempty"`
	Type        string     `db:"type" json:"type"`
	Amount      int64      `db:"amount" json:"amount"`
	IsFee       bool       `db:"is_fee" json:"is_fee"`
	Status      string     `db:"status" json:"status"`
	Description *string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}
