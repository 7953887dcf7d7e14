package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/arbitration-backend/internal/models"
	"github.com/ignatzorin/arbitration-backend/internal/pkg/apperror"
)

// LedgerReader — читающая сторона хранителя средств: балансы, пополнения
// и история транзакций.
type LedgerReader interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (*models.AccountBalance, error)
	TopUp(ctx context.Context, userID uuid.UUID, amount int64, description string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error)
}

// LedgerService — кошелёк пользователя поверх хранителя средств.
type LedgerService struct {
	ledger LedgerReader
}

func NewLedgerService(ledger LedgerReader) *LedgerService {
	return &LedgerService{ledger: ledger}
}

// GetBalance возвращает баланс счёта пользователя.
func (s *LedgerService) GetBalance(ctx context.Context, userID uuid.UUID) (*models.AccountBalance, error) {
	return s.ledger.GetBalance(ctx, userID)
}

// TopUp пополняет счёт пользователя.
func (s *LedgerService) TopUp(ctx context.Context, userID uuid.UUID, amount int64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма пополнения должна быть положительной")
	}
	return s.ledger.TopUp(ctx, userID, amount, "Пополнение счёта")
}

// ListTransactions возвращает историю транзакций пользователя.
func (s *LedgerService) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.ledger.ListTransactions(ctx, userID, limit, offset)
}
