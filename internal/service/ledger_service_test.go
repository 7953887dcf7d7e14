package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/arbitration-backend/internal/models"
)

type mockLedgerReader struct {
	mock.Mock
}

func (m *mockLedgerReader) GetBalance(ctx context.Context, userID uuid.UUID) (*models.AccountBalance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccountBalance), args.Error(1)
}

func (m *mockLedgerReader) TopUp(ctx context.Context, userID uuid.UUID, amount int64, description string) (*models.Transaction, error) {
	args := m.Called(ctx, userID, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockLedgerReader) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func TestLedgerService_GetBalance(t *testing.T) {
	ledger := new(mockLedgerReader)
	svc := NewLedgerService(ledger)
	ctx := context.Background()
	userID := uuid.New()

	expected := &models.AccountBalance{UserID: userID, Available: 1000, Frozen: 500}
	ledger.On("GetBalance", ctx, userID).Return(expected, nil)

	balance, err := svc.GetBalance(ctx, userID)
	assert.NoError(t, err)
	assert.Equal(t, expected, balance)
	ledger.AssertExpectations(t)
}

func TestLedgerService_TopUp(t *testing.T) {
	ledger := new(mockLedgerReader)
	svc := NewLedgerService(ledger)
	ctx := context.Background()
	userID := uuid.New()

	expected := &models.Transaction{ID: uuid.New(), Amount: 1000}
	ledger.On("TopUp", ctx, userID, int64(1000), "Пополнение счёта").Return(expected, nil)

	tx, err := svc.TopUp(ctx, userID, 1000)
	assert.NoError(t, err)
	assert.Equal(t, expected, tx)
}

func TestLedgerService_TopUp_InvalidAmount(t *testing.T) {
	ledger := new(mockLedgerReader)
	svc := NewLedgerService(ledger)
	ctx := context.Background()

	_, err := svc.TopUp(ctx, uuid.New(), 0)
	assert.Error(t, err)

	_, err = svc.TopUp(ctx, uuid.New(), -100)
	assert.Error(t, err)

	ledger.AssertNotCalled(t, "TopUp", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLedgerService_ListTransactions_LimitClamped(t *testing.T) {
	ledger := new(mockLedgerReader)
	svc := NewLedgerService(ledger)
	ctx := context.Background()
	userID := uuid.New()

	ledger.On("ListTransactions", ctx, userID, 20, 0).Return([]models.Transaction{}, nil)

	_, err := svc.ListTransactions(ctx, userID, 1000, -5)
	assert.NoError(t, err)
	ledger.AssertExpectations(t)
}
