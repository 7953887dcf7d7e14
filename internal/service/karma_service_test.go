package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/arbitration-backend/internal/authz"
	"github.com/ignatzorin/arbitration-backend/internal/models"
	"github.com/ignatzorin/arbitration-backend/internal/pkg/apperror"
	"github.com/ignatzorin/arbitration-backend/internal/repository"
)

type mockVoterRepo struct {
	mock.Mock
}

func (m *mockVoterRepo) Get(ctx context.Context, userID uuid.UUID) (*models.VoterRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VoterRecord), args.Error(1)
}

func (m *mockVoterRepo) Register(ctx context.Context, userID uuid.UUID, startKarma int64) (*models.VoterRecord, error) {
	args := m.Called(ctx, userID, startKarma)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VoterRecord), args.Error(1)
}

func (m *mockVoterRepo) Remove(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockVoterRepo) Ban(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockVoterRepo) SetKarma(ctx context.Context, userID uuid.UUID, karma int64) error {
	args := m.Called(ctx, userID, karma)
	return args.Error(0)
}

type mockAuthProvider struct {
	mock.Mock
}

func (m *mockAuthProvider) IsAgent(ctx context.Context, userID uuid.UUID) authz.Decision {
	args := m.Called(ctx, userID)
	return args.Get(0).(authz.Decision)
}

func (m *mockAuthProvider) IsAdmin(ctx context.Context, userID uuid.UUID) authz.Decision {
	args := m.Called(ctx, userID)
	return args.Get(0).(authz.Decision)
}

func (m *mockAuthProvider) IsRegisteredVoter(ctx context.Context, userID uuid.UUID) authz.Decision {
	args := m.Called(ctx, userID)
	return args.Get(0).(authz.Decision)
}

func testArbitrationParams() ArbitrationParams {
	return ArbitrationParams{
		FeePercent:      5,
		FeeMinimum:      10,
		MinVotes:        3,
		KarmaStart:      100,
		KarmaFloor:      20,
		KarmaCap:        200,
		OutlierMinRange: 15,
		MaxKarmaPenalty: 30,
	}
}

func TestNextKarma_OutlierPenalty(t *testing.T) {
	cfg := testArbitrationParams()

	// Квадратичный штраф: dev²/100.
	assert.Equal(t, int64(96), nextKarma(100, 20, true, cfg))
	assert.Equal(t, int64(75), nextKarma(100, 50, true, cfg))

	// Потолок штрафа.
	assert.Equal(t, int64(70), nextKarma(100, 58, true, cfg))
	assert.Equal(t, int64(70), nextKarma(100, 100, true, cfg))

	// Пол кармы.
	assert.Equal(t, int64(20), nextKarma(25, 100, true, cfg))
	assert.Equal(t, int64(20), nextKarma(20, 100, true, cfg))
}

func TestNextKarma_AccuracyReward(t *testing.T) {
	cfg := testArbitrationParams()

	assert.Equal(t, int64(103), nextKarma(100, 0, false, cfg))
	assert.Equal(t, int64(103), nextKarma(100, 5, false, cfg))
	assert.Equal(t, int64(101), nextKarma(100, 6, false, cfg))
	assert.Equal(t, int64(101), nextKarma(100, 10, false, cfg))
	assert.Equal(t, int64(100), nextKarma(100, 11, false, cfg))
}

func TestNextKarma_RedemptionDoubling(t *testing.T) {
	cfg := testArbitrationParams()

	// Ниже стартовой кармы награда удваивается.
	assert.Equal(t, int64(56), nextKarma(50, 3, false, cfg))
	assert.Equal(t, int64(52), nextKarma(50, 8, false, cfg))
	// Нулевая награда не удваивается.
	assert.Equal(t, int64(50), nextKarma(50, 20, false, cfg))
	// На стартовом значении удвоения уже нет.
	assert.Equal(t, int64(103), nextKarma(100, 2, false, cfg))
}

func TestNextKarma_Cap(t *testing.T) {
	cfg := testArbitrationParams()

	assert.Equal(t, int64(200), nextKarma(199, 0, false, cfg))
	assert.Equal(t, int64(200), nextKarma(200, 0, false, cfg))
}

func TestKarmaService_RegisterVoter(t *testing.T) {
	repo := new(mockVoterRepo)
	auth := new(mockAuthProvider)
	svc := NewKarmaService(repo, auth, testArbitrationParams())
	ctx := context.Background()
	adminID := uuid.New()
	userID := uuid.New()

	auth.On("IsAdmin", ctx, adminID).Return(authz.Allow())
	expected := &models.VoterRecord{UserID: userID, Karma: 100, Registered: true}
	repo.On("Register", ctx, userID, int64(100)).Return(expected, nil)

	record, err := svc.RegisterVoter(ctx, adminID, userID)
	assert.NoError(t, err)
	assert.Equal(t, expected, record)
	repo.AssertExpectations(t)
}

func TestKarmaService_RegisterVoter_Forbidden(t *testing.T) {
	repo := new(mockVoterRepo)
	auth := new(mockAuthProvider)
	svc := NewKarmaService(repo, auth, testArbitrationParams())
	ctx := context.Background()
	adminID := uuid.New()

	auth.On("IsAdmin", ctx, adminID).Return(authz.Deny("требуются права администратора"))

	_, err := svc.RegisterVoter(ctx, adminID, uuid.New())
	assert.Error(t, err)
	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeForbidden, appErr.Code)
	repo.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
}

func TestKarmaService_BanVoter(t *testing.T) {
	repo := new(mockVoterRepo)
	auth := new(mockAuthProvider)
	svc := NewKarmaService(repo, auth, testArbitrationParams())
	ctx := context.Background()
	adminID := uuid.New()
	userID := uuid.New()

	auth.On("IsAdmin", ctx, adminID).Return(authz.Allow())
	repo.On("Ban", ctx, userID).Return(nil)

	err := svc.BanVoter(ctx, adminID, userID)
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestKarmaService_BanVoter_NotFound(t *testing.T) {
	repo := new(mockVoterRepo)
	auth := new(mockAuthProvider)
	svc := NewKarmaService(repo, auth, testArbitrationParams())
	ctx := context.Background()
	adminID := uuid.New()
	userID := uuid.New()

	auth.On("IsAdmin", ctx, adminID).Return(authz.Allow())
	repo.On("Ban", ctx, userID).Return(repository.ErrVoterNotFound)

	err := svc.BanVoter(ctx, adminID, userID)
	assert.ErrorIs(t, err, apperror.ErrVoterNotFound)
}

func TestKarmaService_AdjustKarma_OutOfBounds(t *testing.T) {
	repo := new(mockVoterRepo)
	auth := new(mockAuthProvider)
	svc := NewKarmaService(repo, auth, testArbitrationParams())
	ctx := context.Background()
	adminID := uuid.New()

	auth.On("IsAdmin", ctx, adminID).Return(authz.Allow())

	err := svc.AdjustKarma(ctx, adminID, uuid.New(), 10)
	assert.Error(t, err)

	err = svc.AdjustKarma(ctx, adminID, uuid.New(), 500)
	assert.Error(t, err)

	repo.AssertNotCalled(t, "SetKarma", mock.Anything, mock.Anything, mock.Anything)
}

func TestKarmaService_ApplySessionResult(t *testing.T) {
	repo := new(mockVoterRepo)
	auth := new(mockAuthProvider)
	svc := NewKarmaService(repo, auth, testArbitrationParams())
	ctx := context.Background()

	accurate := uuid.New()
	outlier := uuid.New()
	gone := uuid.New()

	repo.On("Get", ctx, accurate).Return(&models.VoterRecord{UserID: accurate, Karma: 100}, nil)
	repo.On("SetKarma", ctx, accurate, int64(103)).Return(nil)

	repo.On("Get", ctx, outlier).Return(&models.VoterRecord{UserID: outlier, Karma: 100}, nil)
	repo.On("SetKarma", ctx, outlier, int64(70)).Return(nil)

	// Удалённая запись пропускается без ошибки.
	repo.On("Get", ctx, gone).Return(nil, repository.ErrVoterNotFound)

	results := []VoteResult{
		{VoterID: accurate, Deviation: 2, Outlier: false},
		{VoterID: outlier, Deviation: 58, Outlier: true},
		{VoterID: gone, Deviation: 0, Outlier: false},
	}

	err := svc.applySessionResult(ctx, results)
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestKarmaService_ApplySessionResult_NoChangeSkipsWrite(t *testing.T) {
	repo := new(mockVoterRepo)
	auth := new(mockAuthProvider)
	svc := NewKarmaService(repo, auth, testArbitrationParams())
	ctx := context.Background()
	voterID := uuid.New()

	// Отклонение 11 не даёт ни штрафа, ни награды.
	repo.On("Get", ctx, voterID).Return(&models.VoterRecord{UserID: voterID, Karma: 150}, nil)

	err := svc.applySessionResult(ctx, []VoteResult{{VoterID: voterID, Deviation: 11}})
	assert.NoError(t, err)
	repo.AssertNotCalled(t, "SetKarma", mock.Anything, mock.Anything, mock.Anything)
}
