package authz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/arbitration-backend/internal/models"
	"github.com/ignatzorin/arbitration-backend/internal/repository"
)

type mockUserSource struct {
	mock.Mock
}

func (m *mockUserSource) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type mockVoterSource struct {
	mock.Mock
}

func (m *mockVoterSource) Get(ctx context.Context, userID uuid.UUID) (*models.VoterRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VoterRecord), args.Error(1)
}

func TestRoleProvider_IsAgent(t *testing.T) {
	users := new(mockUserSource)
	voters := new(mockVoterSource)
	p := NewRoleProvider(users, voters, 20)
	ctx := context.Background()

	agentID := uuid.New()
	userID := uuid.New()
	inactiveID := uuid.New()

	users.On("GetByID", ctx, agentID).Return(&models.User{ID: agentID, Role: models.RoleAgent, IsActive: true}, nil)
	users.On("GetByID", ctx, userID).Return(&models.User{ID: userID, Role: models.RoleUser, IsActive: true}, nil)
	users.On("GetByID", ctx, inactiveID).Return(&models.User{ID: inactiveID, Role: models.RoleAgent, IsActive: false}, nil)

	assert.True(t, p.IsAgent(ctx, agentID).Allowed)
	assert.False(t, p.IsAgent(ctx, userID).Allowed)
	assert.False(t, p.IsAgent(ctx, inactiveID).Allowed)
}

func TestRoleProvider_IsAdmin(t *testing.T) {
	users := new(mockUserSource)
	voters := new(mockVoterSource)
	p := NewRoleProvider(users, voters, 20)
	ctx := context.Background()

	adminID := uuid.New()
	agentID := uuid.New()
	missingID := uuid.New()

	users.On("GetByID", ctx, adminID).Return(&models.User{ID: adminID, Role: models.RoleAdmin, IsActive: true}, nil)
	// Роли не иерархичны: агент не администратор.
	users.On("GetByID", ctx, agentID).Return(&models.User{ID: agentID, Role: models.RoleAgent, IsActive: true}, nil)
	users.On("GetByID", ctx, missingID).Return(nil, repository.ErrUserNotFound)

	assert.True(t, p.IsAdmin(ctx, adminID).Allowed)
	assert.False(t, p.IsAdmin(ctx, agentID).Allowed)

	d := p.IsAdmin(ctx, missingID)
	assert.False(t, d.Allowed)
	assert.NotEmpty(t, d.Reason)
}

func TestRoleProvider_IsRegisteredVoter(t *testing.T) {
	users := new(mockUserSource)
	voters := new(mockVoterSource)
	p := NewRoleProvider(users, voters, 20)
	ctx := context.Background()

	okID := uuid.New()
	bannedID := uuid.New()
	removedID := uuid.New()
	lowKarmaID := uuid.New()
	floorID := uuid.New()
	missingID := uuid.New()

	voters.On("Get", ctx, okID).Return(&models.VoterRecord{UserID: okID, Karma: 100, Registered: true}, nil)
	voters.On("Get", ctx, bannedID).Return(&models.VoterRecord{UserID: bannedID, Karma: 100, Registered: true, Banned: true}, nil)
	voters.On("Get", ctx, removedID).Return(&models.VoterRecord{UserID: removedID, Karma: 100, Registered: false}, nil)
	voters.On("Get", ctx, lowKarmaID).Return(&models.VoterRecord{UserID: lowKarmaID, Karma: 19, Registered: true}, nil)
	// Карма, равная порогу, даёт право голоса.
	voters.On("Get", ctx, floorID).Return(&models.VoterRecord{UserID: floorID, Karma: 20, Registered: true}, nil)
	voters.On("Get", ctx, missingID).Return(nil, repository.ErrVoterNotFound)

	assert.True(t, p.IsRegisteredVoter(ctx, okID).Allowed)
	assert.False(t, p.IsRegisteredVoter(ctx, bannedID).Allowed)
	assert.False(t, p.IsRegisteredVoter(ctx, removedID).Allowed)
	assert.False(t, p.IsRegisteredVoter(ctx, lowKarmaID).Allowed)
	assert.True(t, p.IsRegisteredVoter(ctx, floorID).Allowed)
	assert.False(t, p.IsRegisteredVoter(ctx, missingID).Allowed)
}
