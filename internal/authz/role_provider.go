package authz

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/arbitration-backend/internal/models"
)

// UserSource отдаёт учётную запись по идентификатору.
type UserSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// VoterSource отдаёт репутационную запись арбитра.
type VoterSource interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.VoterRecord, error)
}

// RoleProvider — реализация Provider поверх ролей учётных записей и
// реестра арбитров.
type RoleProvider struct {
	users      UserSource
	voters     VoterSource
	karmaFloor int64
}

func NewRoleProvider(users UserSource, voters VoterSource, karmaFloor int64) *RoleProvider {
	return &RoleProvider{users: users, voters: voters, karmaFloor: karmaFloor}
}

func (p *RoleProvider) IsAgent(ctx context.Context, userID uuid.UUID) Decision {
	return p.hasRole(ctx, userID, models.RoleAgent)
}

func (p *RoleProvider) IsAdmin(ctx context.Context, userID uuid.UUID) Decision {
	return p.hasRole(ctx, userID, models.RoleAdmin)
}

func (p *RoleProvider) IsRegisteredVoter(ctx context.Context, userID uuid.UUID) Decision {
	record, err := p.voters.Get(ctx, userID)
	if err != nil {
		return Deny("арбитр не зарегистрирован")
	}
	if !record.Registered || record.Banned {
		return Deny("право голоса отозвано")
	}
	if record.Karma < p.karmaFloor {
		return Deny("карма ниже допустимого порога")
	}
	return Allow()
}

func (p *RoleProvider) hasRole(ctx context.Context, userID uuid.UUID, role string) Decision {
	user, err := p.users.GetByID(ctx, userID)
	if err != nil {
		return Deny("пользователь не найден")
	}
	if !user.IsActive {
		return Deny("учётная запись отключена")
	}
	if user.Role != role {
		return Deny("недостаточно прав")
	}
	return Allow()
}
