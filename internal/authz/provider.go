package authz

import (
	"context"

	"github.com/google/uuid"
)

// Decision — результат проверки полномочий: разрешение плюс причина отказа,
// пригодная для ответа клиенту.
type Decision struct {
	Allowed bool
	Reason  string
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Provider отвечает на вопросы о полномочиях вызывающего. Все мутирующие
// операции движка консультируются с ним до изменения состояния; сам движок
// политику не хранит.
type Provider interface {
	// IsAgent — вызывающий владеет capability автоматического арбитра.
	IsAgent(ctx context.Context, userID uuid.UUID) Decision
	// IsAdmin — вызывающий является администратором дел.
	IsAdmin(ctx context.Context, userID uuid.UUID) Decision
	// IsRegisteredVoter — вызывающий допущен к голосованию.
	IsRegisteredVoter(ctx context.Context, userID uuid.UUID) Decision
}
