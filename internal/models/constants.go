package models

// Роли пользователей
const (
	RoleUser  = "user"
	RoleAgent = "agent" // автоматический арбитр первой инстанции
	RoleAdmin = "admin"
)

// ValidRoles список валидных ролей
var ValidRoles = map[string]struct{}{
	RoleUser:  {},
	RoleAgent: {},
	RoleAdmin: {},
}

// События WebSocket уведомлений
const (
	EventDisputeRaised    = "dispute.raised"
	EventVerdictIssued    = "verdict.issued"
	EventVerdictAccepted  = "verdict.accepted"
	EventCaseEscalated    = "case.escalated"
	EventSessionStarted   = "session.started"
	EventSessionFinalized = "session.finalized"
	EventCaseResolved     = "case.resolved"
)
