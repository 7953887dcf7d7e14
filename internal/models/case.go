package models

import (
	"time"

	"github.com/google/uuid"
)

// CaseState — состояние дела в графе переходов.
type CaseState string

const (
	CaseStateActive        CaseState = "active"
	CaseStateDisputeRaised CaseState = "dispute_raised"
	CaseStateVerdictIssued CaseState = "verdict_issued"
	CaseStateEscalated     CaseState = "escalated"
	CaseStateResolved      CaseState = "resolved"
)

func (s CaseState) IsValid() bool {
	switch s {
	case CaseStateActive, CaseStateDisputeRaised, CaseStateVerdictIssued, CaseStateEscalated, CaseStateResolved:
		return true
	}
	return false
}

// CanTransitionTo проверяет допустимость перехода. Граф только вперёд,
// из resolved выхода нет.
func (s CaseState) CanTransitionTo(next CaseState) bool {
	transitions := map[CaseState][]CaseState{
		CaseStateActive:        {CaseStateDisputeRaised, CaseStateResolved},
		CaseStateDisputeRaised: {CaseStateVerdictIssued},
		CaseStateVerdictIssued: {CaseStateEscalated, CaseStateResolved},
		CaseStateEscalated:     {CaseStateResolved},
		CaseStateResolved:      {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, state := range allowed {
		if state == next {
			return true
		}
	}
	return false
}

// Case описывает одно арбитражное дело между клиентом и исполнителем.
// Суммы хранятся в минимальных единицах валюты.
type Case struct {
	ID           uuid.UUID `db:"id" json:"id"`
	ClientID     uuid.UUID `db:"client_id" json:"client_id"`
	ContractorID uuid.UUID `db:"contractor_id" json:"contractor_id"`
	Amount       int64     `db:"amount" json:"amount"`
	FeeAmount    int64     `db:"fee_amount" json:"fee_amount"`
	State        CaseState `db:"state" json:"state"`
	Settling     bool      `db:"settling" json:"-"`

	// Поля автоматического вердикта; заполняются в состоянии verdict_issued.
	VerdictPercent      *int64     `db:"verdict_percent" json:"verdict_percent,omitempty"`
	VerdictExplanation  *string    `db:"verdict_explanation" json:"verdict_explanation,omitempty"`
	VerdictIssuedAt     *time.Time `db:"verdict_issued_at" json:"verdict_issued_at,omitempty"`
	VerdictDeadline     *time.Time `db:"verdict_deadline" json:"verdict_deadline,omitempty"`
	ClientAccepted      bool       `db:"client_accepted" json:"client_accepted"`
	ContractorAccepted  bool       `db:"contractor_accepted" json:"contractor_accepted"`

	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
	ResolvedAt *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}

// IsParty сообщает, является ли пользователь стороной дела.
func (c *Case) IsParty(userID uuid.UUID) bool {
	return c.ClientID == userID || c.ContractorID == userID
}

// TotalEscrowed — полная сумма, удерживаемая по делу: тело + две комиссии.
func (c *Case) TotalEscrowed() int64 {
	return c.Amount + 2*c.FeeAmount
}
