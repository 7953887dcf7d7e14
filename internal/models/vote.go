package models

import (
	"time"

	"github.com/google/uuid"
)

// VotingSession — ограниченная по времени сессия консенсуса по одному делу.
// Создаётся не более одной на дело.
type VotingSession struct {
	ID        uuid.UUID `db:"id" json:"id"`
	CaseID    uuid.UUID `db:"case_id" json:"case_id"`
	Active    bool      `db:"active" json:"active"`
	Finalized bool      `db:"finalized" json:"finalized"`
	StartedAt time.Time `db:"started_at" json:"started_at"`
	EndsAt    time.Time `db:"ends_at" json:"ends_at"`

	// Результаты; заполняются один раз при финализации.
	ConsensusPercent *int64 `db:"consensus_percent" json:"consensus_percent,omitempty"`
	Dispersion       *int64 `db:"dispersion" json:"dispersion,omitempty"`
	OutlierThreshold *int64 `db:"outlier_threshold" json:"outlier_threshold,omitempty"`

	// Счётчик голосов; заполняется сервисом при выдаче наружу.
	VotesCount int `db:"-" json:"votes_count"`
}

// Vote — мнение одного арбитра в рамках сессии. Неизменяем после подачи;
// карма копируется в момент голосования и позже не пересчитывается.
type Vote struct {
	ID        uuid.UUID `db:"id" json:"id"`
	SessionID uuid.UUID `db:"session_id" json:"session_id"`
	VoterID   uuid.UUID `db:"voter_id" json:"voter_id"`
	Percent   int64     `db:"percent" json:"percent"`
	Karma     int64     `db:"karma" json:"karma"`

	// Вычисляются при финализации.
	Outlier   bool   `db:"outlier" json:"outlier"`
	Deviation *int64 `db:"deviation" json:"deviation,omitempty"`

	CastAt time.Time `db:"cast_at" json:"cast_at"`
}
