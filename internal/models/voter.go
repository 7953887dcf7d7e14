package models

import (
	"time"

	"github.com/google/uuid"
)

// VoterRecord — репутационная запись арбитра, не привязана к делу.
// Карма сохраняется при снятии регистрации; бан обнуляет её безвозвратно.
type VoterRecord struct {
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	Karma      int64     `db:"karma" json:"karma"`
	Registered bool      `db:"registered" json:"registered"`
	Banned     bool      `db:"banned" json:"banned"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Eligible сообщает, допускается ли арбитр к голосованию при заданном пороге кармы.
func (v *VoterRecord) Eligible(karmaFloor int64) bool {
	return v.Registered && !v.Banned && v.Karma >= karmaFloor
}
