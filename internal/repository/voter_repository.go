package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/arbitration-backend/internal/models"
)

var ErrVoterNotFound = errors.New("voter not found")

type VoterRepository struct {
	db *sqlx.DB
}

func NewVoterRepository(db *sqlx.DB) *VoterRepository {
	return &VoterRepository{db: db}
}

func (r *VoterRepository) Get(ctx context.Context, userID uuid.UUID) (*models.VoterRecord, error) {
	var v models.VoterRecord
	err := r.db.GetContext(ctx, &v, `SELECT * FROM voters WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVoterNotFound
	}
	return &v, err
}

// Register включает право голоса. Существующая запись сохраняет карму,
// новая получает стартовое значение. Запись с баном не восстанавливается.
func (r *VoterRepository) Register(ctx context.Context, userID uuid.UUID, startKarma int64) (*models.VoterRecord, error) {
	var v models.VoterRecord
	err := r.db.GetContext(ctx, &v, `
		INSERT INTO voters (user_id, karma, registered, banned)
		VALUES ($1, $2, TRUE, FALSE)
		ON CONFLICT (user_id) DO UPDATE
		SET registered = NOT voters.banned, updated_at = NOW()
		RETURNING *
	`, userID, startKarma)
	return &v, err
}

// Remove снимает право голоса, карма остаётся.
func (r *VoterRepository) Remove(ctx context.Context, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE voters SET registered = FALSE, updated_at = NOW() WHERE user_id = $1
	`, userID)
	if err != nil {
		return err
	}
	return requireVoterRow(res)
}

// Ban необратимо лишает права голоса и обнуляет карму.
func (r *VoterRepository) Ban(ctx context.Context, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE voters SET registered = FALSE, banned = TRUE, karma = 0, updated_at = NOW()
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return err
	}
	return requireVoterRow(res)
}

// SetKarma устанавливает карму напрямую (административная операция).
func (r *VoterRepository) SetKarma(ctx context.Context, userID uuid.UUID, karma int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE voters SET karma = $2, updated_at = NOW() WHERE user_id = $1
	`, userID, karma)
	if err != nil {
		return err
	}
	return requireVoterRow(res)
}

func requireVoterRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVoterNotFound
	}
	return nil
}
