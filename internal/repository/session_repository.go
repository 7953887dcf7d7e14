package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/arbitration-backend/internal/models"
)

var (
	ErrSessionNotFound      = errors.New("voting session not found")
	ErrSessionAlreadyExists = errors.New("voting session already exists for this case")
	ErrAlreadyVoted         = errors.New("voter already cast a vote in this session")
	ErrSessionFinalized     = errors.New("voting session already finalized")
)

type SessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateSession открывает сессию голосования. Уникальный индекс по case_id
// гарантирует не более одной сессии на дело.
func (r *SessionRepository) CreateSession(ctx context.Context, s *models.VotingSession) error {
	query := `
		INSERT INTO voting_sessions (case_id, active, finalized, started_at, ends_at)
		VALUES ($1, TRUE, FALSE, $2, $3)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, s.CaseID, s.StartedAt, s.EndsAt).Scan(&s.ID)
	if err != nil && isUniqueViolation(err) {
		return ErrSessionAlreadyExists
	}
	return err
}

func (r *SessionRepository) GetByCaseID(ctx context.Context, caseID uuid.UUID) (*models.VotingSession, error) {
	var s models.VotingSession
	err := r.db.GetContext(ctx, &s, `SELECT * FROM voting_sessions WHERE case_id = $1`, caseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return &s, err
}

// AddVote добавляет голос. Один голос на арбитра обеспечивается уникальным
// индексом (session_id, voter_id).
func (r *SessionRepository) AddVote(ctx context.Context, v *models.Vote) error {
	query := `
		INSERT INTO votes (session_id, voter_id, percent, karma, cast_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, v.SessionID, v.VoterID, v.Percent, v.Karma, v.CastAt).Scan(&v.ID)
	if err != nil && isUniqueViolation(err) {
		return ErrAlreadyVoted
	}
	return err
}

// ListVotes возвращает голоса сессии в порядке подачи. Математика консенсуса
// сортирует их сама, порядок здесь нужен только для стабильной выдачи наружу.
func (r *SessionRepository) ListVotes(ctx context.Context, sessionID uuid.UUID) ([]models.Vote, error) {
	var votes []models.Vote
	err := r.db.SelectContext(ctx, &votes, `
		SELECT * FROM votes WHERE session_id = $1 ORDER BY cast_at, id
	`, sessionID)
	return votes, err
}

func (r *SessionRepository) CountVotes(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM votes WHERE session_id = $1`, sessionID)
	return count, err
}

// BeginFinalize атомарно захватывает право на финализацию: из двух
// конкурирующих вызовов CAS пройдёт только один.
func (r *SessionRepository) BeginFinalize(ctx context.Context, sessionID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE voting_sessions SET active = FALSE, finalized = TRUE
		WHERE id = $1 AND finalized = FALSE
	`, sessionID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionFinalized
	}
	return nil
}

// AbortFinalize возвращает сессию в активное состояние после неудавшейся
// выплаты, чтобы финализацию можно было повторить.
func (r *SessionRepository) AbortFinalize(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE voting_sessions SET active = TRUE, finalized = FALSE WHERE id = $1
	`, sessionID)
	return err
}

// StoreResults сохраняет вычисленные итоги сессии.
func (r *SessionRepository) StoreResults(ctx context.Context, sessionID uuid.UUID, consensus, dispersion, threshold int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE voting_sessions
		SET consensus_percent = $2, dispersion = $3, outlier_threshold = $4
		WHERE id = $1
	`, sessionID, consensus, dispersion, threshold)
	return err
}

// StoreVoteResult записывает отклонение и флаг выброса на голос.
func (r *SessionRepository) StoreVoteResult(ctx context.Context, voteID uuid.UUID, deviation int64, outlier bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE votes SET deviation = $2, outlier = $3 WHERE id = $1
	`, voteID, deviation, outlier)
	return err
}

func (r *SessionRepository) GetVote(ctx context.Context, sessionID, voterID uuid.UUID) (*models.Vote, error) {
	var v models.Vote
	err := r.db.GetContext(ctx, &v, `
		SELECT * FROM votes WHERE session_id = $1 AND voter_id = $2
	`, sessionID, voterID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return &v, err
}

// isUniqueViolation распознаёт нарушение уникального индекса Postgres (23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
