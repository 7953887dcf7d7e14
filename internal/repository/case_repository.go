package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/arbitration-backend/internal/models"
)

var (
	ErrCaseNotFound = errors.New("case not found")

	// ErrStateConflict возвращается, когда CAS-переход не нашёл запись в
	// ожидаемом состоянии: конкурирующая операция успела первой.
	ErrStateConflict = errors.New("case is not in expected state")
)

type CaseRepository struct {
	db *sqlx.DB
}

func NewCaseRepository(db *sqlx.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

func (r *CaseRepository) Create(ctx context.Context, c *models.Case) error {
	query := `
		INSERT INTO cases (client_id, contractor_id, amount, fee_amount, state)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query, c.ClientID, c.ContractorID, c.Amount, c.FeeAmount, c.State).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// Delete удаляет дело; используется только при откате неудавшегося escrow.
func (r *CaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cases WHERE id = $1`, id)
	return err
}

func (r *CaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	var c models.Case
	err := r.db.GetContext(ctx, &c, `SELECT * FROM cases WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCaseNotFound
	}
	return &c, err
}

// UpdateState переводит дело из from в to. Проверка ожидаемого состояния
// выполняется в самом UPDATE, поэтому из двух конкурирующих переходов
// выигрывает ровно один, второй получает ErrStateConflict.
func (r *CaseRepository) UpdateState(ctx context.Context, id uuid.UUID, from, to models.CaseState) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cases SET state = $3, updated_at = NOW() WHERE id = $1 AND state = $2
	`, id, from, to)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// BeginSettlement захватывает дело под выплаты, не переводя его в терминальное
// состояние. Из двух конкурирующих расчётов выигрывает ровно один.
func (r *CaseRepository) BeginSettlement(ctx context.Context, id uuid.UUID, from models.CaseState) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cases SET settling = TRUE, updated_at = NOW()
		WHERE id = $1 AND state = $2 AND NOT settling
	`, id, from)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// AbortSettlement снимает захват после неудавшейся выплаты, дело остаётся
// в прежнем состоянии и доступно для повторного расчёта.
func (r *CaseRepository) AbortSettlement(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE cases SET settling = FALSE, updated_at = NOW() WHERE id = $1
	`, id)
	return err
}

// Resolve терминально закрывает дело. Повторный вызов не проходит CAS.
func (r *CaseRepository) Resolve(ctx context.Context, id uuid.UUID, from models.CaseState) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cases SET state = $3, resolved_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND state = $2
	`, id, from, models.CaseStateResolved)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetVerdict записывает автоматический вердикт и открывает окно принятия.
func (r *CaseRepository) SetVerdict(ctx context.Context, id uuid.UUID, percent int64, explanation string, issuedAt, deadline time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cases
		SET state = $2, verdict_percent = $3, verdict_explanation = $4,
		    verdict_issued_at = $5, verdict_deadline = $6,
		    client_accepted = FALSE, contractor_accepted = FALSE, updated_at = NOW()
		WHERE id = $1 AND state = $7
	`, id, models.CaseStateVerdictIssued, percent, explanation, issuedAt, deadline, models.CaseStateDisputeRaised)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetClientAccepted отмечает принятие вердикта клиентом.
func (r *CaseRepository) SetClientAccepted(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	return r.setAccepted(ctx, id, "client_accepted")
}

// SetContractorAccepted отмечает принятие вердикта исполнителем.
func (r *CaseRepository) SetContractorAccepted(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	return r.setAccepted(ctx, id, "contractor_accepted")
}

func (r *CaseRepository) setAccepted(ctx context.Context, id uuid.UUID, column string) (*models.Case, error) {
	// column приходит только из двух вызовов выше, интерполяция безопасна.
	var c models.Case
	err := r.db.GetContext(ctx, &c, `
		UPDATE cases SET `+column+` = TRUE, updated_at = NOW()
		WHERE id = $1 AND state = $2
		RETURNING *
	`, id, models.CaseStateVerdictIssued)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStateConflict
	}
	return &c, err
}

func (r *CaseRepository) ListByParty(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Case, error) {
	var cases []models.Case
	err := r.db.SelectContext(ctx, &cases, `
		SELECT * FROM cases
		WHERE client_id = $1 OR contractor_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return cases, err
}

// requireRow превращает нулевой RowsAffected в ErrStateConflict.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStateConflict
	}
	return nil
}
