package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/arbitration-backend/internal/models"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrEscrowExhausted   = errors.New("case escrow does not cover release")
)

// LedgerRepository — хранитель средств. Держит балансы счетов и
// покейсовые escrow-остатки; движок никогда не трогает балансы напрямую.
type LedgerRepository struct {
	db *sqlx.DB
}

func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// GetBalance возвращает баланс счёта, создаёт нулевой если не существует.
func (r *LedgerRepository) GetBalance(ctx context.Context, userID uuid.UUID) (*models.AccountBalance, error) {
	var balance models.AccountBalance
	query := `
		INSERT INTO account_balances (user_id, available, frozen)
		VALUES ($1, 0, 0)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING user_id, available, frozen, updated_at
	`
	if err := r.db.GetContext(ctx, &balance, query, userID); err != nil {
		return nil, fmt.Errorf("ledger repository: get balance %w", err)
	}
	return &balance, nil
}

// TopUp пополняет счёт.
func (r *LedgerRepository) TopUp(ctx context.Context, userID uuid.UUID, amount int64, description string) (*models.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO account_balances (user_id, available, frozen)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id) DO UPDATE SET available = account_balances.available + $2, updated_at = NOW()
	`, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: top up balance %w", err)
	}

	var transaction models.Transaction
	err = tx.GetContext(ctx, &transaction, `
		INSERT INTO transactions (user_id, type, amount, status, description, completed_at)
		VALUES ($1, 'deposit', $2, 'completed', $3, NOW())
		RETURNING *
	`, userID, amount, description)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: top up transaction %w", err)
	}

	return &transaction, tx.Commit()
}

// Deposit удерживает amount со счёта плательщика в escrow дела.
// Средства переходят из available в frozen, остаток фиксируется в escrow_holds.
func (r *LedgerRepository) Deposit(ctx context.Context, caseID, payer uuid.UUID, amount int64, isFee bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var balance models.AccountBalance
	err = tx.GetContext(ctx, &balance,
		`SELECT * FROM account_balances WHERE user_id = $1 FOR UPDATE`, payer)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInsufficientFunds
		}
		return err
	}
	if balance.Available < amount {
		return ErrInsufficientFunds
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE account_balances SET available = available - $2, frozen = frozen + $2, updated_at = NOW()
		WHERE user_id = $1
	`, payer, amount)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO escrow_holds (case_id, payer_id, amount, remaining, is_fee)
		VALUES ($1, $2, $3, $3, $4)
	`, caseID, payer, amount, isFee)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (user_id, case_id, type, amount, is_fee, status, description, completed_at)
		VALUES ($1, $2, 'escrow_hold', $3, $4, 'completed', 'Заморозка средств по делу', NOW())
	`, payer, caseID, amount, isFee)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// ReleaseFunds выплачивает amount получателю из escrow дела. Остатки холдов
// списываются в порядке создания; суммарные выплаты по делу не могут
// превысить удержанное — иначе ErrEscrowExhausted и откат.
func (r *LedgerRepository) ReleaseFunds(ctx context.Context, recipient uuid.UUID, amount int64, caseID uuid.UUID, description string) error {
	if amount == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	type holdRow struct {
		ID        uuid.UUID `db:"id"`
		PayerID   uuid.UUID `db:"payer_id"`
		Remaining int64     `db:"remaining"`
	}
	var holds []holdRow
	err = tx.SelectContext(ctx, &holds, `
		SELECT id, payer_id, remaining FROM escrow_holds
		WHERE case_id = $1 AND remaining > 0
		ORDER BY created_at, id
		FOR UPDATE
	`, caseID)
	if err != nil {
		return err
	}

	left := amount
	for _, h := range holds {
		if left == 0 {
			break
		}
		take := h.Remaining
		if take > left {
			take = left
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE escrow_holds SET remaining = remaining - $2 WHERE id = $1`, h.ID, take)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE account_balances SET frozen = frozen - $2, updated_at = NOW() WHERE user_id = $1
		`, h.PayerID, take)
		if err != nil {
			return err
		}
		left -= take
	}
	if left > 0 {
		return ErrEscrowExhausted
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO account_balances (user_id, available, frozen)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id) DO UPDATE SET available = account_balances.available + $2, updated_at = NOW()
	`, recipient, amount)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (user_id, case_id, type, amount, status, description, completed_at)
		VALUES ($1, $2, 'escrow_release', $3, 'completed', $4, NOW())
	`, recipient, caseID, amount, description)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// CaseEscrowRemaining возвращает неосвобождённый остаток escrow дела.
func (r *LedgerRepository) CaseEscrowRemaining(ctx context.Context, caseID uuid.UUID) (int64, error) {
	var remaining int64
	err := r.db.GetContext(ctx, &remaining, `
		SELECT COALESCE(SUM(remaining), 0) FROM escrow_holds WHERE case_id = $1
	`, caseID)
	return remaining, err
}

// ListTransactions возвращает историю транзакций счёта.
func (r *LedgerRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT * FROM transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return transactions, err
}
