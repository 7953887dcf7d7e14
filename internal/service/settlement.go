package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/arbitration-backend/internal/logger"
	"github.com/ignatzorin/arbitration-backend/internal/pkg/apperror"
)

// releasePayouts последовательно исполняет план выплат. При сбое уже
// выплаченное возвращается в escrow компенсирующими депозитами, дело остаётся
// с нетронутым удержанием и расчёт можно повторить. Нулевые суммы
// пропускаются.
func releasePayouts(ctx context.Context, ledger LedgerCustodian, caseID uuid.UUID, payouts []Payout) error {
	var released []Payout
	for _, p := range payouts {
		if p.Amount == 0 {
			continue
		}
		if err := ledger.ReleaseFunds(ctx, p.Recipient, p.Amount, caseID, p.Description); err != nil {
			if logger.Log != nil {
				logger.Log.WithFields(logrus.Fields{
					"case_id":   caseID,
					"recipient": p.Recipient,
					"amount":    p.Amount,
					"error":     err,
				}).Error("выплата по делу не прошла")
			}
			redepositPayouts(ctx, ledger, caseID, released)
			return apperror.Wrap(err, apperror.ErrCodeEscrowTransfer, "хранитель отклонил выплату")
		}
		released = append(released, p)
	}
	return nil
}

// abortSettlement снимает захват расчёта с дела; сбой только логируется,
// повторить расчёт тогда сможет лишь ручная сверка.
func abortSettlement(ctx context.Context, cases CaseRepository, caseID uuid.UUID) {
	if err := cases.AbortSettlement(ctx, caseID); err != nil && logger.Log != nil {
		logger.Log.WithFields(logrus.Fields{"case_id": caseID, "error": err}).
			Error("не удалось снять захват расчёта по делу")
	}
}

// redepositPayouts возвращает уже выплаченные суммы обратно в escrow дела.
// Сбой компенсации только логируется: средства в этом случае остаются на
// счёте получателя до ручной сверки.
func redepositPayouts(ctx context.Context, ledger LedgerCustodian, caseID uuid.UUID, done []Payout) {
	for _, p := range done {
		if err := ledger.Deposit(ctx, caseID, p.Recipient, p.Amount, false); err != nil && logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"case_id":   caseID,
				"recipient": p.Recipient,
				"amount":    p.Amount,
				"error":     err,
			}).Error("компенсирующий депозит не прошёл")
		}
	}
}
