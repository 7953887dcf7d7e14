package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/arbitration-backend/internal/logger"
	"github.com/ignatzorin/arbitration-backend/internal/models"
	"github.com/ignatzorin/arbitration-backend/internal/pkg/apperror"
	"github.com/ignatzorin/arbitration-backend/internal/repository"
)

// CaseRepository описывает зависимости реестра дел от слоя хранилища.
type CaseRepository interface {
	Create(ctx context.Context, c *models.Case) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Case, error)
	UpdateState(ctx context.Context, id uuid.UUID, from, to models.CaseState) error
	BeginSettlement(ctx context.Context, id uuid.UUID, from models.CaseState) error
	AbortSettlement(ctx context.Context, id uuid.UUID) error
	Resolve(ctx context.Context, id uuid.UUID, from models.CaseState) error
	SetVerdict(ctx context.Context, id uuid.UUID, percent int64, explanation string, issuedAt, deadline time.Time) error
	SetClientAccepted(ctx context.Context, id uuid.UUID) (*models.Case, error)
	SetContractorAccepted(ctx context.Context, id uuid.UUID) (*models.Case, error)
	ListByParty(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Case, error)
}

// LedgerCustodian — внешний хранитель средств. Движок только инструктирует
// его и доверяет ответу; балансы напрямую не читает.
type LedgerCustodian interface {
	Deposit(ctx context.Context, caseID, payer uuid.UUID, amount int64, isFee bool) error
	ReleaseFunds(ctx context.Context, recipient uuid.UUID, amount int64, caseID uuid.UUID, description string) error
}

// Notifier доставляет событие пользователю; ошибки доставки не влияют на
// результат операции.
type Notifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// CaseService — реестр дел: владеет записью дела и её машиной состояний.
type CaseService struct {
	cases  CaseRepository
	ledger LedgerCustodian
	cfg    ArbitrationParams
	hub    Notifier
}

// ArbitrationParams — подмножество конфигурации, нужное движку.
type ArbitrationParams struct {
	FeePercent       int64
	FeeMinimum       int64
	AcceptanceWindow time.Duration
	VotingDuration   time.Duration
	MinVotes         int
	KarmaStart       int64
	KarmaFloor       int64
	KarmaCap         int64
	OutlierMinRange  int64
	MaxKarmaPenalty  int64
}

func NewCaseService(cases CaseRepository, ledger LedgerCustodian, cfg ArbitrationParams) *CaseService {
	return &CaseService{cases: cases, ledger: ledger, cfg: cfg}
}

// SetHub подключает отправку уведомлений о событиях дела.
func (s *CaseService) SetHub(hub Notifier) {
	s.hub = hub
}

// OpenCase создаёт дело и атомарно удерживает тело сделки и обе комиссии.
// При сбое любого из депозитов уже удержанное возвращается компенсирующими
// выплатами и дело удаляется: частичного escrow не остаётся.
func (s *CaseService) OpenCase(ctx context.Context, clientID, contractorID uuid.UUID, amount int64) (*models.Case, error) {
	if clientID == contractorID {
		return nil, apperror.New(apperror.ErrCodeValidation, "клиент и исполнитель должны быть разными сторонами")
	}
	if amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма дела должна быть положительной")
	}

	fee := amount * s.cfg.FeePercent / 100
	if fee < s.cfg.FeeMinimum {
		fee = s.cfg.FeeMinimum
	}

	c := &models.Case{
		ClientID:     clientID,
		ContractorID: contractorID,
		Amount:       amount,
		FeeAmount:    fee,
		State:        models.CaseStateActive,
	}
	if err := s.cases.Create(ctx, c); err != nil {
		return nil, err
	}

	deposits := []escrowDeposit{
		{clientID, amount, false},
		{clientID, fee, true},
		{contractorID, fee, true},
	}

	for i, d := range deposits {
		if err := s.ledger.Deposit(ctx, c.ID, d.payer, d.amount, d.isFee); err != nil {
			s.rollbackDeposits(ctx, c.ID, deposits[:i])
			if delErr := s.cases.Delete(ctx, c.ID); delErr != nil && logger.Log != nil {
				logger.Log.WithFields(logrus.Fields{"case_id": c.ID, "error": delErr}).
					Error("не удалось удалить дело после сбоя escrow")
			}
			return nil, apperror.Wrap(err, apperror.ErrCodeEscrowTransfer, "хранитель отклонил депозит")
		}
	}

	return c, nil
}

type escrowDeposit struct {
	payer  uuid.UUID
	amount int64
	isFee  bool
}

// rollbackDeposits возвращает уже удержанные депозиты их плательщикам.
func (s *CaseService) rollbackDeposits(ctx context.Context, caseID uuid.UUID, done []escrowDeposit) {
	for _, d := range done {
		if err := s.ledger.ReleaseFunds(ctx, d.payer, d.amount, caseID, "Компенсация неудавшегося escrow"); err != nil && logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{"case_id": caseID, "payer": d.payer, "error": err}).
				Error("компенсирующая выплата не прошла")
		}
	}
}

// ReleaseHappyPath — закрытие без спора: только клиент, только из active.
// Исполнитель получает всю сумму, комиссии возвращаются вкладчикам.
func (s *CaseService) ReleaseHappyPath(ctx context.Context, caseID, caller uuid.UUID) (*models.Case, error) {
	c, err := s.getCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.ClientID != caller {
		return nil, apperror.New(apperror.ErrCodeForbidden, "закрыть дело без спора может только клиент")
	}
	if c.State != models.CaseStateActive {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "дело уже не в активном состоянии")
	}

	// CAS-захват расчёта: из двух конкурирующих закрытий выплаты выполнит
	// ровно одно. Терминальный переход откладывается до успеха всех выплат.
	if err := s.cases.BeginSettlement(ctx, caseID, models.CaseStateActive); err != nil {
		if err == repository.ErrStateConflict {
			return nil, apperror.New(apperror.ErrCodeInvalidState, "дело уже не в активном состоянии")
		}
		return nil, err
	}

	payouts := []Payout{
		{Recipient: c.ContractorID, Amount: c.Amount, Description: "Оплата по закрытому делу"},
		{Recipient: c.ClientID, Amount: c.FeeAmount, Description: "Возврат комиссии"},
		{Recipient: c.ContractorID, Amount: c.FeeAmount, Description: "Возврат комиссии"},
	}
	if err := releasePayouts(ctx, s.ledger, caseID, payouts); err != nil {
		abortSettlement(ctx, s.cases, caseID)
		return nil, err
	}

	if err := s.cases.Resolve(ctx, caseID, models.CaseStateActive); err != nil {
		return nil, err
	}

	s.notifyParties(c, models.EventCaseResolved)
	return s.getCase(ctx, caseID)
}

// RaiseDispute открывает спор: любая из сторон, только из active.
func (s *CaseService) RaiseDispute(ctx context.Context, caseID, caller uuid.UUID) (*models.Case, error) {
	c, err := s.getCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !c.IsParty(caller) {
		return nil, apperror.ErrNotParticipant
	}

	err = s.cases.UpdateState(ctx, caseID, models.CaseStateActive, models.CaseStateDisputeRaised)
	if err != nil {
		if err == repository.ErrStateConflict {
			return nil, apperror.New(apperror.ErrCodeInvalidState, "спор можно открыть только по активному делу")
		}
		return nil, err
	}

	s.notifyParties(c, models.EventDisputeRaised)
	return s.getCase(ctx, caseID)
}

// GetCase возвращает дело по идентификатору.
func (s *CaseService) GetCase(ctx context.Context, caseID uuid.UUID) (*models.Case, error) {
	return s.getCase(ctx, caseID)
}

// ListUserCases возвращает дела, где пользователь является стороной.
func (s *CaseService) ListUserCases(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Case, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.cases.ListByParty(ctx, userID, limit, offset)
}

func (s *CaseService) getCase(ctx context.Context, caseID uuid.UUID) (*models.Case, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		if err == repository.ErrCaseNotFound {
			return nil, apperror.ErrCaseNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *CaseService) notifyParties(c *models.Case, event string) {
	if s.hub == nil {
		return
	}
	payload := map[string]any{"case_id": c.ID, "state": c.State}
	for _, userID := range []uuid.UUID{c.ClientID, c.ContractorID} {
		if err := s.hub.BroadcastToUser(userID, event, payload); err != nil && logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{"user_id": userID, "event": event, "error": err}).
				Warn("не удалось доставить уведомление")
		}
	}
}
