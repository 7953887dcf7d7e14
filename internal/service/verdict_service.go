package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/arbitration-backend/internal/authz"
	"github.com/ignatzorin/arbitration-backend/internal/models"
	"github.com/ignatzorin/arbitration-backend/internal/pkg/apperror"
	"github.com/ignatzorin/arbitration-backend/internal/repository"
)

// VerdictService — шлюз автоматического арбитража: принимает вердикт
// доверенного агента, ведёт окно принятия и маршрутизирует дело либо в
// выплату, либо в эскалацию.
type VerdictService struct {
	cases  CaseRepository
	ledger LedgerCustodian
	auth   authz.Provider
	cfg    ArbitrationParams
	hub    Notifier

	// now подменяется в тестах для проверки дедлайнов.
	now func() time.Time
}

func NewVerdictService(cases CaseRepository, ledger LedgerCustodian, auth authz.Provider, cfg ArbitrationParams) *VerdictService {
	return &VerdictService{
		cases:  cases,
		ledger: ledger,
		auth:   auth,
		cfg:    cfg,
		now:    time.Now,
	}
}

// SetHub подключает отправку уведомлений.
func (s *VerdictService) SetHub(hub Notifier) {
	s.hub = hub
}

// SubmitVerdict записывает предложение автоматического арбитра и открывает
// окно принятия фиксированной длины.
func (s *VerdictService) SubmitVerdict(ctx context.Context, caseID, caller uuid.UUID, percent int64, explanation string) (*models.Case, error) {
	if d := s.auth.IsAgent(ctx, caller); !d.Allowed {
		return nil, apperror.New(apperror.ErrCodeForbidden, d.Reason)
	}
	if percent < 0 || percent > 100 {
		return nil, apperror.New(apperror.ErrCodeValidation, "процент вердикта должен быть в диапазоне 0..100")
	}

	issuedAt := s.now()
	deadline := issuedAt.Add(s.cfg.AcceptanceWindow)

	err := s.cases.SetVerdict(ctx, caseID, percent, explanation, issuedAt, deadline)
	if err != nil {
		if err == repository.ErrStateConflict {
			return nil, apperror.New(apperror.ErrCodeInvalidState, "вердикт принимается только по делу с открытым спором")
		}
		return nil, err
	}

	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	s.notify(c, models.EventVerdictIssued)
	return c, nil
}

// AcceptVerdict фиксирует согласие стороны. Когда согласны обе, исполняется
// выплата по проценту вердикта с полным возвратом обеих комиссий: принятая
// автоматическая резолюция бесплатна.
func (s *VerdictService) AcceptVerdict(ctx context.Context, caseID, caller uuid.UUID) (*models.Case, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		if err == repository.ErrCaseNotFound {
			return nil, apperror.ErrCaseNotFound
		}
		return nil, err
	}
	if !c.IsParty(caller) {
		return nil, apperror.ErrNotParticipant
	}
	if c.State != models.CaseStateVerdictIssued {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "по делу нет вердикта, ожидающего принятия")
	}
	if c.VerdictDeadline != nil && s.now().After(*c.VerdictDeadline) {
		return nil, apperror.New(apperror.ErrCodeDeadlineExpired, "окно принятия вердикта закрыто")
	}

	if caller == c.ClientID {
		c, err = s.cases.SetClientAccepted(ctx, caseID)
	} else {
		c, err = s.cases.SetContractorAccepted(ctx, caseID)
	}
	if err != nil {
		if err == repository.ErrStateConflict {
			return nil, apperror.New(apperror.ErrCodeInvalidState, "по делу нет вердикта, ожидающего принятия")
		}
		return nil, err
	}

	if !c.ClientAccepted || !c.ContractorAccepted {
		return c, nil
	}

	// Обе стороны согласны. CAS-захват расчёта гарантирует, что выплату
	// исполнит ровно один из конкурирующих вызовов; дело переводится в
	// resolved только после успеха всех выплат.
	if err := s.cases.BeginSettlement(ctx, caseID, models.CaseStateVerdictIssued); err != nil {
		if err == repository.ErrStateConflict {
			return s.cases.GetByID(ctx, caseID)
		}
		return nil, err
	}

	if err := s.payoutAccepted(ctx, c); err != nil {
		abortSettlement(ctx, s.cases, caseID)
		return nil, err
	}

	if err := s.cases.Resolve(ctx, caseID, models.CaseStateVerdictIssued); err != nil {
		return nil, err
	}

	s.notify(c, models.EventVerdictAccepted)
	return s.cases.GetByID(ctx, caseID)
}

// RejectVerdict отклоняет вердикт и эскалирует дело в консенсус; средства
// при этом не двигаются.
func (s *VerdictService) RejectVerdict(ctx context.Context, caseID, caller uuid.UUID) (*models.Case, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		if err == repository.ErrCaseNotFound {
			return nil, apperror.ErrCaseNotFound
		}
		return nil, err
	}
	if !c.IsParty(caller) {
		return nil, apperror.ErrNotParticipant
	}

	err = s.cases.UpdateState(ctx, caseID, models.CaseStateVerdictIssued, models.CaseStateEscalated)
	if err != nil {
		if err == repository.ErrStateConflict {
			return nil, apperror.New(apperror.ErrCodeInvalidState, "по делу нет вердикта, который можно отклонить")
		}
		return nil, err
	}

	s.notify(c, models.EventCaseEscalated)
	return s.cases.GetByID(ctx, caseID)
}

// CheckDeadline лениво применяет истечение окна принятия: таймеров нет,
// просроченный вердикт эскалируется при первом же обращении.
func (s *VerdictService) CheckDeadline(ctx context.Context, caseID uuid.UUID) (*models.Case, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		if err == repository.ErrCaseNotFound {
			return nil, apperror.ErrCaseNotFound
		}
		return nil, err
	}
	if c.State != models.CaseStateVerdictIssued {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "дело не ожидает принятия вердикта")
	}
	if c.VerdictDeadline == nil || s.now().Before(*c.VerdictDeadline) {
		return nil, apperror.New(apperror.ErrCodeDeadlineEarly, "окно принятия вердикта ещё открыто")
	}

	err = s.cases.UpdateState(ctx, caseID, models.CaseStateVerdictIssued, models.CaseStateEscalated)
	if err != nil {
		if err == repository.ErrStateConflict {
			return s.cases.GetByID(ctx, caseID)
		}
		return nil, err
	}

	s.notify(c, models.EventCaseEscalated)
	return s.cases.GetByID(ctx, caseID)
}

func (s *VerdictService) payoutAccepted(ctx context.Context, c *models.Case) error {
	if c.VerdictPercent == nil {
		return apperror.New(apperror.ErrCodeInternal, "у дела отсутствует процент вердикта")
	}
	return releasePayouts(ctx, s.ledger, c.ID, verdictPayouts(c, *c.VerdictPercent))
}

func (s *VerdictService) notify(c *models.Case, event string) {
	if s.hub == nil {
		return
	}
	payload := map[string]any{"case_id": c.ID, "state": c.State}
	for _, userID := range []uuid.UUID{c.ClientID, c.ContractorID} {
		// Ошибка доставки не влияет на исход операции.
		_ = s.hub.BroadcastToUser(userID, event, payload)
	}
}
