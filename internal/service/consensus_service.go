package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/arbitration-backend/internal/authz"
	"github.com/ignatzorin/arbitration-backend/internal/logger"
	"github.com/ignatzorin/arbitration-backend/internal/models"
	"github.com/ignatzorin/arbitration-backend/internal/pkg/apperror"
	"github.com/ignatzorin/arbitration-backend/internal/repository"
)

// VotingSessionRepository описывает зависимости движка консенсуса от слоя
// хранилища сессий и голосов.
type VotingSessionRepository interface {
	CreateSession(ctx context.Context, s *models.VotingSession) error
	GetByCaseID(ctx context.Context, caseID uuid.UUID) (*models.VotingSession, error)
	AddVote(ctx context.Context, v *models.Vote) error
	ListVotes(ctx context.Context, sessionID uuid.UUID) ([]models.Vote, error)
	CountVotes(ctx context.Context, sessionID uuid.UUID) (int, error)
	BeginFinalize(ctx context.Context, sessionID uuid.UUID) error
	AbortFinalize(ctx context.Context, sessionID uuid.UUID) error
	StoreResults(ctx context.Context, sessionID uuid.UUID, consensus, dispersion, threshold int64) error
	StoreVoteResult(ctx context.Context, voteID uuid.UUID, deviation int64, outlier bool) error
	GetVote(ctx context.Context, sessionID, voterID uuid.UUID) (*models.Vote, error)
}

// ConsensusService ведёт сессии голосования по эскалированным делам и
// превращает множество голосов в исполненный вердикт.
type ConsensusService struct {
	cases    CaseRepository
	sessions VotingSessionRepository
	voters   VoterRepository
	karma    *KarmaService
	ledger   LedgerCustodian
	auth     authz.Provider
	cfg      ArbitrationParams
	hub      Notifier

	// now подменяется в тестах для проверки дедлайнов.
	now func() time.Time
}

func NewConsensusService(
	cases CaseRepository,
	sessions VotingSessionRepository,
	voters VoterRepository,
	karma *KarmaService,
	ledger LedgerCustodian,
	auth authz.Provider,
	cfg ArbitrationParams,
) *ConsensusService {
	return &ConsensusService{
		cases:    cases,
		sessions: sessions,
		voters:   voters,
		karma:    karma,
		ledger:   ledger,
		auth:     auth,
		cfg:      cfg,
		now:      time.Now,
	}
}

// SetHub подключает отправку уведомлений.
func (s *ConsensusService) SetHub(hub Notifier) {
	s.hub = hub
}

// StartSession открывает сессию голосования по эскалированному делу.
// Повторное открытие по тому же делу невозможно.
func (s *ConsensusService) StartSession(ctx context.Context, caseID uuid.UUID) (*models.VotingSession, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		if err == repository.ErrCaseNotFound {
			return nil, apperror.ErrCaseNotFound
		}
		return nil, err
	}
	if c.State != models.CaseStateEscalated {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "сессия открывается только по эскалированному делу")
	}

	started := s.now()
	session := &models.VotingSession{
		CaseID:    caseID,
		Active:    true,
		StartedAt: started,
		EndsAt:    started.Add(s.cfg.VotingDuration),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		if err == repository.ErrSessionAlreadyExists {
			return nil, apperror.New(apperror.ErrCodeConflict, "сессия по делу уже существует")
		}
		return nil, err
	}

	s.notifyParties(c, models.EventSessionStarted)
	return session, nil
}

// CastVote принимает голос арбитра. Текущая карма копируется в голос и
// дальше не пересчитывается.
func (s *ConsensusService) CastVote(ctx context.Context, caseID, voterID uuid.UUID, percent int64) (*models.Vote, error) {
	if d := s.auth.IsRegisteredVoter(ctx, voterID); !d.Allowed {
		return nil, apperror.New(apperror.ErrCodeForbidden, d.Reason)
	}
	if percent < 0 || percent > 100 {
		return nil, apperror.New(apperror.ErrCodeValidation, "голос должен быть в диапазоне 0..100")
	}

	session, err := s.getSession(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !session.Active || session.Finalized {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "сессия голосования закрыта")
	}
	if !s.now().Before(session.EndsAt) {
		return nil, apperror.New(apperror.ErrCodeDeadlineExpired, "время голосования истекло")
	}

	record, err := s.voters.Get(ctx, voterID)
	if err != nil {
		if err == repository.ErrVoterNotFound {
			return nil, apperror.ErrVoterNotFound
		}
		return nil, err
	}

	vote := &models.Vote{
		SessionID: session.ID,
		VoterID:   voterID,
		Percent:   percent,
		Karma:     record.Karma,
		CastAt:    s.now(),
	}
	if err := s.sessions.AddVote(ctx, vote); err != nil {
		if err == repository.ErrAlreadyVoted {
			return nil, apperror.New(apperror.ErrCodeConflict, "арбитр уже голосовал в этой сессии")
		}
		return nil, err
	}

	return vote, nil
}

// Finalize закрывает сессию: вычисляет консенсус, помечает выбросы,
// обновляет карму, исполняет расчёт и терминально закрывает дело.
//
// Шаги вычисления — чистые функции от множества голосов; порядок подачи
// голосов на результат не влияет.
func (s *ConsensusService) Finalize(ctx context.Context, caseID uuid.UUID) (*models.VotingSession, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		if err == repository.ErrCaseNotFound {
			return nil, apperror.ErrCaseNotFound
		}
		return nil, err
	}

	session, err := s.getSession(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if session.Finalized {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "сессия уже финализирована")
	}
	if s.now().Before(session.EndsAt) {
		return nil, apperror.New(apperror.ErrCodeDeadlineEarly, "время голосования ещё не истекло")
	}

	votes, err := s.sessions.ListVotes(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if len(votes) < s.cfg.MinVotes {
		return nil, apperror.New(apperror.ErrCodeInsufficientVotes, "недостаточно голосов для финализации")
	}

	outcome := computeOutcome(votes, s.cfg.OutlierMinRange)

	// План расчёта строится до каких-либо мутаций: пустое множество
	// валидных голосов закрывает сессию без движения средств.
	payouts, ok := settlementPlan(c, outcome)
	if !ok {
		return nil, apperror.New(apperror.ErrCodeNoValidVoters, "в сессии нет валидных голосов")
	}

	// CAS: из конкурирующих финализаций дальше проходит ровно одна.
	if err := s.sessions.BeginFinalize(ctx, session.ID); err != nil {
		if err == repository.ErrSessionFinalized {
			return nil, apperror.New(apperror.ErrCodeInvalidState, "сессия уже финализирована")
		}
		return nil, err
	}

	// Расчёт исполняется до записи итогов и кармы: неудавшаяся выплата
	// возвращает сессию в активное состояние без побочных эффектов, и
	// финализацию можно повторить.
	if err := releasePayouts(ctx, s.ledger, caseID, payouts); err != nil {
		if abortErr := s.sessions.AbortFinalize(ctx, session.ID); abortErr != nil && logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{"session_id": session.ID, "error": abortErr}).
				Error("не удалось вернуть сессию после сбоя расчёта")
		}
		return nil, err
	}

	if err := s.sessions.StoreResults(ctx, session.ID, outcome.Consensus, outcome.Dispersion, outcome.Threshold); err != nil {
		return nil, err
	}
	for _, r := range outcome.Votes {
		if err := s.sessions.StoreVoteResult(ctx, r.VoteID, r.Deviation, r.Outlier); err != nil {
			return nil, err
		}
	}

	if err := s.karma.applySessionResult(ctx, outcome.Votes); err != nil {
		return nil, err
	}

	if err := s.cases.Resolve(ctx, caseID, models.CaseStateEscalated); err != nil {
		return nil, err
	}

	s.notifyParties(c, models.EventSessionFinalized)
	return s.sessions.GetByCaseID(ctx, caseID)
}

// GetSession возвращает сессию по делу вместе с текущим числом голосов.
func (s *ConsensusService) GetSession(ctx context.Context, caseID uuid.UUID) (*models.VotingSession, error) {
	session, err := s.getSession(ctx, caseID)
	if err != nil {
		return nil, err
	}
	count, err := s.sessions.CountVotes(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	session.VotesCount = count
	return session, nil
}

// ListVotes возвращает голоса сессии.
func (s *ConsensusService) ListVotes(ctx context.Context, caseID uuid.UUID) ([]models.Vote, error) {
	session, err := s.getSession(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return s.sessions.ListVotes(ctx, session.ID)
}

// GetVote возвращает голос конкретного арбитра в сессии.
func (s *ConsensusService) GetVote(ctx context.Context, caseID, voterID uuid.UUID) (*models.Vote, error) {
	session, err := s.getSession(ctx, caseID)
	if err != nil {
		return nil, err
	}
	vote, err := s.sessions.GetVote(ctx, session.ID, voterID)
	if err != nil {
		if err == repository.ErrSessionNotFound {
			return nil, apperror.New(apperror.ErrCodeNotFound, "голос не найден")
		}
		return nil, err
	}
	return vote, nil
}

func (s *ConsensusService) getSession(ctx context.Context, caseID uuid.UUID) (*models.VotingSession, error) {
	session, err := s.sessions.GetByCaseID(ctx, caseID)
	if err != nil {
		if err == repository.ErrSessionNotFound {
			return nil, apperror.ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

func (s *ConsensusService) notifyParties(c *models.Case, event string) {
	if s.hub == nil {
		return
	}
	payload := map[string]any{"case_id": c.ID}
	for _, userID := range []uuid.UUID{c.ClientID, c.ContractorID} {
		_ = s.hub.BroadcastToUser(userID, event, payload)
	}
}
