package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/arbitration-backend/internal/authz"
	"github.com/ignatzorin/arbitration-backend/internal/logger"
	"github.com/ignatzorin/arbitration-backend/internal/models"
	"github.com/ignatzorin/arbitration-backend/internal/pkg/apperror"
	"github.com/ignatzorin/arbitration-backend/internal/repository"
)

// VoterRepository описывает зависимости реестра кармы от слоя хранилища.
type VoterRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.VoterRecord, error)
	Register(ctx context.Context, userID uuid.UUID, startKarma int64) (*models.VoterRecord, error)
	Remove(ctx context.Context, userID uuid.UUID) error
	Ban(ctx context.Context, userID uuid.UUID) error
	SetKarma(ctx context.Context, userID uuid.UUID, karma int64) error
}

// KarmaService — реестр репутации арбитров: правило обновления после сессии
// и привилегированные административные операции с аудитом.
type KarmaService struct {
	voters VoterRepository
	auth   authz.Provider
	cfg    ArbitrationParams
}

func NewKarmaService(voters VoterRepository, auth authz.Provider, cfg ArbitrationParams) *KarmaService {
	return &KarmaService{voters: voters, auth: auth, cfg: cfg}
}

// GetVoter возвращает репутационную запись арбитра.
func (s *KarmaService) GetVoter(ctx context.Context, userID uuid.UUID) (*models.VoterRecord, error) {
	record, err := s.voters.Get(ctx, userID)
	if err != nil {
		if err == repository.ErrVoterNotFound {
			return nil, apperror.ErrVoterNotFound
		}
		return nil, err
	}
	return record, nil
}

// RegisterVoter допускает пользователя к голосованию. Прежняя карма
// сохраняется, новая запись получает стартовое значение.
func (s *KarmaService) RegisterVoter(ctx context.Context, adminID, userID uuid.UUID) (*models.VoterRecord, error) {
	if d := s.auth.IsAdmin(ctx, adminID); !d.Allowed {
		return nil, apperror.New(apperror.ErrCodeForbidden, d.Reason)
	}

	record, err := s.voters.Register(ctx, userID, s.cfg.KarmaStart)
	if err != nil {
		return nil, err
	}

	s.audit(adminID, userID, "voter.register", record.Karma)
	return record, nil
}

// RemoveVoter снимает право голоса, сохраняя карму.
func (s *KarmaService) RemoveVoter(ctx context.Context, adminID, userID uuid.UUID) error {
	if d := s.auth.IsAdmin(ctx, adminID); !d.Allowed {
		return apperror.New(apperror.ErrCodeForbidden, d.Reason)
	}

	if err := s.voters.Remove(ctx, userID); err != nil {
		if err == repository.ErrVoterNotFound {
			return apperror.ErrVoterNotFound
		}
		return err
	}

	s.audit(adminID, userID, "voter.remove", 0)
	return nil
}

// BanVoter необратимо отзывает право голоса и обнуляет карму.
func (s *KarmaService) BanVoter(ctx context.Context, adminID, userID uuid.UUID) error {
	if d := s.auth.IsAdmin(ctx, adminID); !d.Allowed {
		return apperror.New(apperror.ErrCodeForbidden, d.Reason)
	}

	if err := s.voters.Ban(ctx, userID); err != nil {
		if err == repository.ErrVoterNotFound {
			return apperror.ErrVoterNotFound
		}
		return err
	}

	s.audit(adminID, userID, "voter.ban", 0)
	return nil
}

// AdjustKarma устанавливает карму напрямую в пределах границ.
func (s *KarmaService) AdjustKarma(ctx context.Context, adminID, userID uuid.UUID, karma int64) error {
	if d := s.auth.IsAdmin(ctx, adminID); !d.Allowed {
		return apperror.New(apperror.ErrCodeForbidden, d.Reason)
	}
	if karma < s.cfg.KarmaFloor || karma > s.cfg.KarmaCap {
		return apperror.New(apperror.ErrCodeValidation, "карма за пределами допустимых границ")
	}

	if err := s.voters.SetKarma(ctx, userID, karma); err != nil {
		if err == repository.ErrVoterNotFound {
			return apperror.ErrVoterNotFound
		}
		return err
	}

	s.audit(adminID, userID, "voter.adjust_karma", karma)
	return nil
}

// applySessionResult применяет правило обновления кармы к каждому голосу
// финализированной сессии. Карма не голосовавших не меняется.
func (s *KarmaService) applySessionResult(ctx context.Context, results []VoteResult) error {
	for _, r := range results {
		record, err := s.voters.Get(ctx, r.VoterID)
		if err != nil {
			if err == repository.ErrVoterNotFound {
				// Запись могла быть удалена администратором между подачей
				// голоса и финализацией; голос уже учтён, карму обновлять некому.
				continue
			}
			return err
		}

		next := nextKarma(record.Karma, r.Deviation, r.Outlier, s.cfg)
		if next == record.Karma {
			continue
		}
		if err := s.voters.SetKarma(ctx, r.VoterID, next); err != nil {
			return err
		}
	}
	return nil
}

// nextKarma — чистое правило обновления кармы по итогу одного голоса.
//
// Выброс получает квадратичный штраф с потолком; точный голос — награду,
// удвоенную для арбитров ниже стартового значения («возврат доверия»).
// Результат всегда остаётся в границах floor..cap.
func nextKarma(current, deviation int64, outlier bool, cfg ArbitrationParams) int64 {
	if outlier {
		penalty := deviation * deviation / 100
		if penalty > cfg.MaxKarmaPenalty {
			penalty = cfg.MaxKarmaPenalty
		}
		next := current - penalty
		if next < cfg.KarmaFloor {
			next = cfg.KarmaFloor
		}
		return next
	}

	var delta int64
	switch {
	case deviation <= 5:
		delta = 3
	case deviation <= 10:
		delta = 1
	}
	if delta > 0 && current < cfg.KarmaStart {
		delta *= 2
	}

	next := current + delta
	if next > cfg.KarmaCap {
		next = cfg.KarmaCap
	}
	return next
}

// audit пишет административную операцию в структурированный лог.
func (s *KarmaService) audit(adminID, userID uuid.UUID, action string, karma int64) {
	if logger.Log == nil {
		return
	}
	logger.Log.WithFields(logrus.Fields{
		"admin_id": adminID,
		"voter_id": userID,
		"action":   action,
		"karma":    karma,
	}).Info("административная операция с арбитром")
}
