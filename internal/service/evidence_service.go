package service

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/ignatzorin/arbitration-backend/internal/models"
	"github.com/ignatzorin/arbitration-backend/internal/pkg/apperror"
	"github.com/ignatzorin/arbitration-backend/internal/repository"
)

// EvidenceRepository описывает зависимости сервиса от слоя хранилища.
type EvidenceRepository interface {
	Create(ctx context.Context, ev *models.Evidence) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Evidence, error)
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.Evidence, error)
}

// EvidenceStore — файловое хранилище содержимого доказательств.
type EvidenceStore interface {
	Save(ctx context.Context, caseID uuid.UUID, originalName string, r io.Reader) (path, mime string, size int64, err error)
	Open(ctx context.Context, relativePath string) (io.ReadCloser, error)
}

// EvidenceService управляет доказательствами по делам: прикладывать и
// читать их могут только стороны дела.
type EvidenceService struct {
	evidence EvidenceRepository
	store    EvidenceStore
	cases    CaseRepository
}

func NewEvidenceService(evidence EvidenceRepository, store EvidenceStore, cases CaseRepository) *EvidenceService {
	return &EvidenceService{evidence: evidence, store: store, cases: cases}
}

// Attach сохраняет файл-доказательство по делу.
// По закрытому делу новые доказательства не принимаются.
func (s *EvidenceService) Attach(ctx context.Context, caseID, uploaderID uuid.UUID, fileName string, r io.Reader) (*models.Evidence, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		if err == repository.ErrCaseNotFound {
			return nil, apperror.ErrCaseNotFound
		}
		return nil, err
	}
	if !c.IsParty(uploaderID) {
		return nil, apperror.ErrNotParticipant
	}
	if c.State == models.CaseStateResolved {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "дело закрыто, доказательства больше не принимаются")
	}

	path, mime, size, err := s.store.Save(ctx, caseID, fileName, r)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, "файл не принят")
	}

	ev := &models.Evidence{
		CaseID:     caseID,
		UploaderID: uploaderID,
		FileName:   fileName,
		MimeType:   mime,
		SizeBytes:  size,
		Path:       path,
	}
	if err := s.evidence.Create(ctx, ev); err != nil {
		return nil, err
	}

	return ev, nil
}

// List возвращает доказательства по делу для его стороны.
func (s *EvidenceService) List(ctx context.Context, caseID, caller uuid.UUID) ([]models.Evidence, error) {
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

	return s.evidence.ListByCase(ctx, caseID)
}

// Open отдаёт содержимое доказательства вместе с метаданными.
func (s *EvidenceService) Open(ctx context.Context, evidenceID, caller uuid.UUID) (*models.Evidence, io.ReadCloser, error) {
	ev, err := s.evidence.GetByID(ctx, evidenceID)
	if err != nil {
		if err == repository.ErrEvidenceNotFound {
			return nil, nil, apperror.New(apperror.ErrCodeNotFound, "доказательство не найдено")
		}
		return nil, nil, err
	}

	c, err := s.cases.GetByID(ctx, ev.CaseID)
	if err != nil {
		return nil, nil, err
	}
	if !c.IsParty(caller) {
		return nil, nil, apperror.ErrNotParticipant
	}

	rc, err := s.store.Open(ctx, ev.Path)
	if err != nil {
		return nil, nil, err
	}
	return ev, rc, nil
}
