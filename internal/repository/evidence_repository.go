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

// ErrEvidenceNotFound сигнализирует об отсутствии файла-доказательства.
var ErrEvidenceNotFound = errors.New("evidence not found")

// EvidenceRepository работает с таблицей evidence_files.
type EvidenceRepository struct {
	db *sqlx.DB
}

// NewEvidenceRepository создаёт экземпляр.
func NewEvidenceRepository(db *sqlx.DB) *EvidenceRepository {
	return &EvidenceRepository{db: db}
}

// Create сохраняет запись о приложенном файле.
func (r *EvidenceRepository) Create(ctx context.Context, ev *models.Evidence) error {
	query := `
		INSERT INTO evidence_files (case_id, uploader_id, file_name, mime_type, size_bytes, path)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		ev.CaseID, ev.UploaderID, ev.FileName, ev.MimeType, ev.SizeBytes, ev.Path,
	).Scan(&ev.ID, &ev.CreatedAt); err != nil {
		return fmt.Errorf("evidence repository: create %w", err)
	}

	return nil
}

// GetByID возвращает запись о файле.
func (r *EvidenceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Evidence, error) {
	var ev models.Evidence
	if err := r.db.GetContext(ctx, &ev, `SELECT * FROM evidence_files WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEvidenceNotFound
		}
		return nil, fmt.Errorf("evidence repository: get by id %w", err)
	}
	return &ev, nil
}

// ListByCase возвращает все доказательства по делу.
func (r *EvidenceRepository) ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.Evidence, error) {
	var files []models.Evidence
	err := r.db.SelectContext(ctx, &files, `
		SELECT * FROM evidence_files WHERE case_id = $1 ORDER BY created_at
	`, caseID)
	return files, err
}
