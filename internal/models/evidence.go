package models

import (
	"time"

	"github.com/google/uuid"
)

// Evidence описывает файл-доказательство, приложенный стороной к делу.
type Evidence struct {
	ID         uuid.UUID `db:"id" json:"id"`
	CaseID     uuid.UUID `db:"case_id" json:"case_id"`
	UploaderID uuid.UUID `db:"uploader_id" json:"uploader_id"`
	FileName   string    `db:"file_name" json:"file_name"`
	MimeType   string    `db:"mime_type" json:"mime_type"`
	SizeBytes  int64     `db:"size_bytes" json:"size_bytes"`
	Path       string    `db:"path" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
