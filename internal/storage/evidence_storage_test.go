package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// pngBytes — минимальный валидный заголовок PNG.
func pngBytes(payload int) []byte {
	header := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	return append(header, make([]byte, payload)...)
}

func TestEvidenceStorage_SaveAndOpen(t *testing.T) {
	s, err := NewEvidenceStorage(t.TempDir(), 1)
	assert.NoError(t, err)
	ctx := context.Background()
	caseID := uuid.New()

	content := pngBytes(64)
	path, mime, size, err := s.Save(ctx, caseID, "screenshot.png", bytes.NewReader(content))
	assert.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, int64(len(content)), size)
	assert.Contains(t, path, caseID.String())

	rc, err := s.Open(ctx, path)
	assert.NoError(t, err)
	got, err := io.ReadAll(rc)
	assert.NoError(t, err)
	assert.Equal(t, content, got)
	rc.Close()
}

func TestEvidenceStorage_Save_RejectsUnknownType(t *testing.T) {
	s, err := NewEvidenceStorage(t.TempDir(), 1)
	assert.NoError(t, err)

	_, _, _, err = s.Save(context.Background(), uuid.New(), "script.sh", bytes.NewReader([]byte("#!/bin/sh\necho hi")))
	assert.Error(t, err)
}

func TestEvidenceStorage_Save_RejectsOversized(t *testing.T) {
	// Лимит 1 МБ, файл больше.
	s, err := NewEvidenceStorage(t.TempDir(), 1)
	assert.NoError(t, err)

	_, _, _, err = s.Save(context.Background(), uuid.New(), "big.png", bytes.NewReader(pngBytes(2*1024*1024)))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "лимит")
}

func TestEvidenceStorage_Delete(t *testing.T) {
	s, err := NewEvidenceStorage(t.TempDir(), 1)
	assert.NoError(t, err)
	ctx := context.Background()

	path, _, _, err := s.Save(ctx, uuid.New(), "a.png", bytes.NewReader(pngBytes(16)))
	assert.NoError(t, err)

	assert.NoError(t, s.Delete(ctx, path))
	_, err = s.Open(ctx, path)
	assert.Error(t, err)

	// Повторное удаление не ошибка.
	assert.NoError(t, s.Delete(ctx, path))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "report.pdf", sanitizeFilename("../../report.pdf"))
	assert.Equal(t, "passwd", sanitizeFilename("/etc/passwd"))
	assert.NotContains(t, sanitizeFilename("a..b.png"), "..")
}
