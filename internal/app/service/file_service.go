package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"authgate/internal/common"
	"authgate/internal/domain/model"
	"authgate/internal/domain/repository"

	"github.com/google/uuid"
)

// FileService stores uploads on disk under dir and records them through
// the file repository. Stored names are generated per upload so clients
// cannot overwrite each other's files.
type FileService struct {
	files repository.FileRepository
	dir   string
}

func NewFileService(files repository.FileRepository, dir string) *FileService {
	return &FileService{files: files, dir: dir}
}

func (s *FileService) Upload(ctx context.Context, owner *model.User, originalName, contentType string, body io.Reader) (*model.StoredFile, error) {
	if originalName == "" {
		return nil, fmt.Errorf("filename is required: %w", common.ErrValidation)
	}

	stored, err := s.writeFile(originalName, body)
	if err != nil {
		return nil, err
	}

	record := &model.StoredFile{
		ID:           uuid.NewString(),
		Filename:     stored,
		OriginalName: filepath.Base(originalName),
		FileType:     contentType,
		OwnerID:      owner.ID,
	}
	if err := s.files.Create(ctx, record); err != nil {
		os.Remove(filepath.Join(s.dir, stored))
		return nil, fmt.Errorf("failed to record file: %w", err)
	}
	return record, nil
}

func (s *FileService) ListMine(ctx context.Context, owner *model.User) ([]model.StoredFile, error) {
	return s.files.ListByOwner(ctx, owner.ID)
}

// Delete removes the record and the file on disk. Only the owner or an
// admin may delete; a missing disk file is not an error.
func (s *FileService) Delete(ctx context.Context, id string, actor *model.User) error {
	file, err := s.files.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if file.OwnerID != actor.ID && actor.Role != model.RoleAdmin {
		return fmt.Errorf("not allowed: %w", common.ErrForbidden)
	}

	if err := s.files.Delete(ctx, id); err != nil {
		return err
	}
	os.Remove(filepath.Join(s.dir, file.Filename))
	return nil
}

// Replace swaps the stored content of an existing record. Owner only.
func (s *FileService) Replace(ctx context.Context, id string, actor *model.User, originalName, contentType string, body io.Reader) (*model.StoredFile, error) {
	file, err := s.files.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != actor.ID {
		return nil, fmt.Errorf("not allowed: %w", common.ErrForbidden)
	}

	stored, err := s.writeFile(originalName, body)
	if err != nil {
		return nil, err
	}

	previous := file.Filename
	file.Filename = stored
	file.OriginalName = filepath.Base(originalName)
	file.FileType = contentType
	if err := s.files.Update(ctx, file); err != nil {
		os.Remove(filepath.Join(s.dir, stored))
		return nil, err
	}
	os.Remove(filepath.Join(s.dir, previous))
	return file, nil
}

func (s *FileService) writeFile(originalName string, body io.Reader) (string, error) {
	stored := uuid.NewString() + filepath.Ext(originalName)
	dst, err := os.Create(filepath.Join(s.dir, stored))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, body); err != nil {
		os.Remove(filepath.Join(s.dir, stored))
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return stored, nil
}
