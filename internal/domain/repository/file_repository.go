package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"authgate/internal/common"
	"authgate/internal/domain/model"
)

type FileRepository interface {
	Create(ctx context.Context, file *model.StoredFile) error
	FindByID(ctx context.Context, id string) (*model.StoredFile, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.StoredFile, error)
	Update(ctx context.Context, file *model.StoredFile) error
	Delete(ctx context.Context, id string) error
}

type pgFileRepository struct {
	db *sql.DB
}

func NewPgFileRepository(db *sql.DB) FileRepository {
	return &pgFileRepository{db: db}
}

func (r *pgFileRepository) Create(ctx context.Context, file *model.StoredFile) error {
	query := `INSERT INTO files (id, filename, original_name, file_type, owner_id)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, file.ID, file.Filename, file.OriginalName, file.FileType, file.OwnerID)
	if err != nil {
		return fmt.Errorf("pgFileRepository.Create: %w", err)
	}
	return nil
}

func (r *pgFileRepository) FindByID(ctx context.Context, id string) (*model.StoredFile, error) {
	query := `SELECT id, filename, original_name, file_type, owner_id, created_at
	          FROM files WHERE id = $1`
	file := &model.StoredFile{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&file.ID, &file.Filename, &file.OriginalName, &file.FileType, &file.OwnerID, &file.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgFileRepository.FindByID: %w", err)
	}
	return file, nil
}

func (r *pgFileRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.StoredFile, error) {
	query := `SELECT id, filename, original_name, file_type, owner_id, created_at
	          FROM files WHERE owner_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("pgFileRepository.ListByOwner: %w", err)
	}
	defer rows.Close()

	files := []model.StoredFile{}
	for rows.Next() {
		var file model.StoredFile
		if err := rows.Scan(&file.ID, &file.Filename, &file.OriginalName, &file.FileType, &file.OwnerID, &file.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgFileRepository.ListByOwner: %w", err)
		}
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgFileRepository.ListByOwner: %w", err)
	}
	return files, nil
}

func (r *pgFileRepository) Update(ctx context.Context, file *model.StoredFile) error {
	query := `UPDATE files SET filename = $2, original_name = $3, file_type = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, file.ID, file.Filename, file.OriginalName, file.FileType)
	if err != nil {
		return fmt.Errorf("pgFileRepository.Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgFileRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgFileRepository.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}
