package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"authgate/internal/common"
	"authgate/internal/domain/model"
)

// ItemFilter drives the advanced listing: pagination plus optional
// search and owner constraints.
type ItemFilter struct {
	Page    int
	Limit   int
	Search  string
	OwnerID string
}

type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	FindByID(ctx context.Context, id string) (*model.Item, error)
	List(ctx context.Context) ([]model.Item, error)
	ListFiltered(ctx context.Context, filter ItemFilter) ([]model.Item, int, error)
	Update(ctx context.Context, item *model.Item) error
	Delete(ctx context.Context, id string) error
}

type pgItemRepository struct {
	db *sql.DB
}

func NewPgItemRepository(db *sql.DB) ItemRepository {
	return &pgItemRepository{db: db}
}

func (r *pgItemRepository) Create(ctx context.Context, item *model.Item) error {
	query := `INSERT INTO items (id, title, description, owner_id)
	          VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, item.ID, item.Title, item.Description, item.OwnerID)
	if err != nil {
		return fmt.Errorf("pgItemRepository.Create: %w", err)
	}
	return nil
}

func (r *pgItemRepository) FindByID(ctx context.Context, id string) (*model.Item, error) {
	query := `SELECT id, title, description, owner_id, created_at, updated_at
	          FROM items WHERE id = $1`
	item := &model.Item{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.Title, &item.Description, &item.OwnerID, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgItemRepository.FindByID: %w", err)
	}
	return item, nil
}

func (r *pgItemRepository) List(ctx context.Context) ([]model.Item, error) {
	query := `SELECT id, title, description, owner_id, created_at, updated_at
	          FROM items ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgItemRepository.List: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

func (r *pgItemRepository) ListFiltered(ctx context.Context, filter ItemFilter) ([]model.Item, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		where += fmt.Sprintf(" AND owner_id = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgItemRepository.ListFiltered count: %w", err)
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := `SELECT id, title, description, owner_id, created_at, updated_at FROM items` + where +
		fmt.Sprintf(" ORDER BY created_at LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgItemRepository.ListFiltered: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *pgItemRepository) Update(ctx context.Context, item *model.Item) error {
	query := `UPDATE items SET title = $2, description = $3, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, item.ID, item.Title, item.Description)
	if err != nil {
		return fmt.Errorf("pgItemRepository.Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgItemRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgItemRepository.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	items := []model.Item{}
	for rows.Next() {
		var item model.Item
		if err := rows.Scan(&item.ID, &item.Title, &item.Description, &item.OwnerID, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanItems: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scanItems: %w", err)
	}
	return items, nil
}
