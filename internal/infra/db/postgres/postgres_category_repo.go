package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-marketplace/internal/domain"
	"telegram-marketplace/internal/domain/model"
	"telegram-marketplace/internal/domain/ports/repository"
)

var _ repository.CategoryRepository = (*PostgresCategoryRepo)(nil)

type PostgresCategoryRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresCategoryRepo(pool *pgxpool.Pool) *PostgresCategoryRepo {
	return &PostgresCategoryRepo{pool: pool}
}

func (r *PostgresCategoryRepo) Create(ctx context.Context, qx repository.Tx, c *model.Category) error {
	const q = `INSERT INTO categories (id, name, description, created_at) VALUES ($1,$2,$3,$4);`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, c.ID, c.Name, c.Description, c.CreatedAt)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

func (r *PostgresCategoryRepo) FindByName(ctx context.Context, qx repository.Tx, name string) (*model.Category, error) {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	row := ex.QueryRow(ctx, `SELECT id, name, description, created_at FROM categories WHERE name=$1;`, name)
	var c model.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}
	return &c, nil
}

func (r *PostgresCategoryRepo) ListAll(ctx context.Context, qx repository.Tx) ([]*model.Category, error) {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, `SELECT id, name, description, created_at FROM categories ORDER BY name;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
