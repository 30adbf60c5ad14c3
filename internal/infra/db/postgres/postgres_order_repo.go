package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-marketplace/internal/domain"
	"telegram-marketplace/internal/domain/model"
	"telegram-marketplace/internal/domain/ports/repository"
)

var _ repository.OrderRepository = (*PostgresOrderRepo)(nil)

type PostgresOrderRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresOrderRepo(pool *pgxpool.Pool) *PostgresOrderRepo {
	return &PostgresOrderRepo{pool: pool}
}

const orderColumns = `id, client_id, product_ids, status, total_price, created_at`

func (r *PostgresOrderRepo) Save(ctx context.Context, qx repository.Tx, o *model.Order) error {
	const q = `
INSERT INTO orders (id, client_id, product_ids, status, total_price, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET status=$4;
`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return err
	}
	ids, err := json.Marshal(o.ProductIDs)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, o.ID, o.ClientID, ids, string(o.Status), o.TotalPrice, o.CreatedAt)
	return err
}

func (r *PostgresOrderRepo) FindByID(ctx context.Context, qx repository.Tx, id string) (*model.Order, error) {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	row := ex.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1;`, id)
	return scanOrder(row)
}

func (r *PostgresOrderRepo) ListByClient(ctx context.Context, qx repository.Tx, clientID string, offset, limit int) ([]*model.Order, error) {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := ex.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE client_id=$1 ORDER BY created_at DESC OFFSET $2 LIMIT $3;`, clientID, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (r *PostgresOrderRepo) ListAll(ctx context.Context, qx repository.Tx, offset, limit int) ([]*model.Order, error) {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := ex.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC OFFSET $1 LIMIT $2;`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (r *PostgresOrderRepo) CountByStatus(ctx context.Context, qx repository.Tx) (map[model.OrderStatus]int, error) {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[model.OrderStatus]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[model.OrderStatus(status)] = n
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o      model.Order
		ids    []byte
		status string
	)
	if err := row.Scan(&o.ID, &o.ClientID, &ids, &status, &o.TotalPrice, &o.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	o.Status = model.OrderStatus(status)
	if err := json.Unmarshal(ids, &o.ProductIDs); err != nil {
		return nil, fmt.Errorf("decode product ids: %w", err)
	}
	return &o, nil
}

func scanOrders(rows pgx.Rows) ([]*model.Order, error) {
	var out []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
