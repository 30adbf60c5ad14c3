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

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

const userColumns = `telegram_id, username, first_name, phone, role, cart, rating, rating_count, is_active, created_at`

func (r *PostgresUserRepo) Save(ctx context.Context, qx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (telegram_id, username, first_name, phone, role, cart, rating, rating_count, is_active, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (telegram_id) DO UPDATE SET
  username=$2, first_name=$3, phone=$4, role=$5, cart=$6,
  rating=$7, rating_count=$8, is_active=$9;
`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return err
	}
	cart, err := json.Marshal(u.Cart)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, u.TelegramID, u.Username, u.FirstName, u.Phone, string(u.Role), cart, u.Rating, u.RatingCount, u.IsActive, u.CreatedAt)
	return err
}

func (r *PostgresUserRepo) FindByTelegramID(ctx context.Context, qx repository.Tx, telegramID string) (*model.User, error) {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	row := ex.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_id=$1;`, telegramID)
	return scanUser(row)
}

func (r *PostgresUserRepo) FindByPhone(ctx context.Context, qx repository.Tx, phone string) (*model.User, error) {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	row := ex.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone=$1 LIMIT 1;`, phone)
	return scanUser(row)
}

func (r *PostgresUserRepo) ListActive(ctx context.Context, qx repository.Tx) ([]*model.User, error) {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, `SELECT `+userColumns+` FROM users WHERE is_active ORDER BY created_at;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *PostgresUserRepo) ListByRoles(ctx context.Context, qx repository.Tx, roles ...model.Role) ([]*model.User, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	rows, err := ex.Query(ctx, `SELECT `+userColumns+` FROM users WHERE is_active AND role = ANY($1) ORDER BY created_at;`, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *PostgresUserRepo) CountByRole(ctx context.Context, qx repository.Tx) (map[model.Role]int, error) {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[model.Role]int{}
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		out[model.Role(role)] = n
	}
	return out, rows.Err()
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u    model.User
		role string
		cart []byte
	)
	if err := row.Scan(&u.TelegramID, &u.Username, &u.FirstName, &u.Phone, &role, &cart, &u.Rating, &u.RatingCount, &u.IsActive, &u.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Role = model.Role(role)
	if err := json.Unmarshal(cart, &u.Cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &u, nil
}

func scanUsers(rows pgx.Rows) ([]*model.User, error) {
	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
