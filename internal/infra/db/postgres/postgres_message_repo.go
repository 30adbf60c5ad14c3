package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-marketplace/internal/domain/model"
	"telegram-marketplace/internal/domain/ports/repository"
)

var (
	_ repository.MessageRepository      = (*PostgresMessageRepo)(nil)
	_ repository.ConversationRepository = (*PostgresConversationRepo)(nil)
)

type PostgresMessageRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresMessageRepo(pool *pgxpool.Pool) *PostgresMessageRepo {
	return &PostgresMessageRepo{pool: pool}
}

func (r *PostgresMessageRepo) Save(ctx context.Context, qx repository.Tx, m *model.Message) error {
	const q = `
INSERT INTO messages (id, from_id, to_id, product_id, body, is_read, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7);
`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, m.ID, m.FromID, m.ToID, m.ProductID, m.Text, m.IsRead, m.CreatedAt)
	return err
}

func (r *PostgresMessageRepo) ListBetween(ctx context.Context, qx repository.Tx, a, b string, offset, limit int) ([]*model.Message, error) {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, from_id, to_id, product_id, body, is_read, created_at
  FROM messages
 WHERE (from_id=$1 AND to_id=$2) OR (from_id=$2 AND to_id=$1)
 ORDER BY created_at ASC OFFSET $3 LIMIT $4;
`
	rows, err := ex.Query(ctx, q, a, b, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.FromID, &m.ToID, &m.ProductID, &m.Text, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (r *PostgresMessageRepo) MarkRead(ctx context.Context, qx repository.Tx, fromID, toID string) error {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, `UPDATE messages SET is_read=TRUE WHERE from_id=$1 AND to_id=$2 AND NOT is_read;`, fromID, toID)
	return err
}

type PostgresConversationRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresConversationRepo(pool *pgxpool.Pool) *PostgresConversationRepo {
	return &PostgresConversationRepo{pool: pool}
}

func (r *PostgresConversationRepo) SetInAdminConversation(ctx context.Context, qx repository.Tx, chatID string, in bool) error {
	const q = `
INSERT INTO conversations (chat_id, in_admin_conversation, updated_at)
VALUES ($1,$2,$3)
ON CONFLICT (chat_id) DO UPDATE SET in_admin_conversation=$2, updated_at=$3;
`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, chatID, in, time.Now())
	return err
}

func (r *PostgresConversationRepo) InAdminConversation(ctx context.Context, qx repository.Tx, chatID string) (bool, error) {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return false, err
	}
	var in bool
	err = ex.QueryRow(ctx, `SELECT in_admin_conversation FROM conversations WHERE chat_id=$1;`, chatID).Scan(&in)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return in, nil
}
