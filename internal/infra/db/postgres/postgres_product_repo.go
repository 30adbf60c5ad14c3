package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-marketplace/internal/domain"
	"telegram-marketplace/internal/domain/model"
	"telegram-marketplace/internal/domain/ports/repository"
)

var _ repository.ProductRepository = (*PostgresProductRepo)(nil)

type PostgresProductRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresProductRepo(pool *pgxpool.Pool) *PostgresProductRepo {
	return &PostgresProductRepo{pool: pool}
}

const productColumns = `id, seller_id, title, price, discount, description, images, category, stock, likes, comments, rating, rating_count, is_active, created_at`

func (r *PostgresProductRepo) Save(ctx context.Context, qx repository.Tx, p *model.Product) error {
	const q = `
INSERT INTO products (id, seller_id, title, price, discount, description, images, category, stock, likes, comments, rating, rating_count, is_active, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (id) DO UPDATE SET
  title=$3, price=$4, discount=$5, description=$6, images=$7, category=$8,
  stock=$9, likes=$10, comments=$11, rating=$12, rating_count=$13, is_active=$14;
`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return err
	}
	images, err := json.Marshal(p.Images)
	if err != nil {
		return err
	}
	likes, err := json.Marshal(p.Likes)
	if err != nil {
		return err
	}
	comments, err := json.Marshal(p.Comments)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, p.ID, p.SellerID, p.Title, p.Price, p.Discount, p.Description, images, p.Category, p.Stock, likes, comments, p.Rating, p.RatingCount, p.IsActive, p.CreatedAt)
	return err
}

func (r *PostgresProductRepo) FindByID(ctx context.Context, qx repository.Tx, id string) (*model.Product, error) {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	row := ex.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1;`, id)
	return scanProduct(row)
}

func (r *PostgresProductRepo) FindByIDs(ctx context.Context, qx repository.Tx, ids []string) ([]*model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1);`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *PostgresProductRepo) ListActive(ctx context.Context, qx repository.Tx, f repository.ProductFilter) ([]*model.Product, error) {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	where, args := filterClause(f)
	q := `SELECT ` + productColumns + ` FROM products ` + where + ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		q += ` LIMIT ` + strconv.Itoa(f.Limit)
	}
	if f.Offset > 0 {
		q += ` OFFSET ` + strconv.Itoa(f.Offset)
	}
	rows, err := ex.Query(ctx, q+`;`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *PostgresProductRepo) CountActive(ctx context.Context, qx repository.Tx, f repository.ProductFilter) (int, error) {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return 0, err
	}
	where, args := filterClause(f)
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM products `+where+`;`, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// filterClause builds the WHERE clause for ProductFilter. The effective
// (discounted) price bounds are evaluated in SQL so pagination stays
// consistent with what the user sees.
func filterClause(f repository.ProductFilter) (string, []interface{}) {
	conds := []string{"is_active"}
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.Category != "" {
		conds = append(conds, "category = "+arg(f.Category))
	}
	if f.SellerID != "" {
		conds = append(conds, "seller_id = "+arg(f.SellerID))
	}
	if f.MinPrice > 0 {
		conds = append(conds, "(price - price * discount / 100) >= "+arg(f.MinPrice))
	}
	if f.MaxPrice > 0 {
		conds = append(conds, "(price - price * discount / 100) <= "+arg(f.MaxPrice))
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var (
		p        model.Product
		images   []byte
		likes    []byte
		comments []byte
	)
	if err := row.Scan(&p.ID, &p.SellerID, &p.Title, &p.Price, &p.Discount, &p.Description, &images, &p.Category, &p.Stock, &likes, &comments, &p.Rating, &p.RatingCount, &p.IsActive, &p.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	if err := json.Unmarshal(images, &p.Images); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	if err := json.Unmarshal(likes, &p.Likes); err != nil {
		return nil, fmt.Errorf("decode likes: %w", err)
	}
	if err := json.Unmarshal(comments, &p.Comments); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	return &p, nil
}

func scanProducts(rows pgx.Rows) ([]*model.Product, error) {
	var out []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
