package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
)

const (
	codeInsufficientPrivilege = "42501"
	codeInvalidText           = "22P02" // product id is not a uuid
)

func wrap(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeInsufficientPrivilege:
			return fmt.Errorf("%s: %w: %w", op, ErrPermissionDenied, err)
		case codeInvalidText:
			return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// DBPool matches the methods from *pgxpool.Pool that we use.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Repository interface {
	List(ctx context.Context, activeOnly bool) ([]Product, error)
	Get(ctx context.Context, productID string) (Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p Product) error
	SetActive(ctx context.Context, productID string, active bool) error
	Delete(ctx context.Context, productID string) error
	Stock(ctx context.Context, productID string) (int, error)
	UpdateStock(ctx context.Context, productID string, quantity int) error
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const productColumns = `id, title, description, price, stock_quantity, size_stock, images, image_url, category, is_preorder, is_active, created_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var category string
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Price, &p.StockQuantity,
		&p.SizeStock, &p.Images, &p.ImageURL, &category, &p.IsPreorder, &p.IsActive, &p.CreatedAt)
	p.Category = Category(category)
	return p, err
}

func (r *PostgresRepository) List(ctx context.Context, activeOnly bool) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return products, nil
}

func (r *PostgresRepository) Get(ctx context.Context, productID string) (Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id=$1`, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, wrap("select product", err)
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p *Product) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO products (title, description, price, stock_quantity, size_stock, images, image_url, category, is_preorder, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`, p.Title, p.Description, p.Price, p.StockQuantity, p.SizeStock, p.Images, p.ImageURL,
		string(p.Category), p.IsPreorder, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return wrap("insert product", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, p Product) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products
		SET title=$2, description=$3, price=$4, stock_quantity=$5, size_stock=$6, images=$7,
		    image_url=$8, category=$9, is_preorder=$10, is_active=$11
		WHERE id=$1
	`, p.ID, p.Title, p.Description, p.Price, p.StockQuantity, p.SizeStock, p.Images,
		p.ImageURL, string(p.Category), p.IsPreorder, p.IsActive)
	if err != nil {
		return wrap("update product", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) SetActive(ctx context.Context, productID string, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET is_active=$2 WHERE id=$1`, productID, active)
	if err != nil {
		return wrap("set product active", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, productID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, productID)
	if err != nil {
		return wrap("delete product", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Stock(ctx context.Context, productID string) (int, error) {
	var qty int
	err := r.pool.QueryRow(ctx, `SELECT stock_quantity FROM products WHERE id=$1`, productID).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, wrap("select stock", err)
	}
	return qty, nil
}

// UpdateStock overwrites the stock quantity. Callers compute the new value;
// negative input is stored as 0.
func (r *PostgresRepository) UpdateStock(ctx context.Context, productID string, quantity int) error {
	if quantity < 0 {
		quantity = 0
	}
	tag, err := r.pool.Exec(ctx, `UPDATE products SET stock_quantity=$2 WHERE id=$1`, productID, quantity)
	if err != nil {
		return wrap("update stock", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
