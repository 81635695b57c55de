package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
)

// Postgres SQLSTATEs: insufficient_privilege is raised by row-level security,
// invalid_text_representation by an id that is not a uuid.
const (
	codeInsufficientPrivilege = "42501"
	codeInvalidText           = "22P02"
)

type Repository interface {
	CreateOrder(ctx context.Context, o *Order) error
	CreateItems(ctx context.Context, items []Item) error
	GetByID(ctx context.Context, orderID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	List(ctx context.Context, status Status) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID string, status Status) error
	Summary(ctx context.Context, since time.Time) (Summary, error)
}

// AtomicWriter writes an order and its items in one transaction.
type AtomicWriter interface {
	CreateWithItems(ctx context.Context, o *Order) error
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func classify(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeInsufficientPrivilege:
			return fmt.Errorf("%s: %w: %w", op, ErrPermissionDenied, err)
		case codeInvalidText:
			return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *PostgresRepository) CreateOrder(ctx context.Context, o *Order) error {
	return insertOrder(ctx, r.db, o)
}

func insertOrder(ctx context.Context, db execer, o *Order) error {
	if o.Status == "" {
		o.Status = StatusPending
	}
	address, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshal shipping address: %w", err)
	}

	err = db.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, total_amount, status, shipping_address)
         VALUES ($1, $2, $3, $4)
         RETURNING id, created_at`,
		nullString(o.UserID), o.TotalAmount, string(o.Status), string(address),
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return classify("insert order", err)
	}
	return nil
}

// CreateItems inserts all items in a single statement.
func (r *PostgresRepository) CreateItems(ctx context.Context, items []Item) error {
	return insertItems(ctx, r.db, items)
}

func insertItems(ctx context.Context, db execer, items []Item) error {
	if len(items) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase, size) VALUES `)
	args := make([]any, 0, len(items)*5)
	for i, it := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 5
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5)
		args = append(args, it.OrderID, it.ProductID, it.Quantity, it.PriceAtPurchase, it.Size)
	}

	if _, err := db.ExecContext(ctx, sb.String(), args...); err != nil {
		return classify("insert order_items", err)
	}
	return nil
}

func (r *PostgresRepository) CreateWithItems(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertOrder(ctx, tx, o); err != nil {
		return err
	}
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	if err := insertItems(ctx, tx, o.Items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const orderColumns = `o.id, o.user_id, o.total_amount, o.status, o.shipping_address, o.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner, extra ...any) (Order, error) {
	var (
		o       Order
		userID  sql.NullString
		status  string
		address []byte
	)
	dest := append([]any{&o.ID, &userID, &o.TotalAmount, &status, &address, &o.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return Order{}, err
	}
	o.UserID = userID.String
	o.Status = Status(status)
	if len(address) > 0 {
		if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
			return Order{}, fmt.Errorf("decode shipping address: %w", err)
		}
	}
	return o, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, orderID string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders o WHERE o.id = $1`, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err = classify("select order", err); errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	orders := []Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders o WHERE o.user_id = $1 ORDER BY o.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, classify("select orders", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// List returns all orders newest first, optionally filtered by status, with
// the customer's profile name and email.
func (r *PostgresRepository) List(ctx context.Context, status Status) ([]Order, error) {
	query := `SELECT ` + orderColumns + `, COALESCE(p.email, ''), TRIM(COALESCE(p.first_name, '') || ' ' || COALESCE(p.last_name, ''))
         FROM orders o LEFT JOIN profiles p ON p.id = o.user_id`
	var args []any
	if status != "" {
		query += ` WHERE o.status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY o.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("select orders", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		var email, name string
		o, err := scanOrder(rows, &email, &name)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.ProfileEmail, o.ProfileName = email, name
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return orders, nil
}

func (r *PostgresRepository) attachItems(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	byID := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = i
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT order_id, product_id, quantity, price_at_purchase, size
         FROM order_items WHERE order_id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return classify("select order_items", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.OrderID, &it.ProductID, &it.Quantity, &it.PriceAtPurchase, &it.Size); err != nil {
			return fmt.Errorf("scan order_item: %w", err)
		}
		if i, ok := byID[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, orderID string, status Status) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1`, orderID, string(status))
	if err != nil {
		return classify("update order status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Summary(ctx context.Context, since time.Time) (Summary, error) {
	var s Summary
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_amount), 0), COUNT(*)
         FROM orders WHERE created_at >= $1 AND status <> $2`,
		since, string(StatusCancelled),
	).Scan(&s.Revenue, &s.OrderCount)
	if err != nil {
		return Summary{}, classify("select order summary", err)
	}
	return s, nil
}
