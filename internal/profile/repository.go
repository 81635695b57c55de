package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Lolobw32/ecom-oslan/internal/customer"
)

type Repository interface {
	// Load returns nil, nil when the user has no profile yet.
	Load(ctx context.Context, userID string) (*customer.Info, error)
	Save(ctx context.Context, userID string, info customer.Info) error
	// Role returns "" when the user has no profile.
	Role(ctx context.Context, userID string) (string, error)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Load(ctx context.Context, userID string) (*customer.Info, error) {
	var info customer.Info
	err := r.db.QueryRowContext(ctx,
		`SELECT first_name, last_name, phone, email, address, city, zip, country
         FROM profiles WHERE id = $1`,
		userID,
	).Scan(&info.FirstName, &info.LastName, &info.Phone, &info.Email,
		&info.Address, &info.City, &info.Zip, &info.Country)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select profile: %w", err)
	}
	return &info, nil
}

// Save upserts the checkout fields. The role is never touched.
func (r *PostgresRepository) Save(ctx context.Context, userID string, info customer.Info) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (id, first_name, last_name, phone, email, address, city, zip, country, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
         ON CONFLICT (id) DO UPDATE SET
           first_name = EXCLUDED.first_name,
           last_name  = EXCLUDED.last_name,
           phone      = EXCLUDED.phone,
           email      = EXCLUDED.email,
           address    = EXCLUDED.address,
           city       = EXCLUDED.city,
           zip        = EXCLUDED.zip,
           country    = EXCLUDED.country,
           updated_at = now()`,
		userID, info.FirstName, info.LastName, info.Phone, info.Email,
		info.Address, info.City, info.Zip, info.Country,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Role(ctx context.Context, userID string) (string, error) {
	var role string
	err := r.db.QueryRowContext(ctx, `SELECT role FROM profiles WHERE id = $1`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("select role: %w", err)
	}
	return role, nil
}
