// Package sequence numbers published events per partition.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

var ErrEmptyPartition = errors.New("partition key is required")

// bump creates the counter at 1 or increments it, in one round trip.
const bump = `INSERT INTO event_sequence AS s (partition_key, last_sequence)
VALUES ($1, 1)
ON CONFLICT (partition_key) DO UPDATE
   SET last_sequence = s.last_sequence + 1,
       updated_at    = now()
RETURNING s.last_sequence`

type Store interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	store Store
}

func NewRepository(store Store) *Repository {
	return &Repository{store: store}
}

// NextSequence reserves the next number for partitionKey. Numbers start at 1
// and are never reused, even when the publish that reserved one fails.
func (r *Repository) NextSequence(ctx context.Context, partitionKey string) (int64, error) {
	key := strings.TrimSpace(partitionKey)
	if key == "" {
		return 0, ErrEmptyPartition
	}

	var next int64
	if err := r.store.QueryRow(ctx, bump, key).Scan(&next); err != nil {
		return 0, fmt.Errorf("bump sequence %q: %w", key, err)
	}
	return next, nil
}
