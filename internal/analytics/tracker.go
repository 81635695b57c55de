package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const EventPageView = "page_view"

type PageView struct {
	VisitorID string `json:"visitorId"`
	Path      string `json:"path"`
	Referrer  string `json:"referrer"`
	UserAgent string `json:"userAgent"`
}

type metadata struct {
	Path      string `json:"path"`
	Referrer  string `json:"referrer"`
	UserAgent string `json:"user_agent"`
}

type Tracker struct {
	db *sql.DB
}

func NewTracker(db *sql.DB) *Tracker {
	return &Tracker{db: db}
}

// TrackPageView records a page view and returns the visitor id, minting one
// when the caller has none yet.
func (t *Tracker) TrackPageView(ctx context.Context, pv PageView) (string, error) {
	visitorID := strings.TrimSpace(pv.VisitorID)
	if visitorID == "" {
		visitorID = uuid.NewString()
	}
	meta, err := json.Marshal(metadata{Path: pv.Path, Referrer: pv.Referrer, UserAgent: pv.UserAgent})
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = t.db.ExecContext(ctx,
		`INSERT INTO analytics (event_type, visitor_id, metadata) VALUES ($1, $2, $3)`,
		EventPageView, visitorID, string(meta),
	)
	if err != nil {
		return "", fmt.Errorf("insert page view: %w", err)
	}
	return visitorID, nil
}

func (t *Tracker) UniqueVisitors(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := t.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT visitor_id) FROM analytics WHERE event_type = $1 AND created_at >= $2`,
		EventPageView, since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count visitors: %w", err)
	}
	return n, nil
}
