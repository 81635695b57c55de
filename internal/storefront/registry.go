package storefront

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registry creates sessions lazily. With an idle TTL, sessions not fetched for
// that long are dropped by Sweep and rebuilt from the KV storage on the next
// Get; only the promo slot and a checkout in progress are lost.
type Registry struct {
	deps    Deps
	idleTTL time.Duration
	now     func() time.Time
	logger  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	session  *Session
	lastSeen time.Time
}

func NewRegistry(d Deps) *Registry {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Registry{
		deps:     d,
		idleTTL:  d.IdleTTL,
		now:      time.Now,
		logger:   d.Logger.Named("sessions"),
		sessions: make(map[string]*entry),
	}
}

func (r *Registry) Get(sessionID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sessionID]
	if !ok {
		e = &entry{session: newSession(sessionID, r.deps)}
		r.sessions[sessionID] = e
	}
	e.lastSeen = r.now()
	return e.session
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many were
// dropped. Sessions with an order submission running are kept.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, e := range r.sessions {
		if e.lastSeen.After(cutoff) || e.session.Checkout().Submitting() {
			continue
		}
		delete(r.sessions, id)
		evicted++
	}
	return evicted
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if r.idleTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("evicted idle sessions", zap.Int("evicted", n), zap.Int("held", r.Len()))
			}
		}
	}
}
