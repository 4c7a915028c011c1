// Package session tracks last-access times for active conversation
// sessions and sweeps stale ones out of the short-term conversation store.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ConversationDeleter is the narrow capability the registry needs from the
// short-term conversation store: delete everything held for one session.
// The registry never reaches into the store's internal representation.
type ConversationDeleter interface {
	Delete(ctx context.Context, sessionID string) error
}

// Config configures the registry thresholds.
type Config struct {
	// InactivityThreshold bounds how long an idle session survives a sweep.
	InactivityThreshold time.Duration

	// OrphanThreshold is the shorter bound applied when a sweep is
	// triggered by a brand-new session: clients that mint a fresh session
	// id on every page load abandon the old one without closing it, and
	// waiting out the full inactivity window would let those pile up.
	OrphanThreshold time.Duration

	// SweepInterval is the background sweep cadence. 0 disables the loop.
	SweepInterval time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// SweepResult reports what a sweep did.
type SweepResult struct {
	CleanedCount int `json:"cleaned_count"`
	// DeleteFailures counts sessions whose conversation-state delete
	// failed. Those sessions are still removed from the registry.
	DeleteFailures int `json:"delete_failures,omitempty"`
}

// Registry owns the session bookkeeping: an opaque session id mapped to
// its last-access time. The conversation state itself lives in the
// short-term store, referenced by the same id. A removed session that is
// accessed again starts over as a fresh record; history is not resurrected.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]time.Time

	deleter ConversationDeleter
	cfg     Config
	now     func() time.Time
	logger  *zap.Logger
}

// NewRegistry creates a registry sweeping through deleter.
func NewRegistry(deleter ConversationDeleter, cfg Config, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Registry{
		sessions: make(map[string]time.Time),
		deleter:  deleter,
		cfg:      cfg,
		now:      now,
		logger:   logger.With(zap.String("component", "session_registry")),
	}
}

// RecordAccess upserts the session's last-access timestamp to now.
// Called once per inbound conversational turn, before any reasoning.
func (r *Registry) RecordAccess(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = r.now()
}

// Known reports whether the session id currently has a record. Used by
// the request layer to detect brand-new sessions before recording them.
func (r *Registry) Known(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[sessionID]
	return ok
}

// Len reports the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// SweepOptions controls one sweep pass.
type SweepOptions struct {
	// NewSession applies the shorter orphan threshold in addition to the
	// inactivity threshold. Set when a brand-new session id arrives.
	NewSession bool

	// Protect names the session whose request triggered this sweep; it is
	// never part of the removal set, whatever its timestamps say.
	Protect string
}

// Sweep removes every session idle past the inactivity threshold and,
// when opts.NewSession is set, every session idle past the orphan
// threshold. The removal set is snapshotted before any mutation. Each
// removed session's conversation state is deleted best-effort through the
// deleter; a failed delete is logged and counted, never raised, and never
// blocks the sweep of the remaining sessions. The registry entry goes
// away regardless of the delete outcome.
func (r *Registry) Sweep(ctx context.Context, opts SweepOptions) SweepResult {
	now := r.now()
	threshold := r.cfg.InactivityThreshold

	r.mu.Lock()
	var victims []string
	for id, last := range r.sessions {
		if id == opts.Protect {
			continue
		}
		idle := now.Sub(last)
		if idle > threshold || (opts.NewSession && idle > r.cfg.OrphanThreshold) {
			victims = append(victims, id)
		}
	}
	r.mu.Unlock()

	var res SweepResult
	for _, id := range victims {
		if err := r.deleter.Delete(ctx, id); err != nil {
			res.DeleteFailures++
			r.logger.Warn("session state delete failed",
				zap.String("session_id", id),
				zap.Error(err))
		}
		r.mu.Lock()
		delete(r.sessions, id)
		r.mu.Unlock()
		res.CleanedCount++
	}

	if res.CleanedCount > 0 {
		r.logger.Info("session sweep",
			zap.Int("cleaned", res.CleanedCount),
			zap.Int("delete_failures", res.DeleteFailures),
			zap.Bool("orphan_pass", opts.NewSession),
			zap.Int("remaining", r.Len()))
	}
	return res
}

// Run drives periodic sweeps until ctx is cancelled. A zero SweepInterval
// disables the loop; on-demand sweeps still work.
func (r *Registry) Run(ctx context.Context) {
	if r.cfg.SweepInterval <= 0 {
		return
	}
	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx, SweepOptions{})
		}
	}
}
