package jobs

import (
	"context"
	"fmt"
	"log"
	"time"
)

const (
	// DefaultSessionRetention is how long a session row stays useful.
	// The question quota looks back 24 hours; rows older than this can
	// only slow the rolling sum down.
	DefaultSessionRetention = 48 * time.Hour
)

// SessionStore is the slice of the session repository the pruner needs.
type SessionStore interface {
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// SessionPruner deletes session rows that have aged out of the
// question-quota window.
type SessionPruner struct {
	store     SessionStore
	retention time.Duration
}

func NewSessionPruner(store SessionStore, retention time.Duration) *SessionPruner {
	if retention <= 0 {
		retention = DefaultSessionRetention
	}
	return &SessionPruner{store: store, retention: retention}
}

// Run prunes everything older than the retention cutoff.
func (p *SessionPruner) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-p.retention)

	pruned, err := p.store.PruneOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune sessions: %w", err)
	}

	if pruned > 0 {
		log.Printf("Pruned %d expired session rows", pruned)
	}
	return nil
}
