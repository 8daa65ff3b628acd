package service

import (
	"context"

	"github.com/doclink-ai/doclink/internal/domain"
)

// WorkingSetCacheInterface is the ephemeral store for the selected
// domain, its published working set, and staged uploads. All keys are
// per user; a miss on any of them is recoverable by recomputation.
type WorkingSetCacheInterface interface {
	SelectedDomain(ctx context.Context, userID string) (string, error)
	ClearSelectedDomain(ctx context.Context, userID string) error

	// Publish moves the selection pointer to ws's domain and installs
	// the set atomically.
	Publish(ctx context.Context, userID string, ws *domain.WorkingSet) error
	Get(ctx context.Context, userID string) (*domain.WorkingSet, bool, error)
	Invalidate(ctx context.Context, userID string) error
	RefreshTTL(ctx context.Context, userID string) error

	PutStagingEntry(ctx context.Context, userID string, entry *domain.StagingEntry) error
	ListStagingEntries(ctx context.Context, userID string) ([]*domain.StagingEntry, error)
	DeleteStagingEntries(ctx context.Context, userID string, fileNames []string) error
}
