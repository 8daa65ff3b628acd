package service

import (
	"context"
	"time"

	"github.com/doclink-ai/doclink/internal/domain"
	"github.com/google/uuid"
)

// ContentRow is one ciphertext sentence read back from the content
// store, joined with its owning file's name.
type ContentRow struct {
	FileID     string
	FileName   string
	Sentence   []byte
	PageNumber int
	IsHeader   bool
	IsTable    bool
}

// UserRepositoryInterface defines the repository interface for user persistence
type UserRepositoryInterface interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetTierForUpdate(ctx context.Context, userID string) (domain.Tier, error)
	UpdateTier(ctx context.Context, userID string, tier domain.Tier) error
}

// DomainRepositoryInterface defines the repository interface for domain persistence
type DomainRepositoryInterface interface {
	Create(ctx context.Context, d *domain.Domain) error
	Get(ctx context.Context, userID, domainID string) (*domain.Domain, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Domain, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	Rename(ctx context.Context, domainID, newName string) error
	Delete(ctx context.Context, domainID string) (domain.DeleteDomainOutcome, error)
}

// FileRepositoryInterface defines the repository interface for file and
// content persistence
type FileRepositoryInterface interface {
	InsertBatch(ctx context.Context, files []*domain.File, units []domain.ContentUnit) error
	ListByDomain(ctx context.Context, userID, domainID string) ([]*domain.File, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	GetContent(ctx context.Context, fileIDs []string) ([]ContentRow, [][]float32, error)
	Delete(ctx context.Context, fileID string) error
}

// SessionRepositoryInterface defines the repository interface for
// question-quota session accounting
type SessionRepositoryInterface interface {
	Ensure(ctx context.Context, userID, sessionID string) error
	DailyQuestionCount(ctx context.Context, userID string) (int, error)
	TryIncrementQuestion(ctx context.Context, userID, sessionID string, limit int) (int, bool, error)
	Get(ctx context.Context, userID, sessionID string) (*domain.Session, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}
