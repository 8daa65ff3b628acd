package service

import (
	"context"
	"time"

	"github.com/doclink-ai/doclink/internal/domain"
)

// UserService provisions accounts. Every new user gets a default
// domain in the same transaction as the user row, so no account ever
// exists without one.
type UserService struct {
	txRunner TxRunner
	users    UserRepositoryInterface
	domains  DomainRepositoryInterface
	files    FileRepositoryInterface
	sessions SessionRepositoryInterface
	quota    *QuotaLedger
	uuidGen  UUIDGenerator
}

func NewUserService(
	txRunner TxRunner,
	users UserRepositoryInterface,
	domains DomainRepositoryInterface,
	files FileRepositoryInterface,
	sessions SessionRepositoryInterface,
	quota *QuotaLedger,
	uuidGen UUIDGenerator,
) *UserService {
	return &UserService{
		txRunner: txRunner,
		users:    users,
		domains:  domains,
		files:    files,
		sessions: sessions,
		quota:    quota,
		uuidGen:  uuidGen,
	}
}

// DefaultDomainName is the display name of the undeletable domain
// every account starts with.
const DefaultDomainName = "General"

// EnsureUser returns the existing account for email, or creates one
// with a default domain. Idempotent on email.
func (s *UserService) EnsureUser(ctx context.Context, id, name, surname, email string) (*domain.User, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if id == "" {
		id = s.uuidGen.NewString()
	}
	u := domain.NewUser(id, name, surname, email, time.Now().UTC())
	if err := domain.ValidateUser(u); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid user", err)
	}

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Users().Create(ctx, u); err != nil {
			return err
		}
		d := domain.NewDomain(s.uuidGen.NewString(), u.ID, DefaultDomainName, domain.DomainTypeDefault, u.CreatedAt)
		return repos.Domains().Create(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Get returns one user by ID.
func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// SetTier moves a user between subscription tiers. Existing resources
// above the new tier's ceilings are kept; only new admissions are
// checked against the lower limits.
func (s *UserService) SetTier(ctx context.Context, userID string, tier domain.Tier) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.ErrUserNotFound
	}
	return s.users.UpdateTier(ctx, userID, tier)
}

// AccountUsage summarizes a user's quota position.
type AccountUsage struct {
	Tier               domain.Tier
	Files              int
	FileLimit          int
	Domains            int
	DomainLimit        int
	QuestionsUsed      int
	RemainingQuestions int
}

// Usage reports current resource counts against the tier's ceilings.
// RemainingQuestions is -1 for unlimited tiers.
func (s *UserService) Usage(ctx context.Context, userID string) (*AccountUsage, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}

	fileCount, err := s.files.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	domainCount, err := s.domains.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	used, err := s.sessions.DailyQuestionCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	remaining, err := s.quota.RemainingQuestions(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &AccountUsage{
		Tier:               u.Tier,
		Files:              fileCount,
		FileLimit:          u.Tier.FileLimit(),
		Domains:            domainCount,
		DomainLimit:        u.Tier.DomainLimit(),
		QuestionsUsed:      used,
		RemainingQuestions: remaining,
	}, nil
}
