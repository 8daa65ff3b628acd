package service

import (
	"context"
	"fmt"

	"github.com/doclink-ai/doclink/internal/domain"
)

// QuotaLedger admits resource-creating operations against per-tier
// limits. File and domain admission run inside the caller's commit
// transaction; the user row is locked so concurrent commits for the
// same user serialize and the count-then-insert window closes.
type QuotaLedger struct {
	users    UserRepositoryInterface
	sessions SessionRepositoryInterface
}

func NewQuotaLedger(users UserRepositoryInterface, sessions SessionRepositoryInterface) *QuotaLedger {
	return &QuotaLedger{users: users, sessions: sessions}
}

// AdmitFiles checks whether a user may add n more files. Must be
// called with repositories bound to the commit transaction.
func (q *QuotaLedger) AdmitFiles(ctx context.Context, repos TxRepositories, userID string, n int) error {
	tier, err := repos.Users().GetTierForUpdate(ctx, userID)
	if err != nil {
		return fmt.Errorf("locking user row: %w", err)
	}

	limit := tier.FileLimit()
	current, err := repos.Files().CountByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("counting files: %w", err)
	}
	if current+n > limit {
		return domain.NewAdmissionError(domain.QuotaFiles, current, limit)
	}
	return nil
}

// AdmitDomain checks whether a user may create one more domain. Must
// be called with repositories bound to the commit transaction.
func (q *QuotaLedger) AdmitDomain(ctx context.Context, repos TxRepositories, userID string) error {
	tier, err := repos.Users().GetTierForUpdate(ctx, userID)
	if err != nil {
		return fmt.Errorf("locking user row: %w", err)
	}

	limit := tier.DomainLimit()
	current, err := repos.Domains().CountByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("counting domains: %w", err)
	}
	if current >= limit {
		return domain.NewAdmissionError(domain.QuotaDomains, current, limit)
	}
	return nil
}

// ReserveQuestion admits and records one question in a single atomic
// step. The increment and the rolling-window check happen in one
// statement, so two concurrent questions at the boundary cannot both
// pass. A rejected attempt is not recorded.
func (q *QuotaLedger) ReserveQuestion(ctx context.Context, userID, sessionID string) error {
	user, err := q.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("loading user: %w", err)
	}

	limit := user.Tier.QuestionLimit()
	_, ok, err := q.sessions.TryIncrementQuestion(ctx, userID, sessionID, limit)
	if err != nil {
		return fmt.Errorf("reserving question: %w", err)
	}
	if !ok {
		current, cerr := q.sessions.DailyQuestionCount(ctx, userID)
		if cerr != nil {
			current = limit
		}
		return domain.NewAdmissionError(domain.QuotaQuestions, current, limit)
	}
	return nil
}

// RemainingQuestions reports how many questions the user may still ask
// in the trailing 24 hours. Returns -1 for unlimited tiers.
func (q *QuotaLedger) RemainingQuestions(ctx context.Context, userID string) (int, error) {
	user, err := q.users.GetByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("loading user: %w", err)
	}

	limit := user.Tier.QuestionLimit()
	if limit <= 0 {
		return -1, nil
	}
	used, err := q.sessions.DailyQuestionCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("counting questions: %w", err)
	}
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
