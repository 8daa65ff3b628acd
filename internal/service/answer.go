package service

import (
	"context"
	"strings"

	"github.com/doclink-ai/doclink/internal/domain"
)

// AnswerService answers questions against the selected domain's
// working set. Each admitted question consumes one unit of the
// rolling-24h question quota; a rejected question consumes nothing.
type AnswerService struct {
	activation *ActivationService
	quota      *QuotaLedger
	sessions   SessionRepositoryInterface
	search     SearchEngine
}

func NewAnswerService(
	activation *ActivationService,
	quota *QuotaLedger,
	sessions SessionRepositoryInterface,
	search SearchEngine,
) *AnswerService {
	return &AnswerService{activation: activation, quota: quota, sessions: sessions, search: search}
}

// AnswerResult is the response to one question.
type AnswerResult struct {
	Answer             string
	Resources          []string
	ResourceSentences  []string
	RemainingQuestions int
}

// Ask answers question using only the given files of the selected
// domain. fileIDs must be a non-empty subset of the selected domain's
// membership. The quota reservation happens before any search work, so
// an over-limit user is rejected cheaply.
func (s *AnswerService) Ask(ctx context.Context, userID, sessionID, question string, fileIDs []string) (*AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "question cannot be empty")
	}
	if len(fileIDs) == 0 {
		return nil, domain.ErrNoFilesSelected
	}

	ws, err := s.activation.WorkingSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	members := make(map[string]struct{}, len(ws.Units))
	for _, u := range ws.Units {
		members[u.FileID] = struct{}{}
	}
	for _, id := range fileIDs {
		if _, ok := members[id]; !ok {
			return nil, domain.ErrFileNotFound
		}
	}

	if err := s.sessions.Ensure(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	if err := s.quota.ReserveQuestion(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	idx, err := s.search.FilterSearch(ws.Units, ws.Embeddings, fileIDs)
	if err != nil {
		return nil, err
	}
	answer, err := s.search.SearchIndex(ctx, question, idx)
	if err != nil {
		return nil, err
	}

	remaining, err := s.quota.RemainingQuestions(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &AnswerResult{
		Answer:             answer.Answer,
		Resources:          answer.Resources,
		ResourceSentences:  answer.ResourceSentences,
		RemainingQuestions: remaining,
	}, nil
}
