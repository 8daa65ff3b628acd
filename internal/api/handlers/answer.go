package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/doclink-ai/doclink/internal/api"
	"github.com/doclink-ai/doclink/internal/api/middleware"
	"github.com/doclink-ai/doclink/internal/service"
)

type Answerer interface {
	Ask(ctx context.Context, userID, sessionID, question string, fileIDs []string) (*service.AnswerResult, error)
}

type AnswerHandler struct {
	svc Answerer
}

func NewAnswerHandler(svc Answerer) *AnswerHandler {
	return &AnswerHandler{svc: svc}
}

type AskRequest struct {
	Question string   `json:"question"`
	FileIDs  []string `json:"file_ids"`
}

type AskResponse struct {
	Answer             string   `json:"answer"`
	Resources          []string `json:"resources"`
	ResourceSentences  []string `json:"resource_sentences"`
	RemainingQuestions int      `json:"remaining_questions"`
}

func (h *AnswerHandler) Ask(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sessionID := middleware.GetSessionID(r.Context())

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	result, err := h.svc.Ask(r.Context(), userID, sessionID, req.Question, req.FileIDs)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, &AskResponse{
		Answer:             result.Answer,
		Resources:          result.Resources,
		ResourceSentences:  result.ResourceSentences,
		RemainingQuestions: result.RemainingQuestions,
	})
}
