package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/doclink-ai/doclink/internal/api"
	"github.com/doclink-ai/doclink/internal/api/middleware"
	"github.com/doclink-ai/doclink/internal/domain"
	"github.com/doclink-ai/doclink/internal/service"
)

type UserManager interface {
	EnsureUser(ctx context.Context, id, name, surname, email string) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	SetTier(ctx context.Context, userID string, tier domain.Tier) error
	Usage(ctx context.Context, userID string) (*service.AccountUsage, error)
}

type UserHandler struct {
	svc UserManager
}

func NewUserHandler(svc UserManager) *UserHandler {
	return &UserHandler{svc: svc}
}

type RegisterRequest struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Tier  string `json:"tier"`
}

type UsageResponse struct {
	Tier               string `json:"tier"`
	Files              int    `json:"files"`
	FileLimit          int    `json:"file_limit"`
	Domains            int    `json:"domains"`
	DomainLimit        int    `json:"domain_limit"`
	QuestionsUsed      int    `json:"questions_used"`
	RemainingQuestions int    `json:"remaining_questions"`
}

// Register provisions an account for the authenticated identity. It is
// idempotent: repeat calls return the existing account.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		api.Error(w, http.StatusBadRequest, "email is required")
		return
	}

	u, err := h.svc.EnsureUser(r.Context(), userID, req.Name, req.Surname, req.Email)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, &UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Tier:  string(u.Tier),
	})
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	u, err := h.svc.Get(r.Context(), userID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, &UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Tier:  string(u.Tier),
	})
}

func (h *UserHandler) Usage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	usage, err := h.svc.Usage(r.Context(), userID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, &UsageResponse{
		Tier:               string(usage.Tier),
		Files:              usage.Files,
		FileLimit:          usage.FileLimit,
		Domains:            usage.Domains,
		DomainLimit:        usage.DomainLimit,
		QuestionsUsed:      usage.QuestionsUsed,
		RemainingQuestions: usage.RemainingQuestions,
	})
}
