package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/doclink-ai/doclink/internal/api"
	"github.com/doclink-ai/doclink/internal/api/middleware"
	"github.com/doclink-ai/doclink/internal/service"
)

type Uploader interface {
	StageFile(ctx context.Context, userID, fileName string, data []byte) (*service.StagedFile, error)
	StageURL(ctx context.Context, userID, rawURL string) (*service.StagedFile, error)
	ListStaged(ctx context.Context, userID string) ([]*service.StagedFile, error)
	DiscardStaged(ctx context.Context, userID string, fileNames []string) error
	Commit(ctx context.Context, userID, domainID string) (*service.CommitResult, error)
}

type UploadHandler struct {
	svc Uploader
}

func NewUploadHandler(svc Uploader) *UploadHandler {
	return &UploadHandler{svc: svc}
}

type StageURLRequest struct {
	URL string `json:"url"`
}

type DiscardRequest struct {
	FileNames []string `json:"file_names"`
}

type CommitRequest struct {
	DomainID string `json:"domain_id"`
}

type StagedFileResponse struct {
	FileName      string `json:"file_name"`
	SentenceCount int    `json:"sentence_count"`
	StagedAt      string `json:"staged_at"`
}

type CommitResponse struct {
	DomainID  string   `json:"domain_id"`
	FileIDs   []string `json:"file_ids"`
	FileNames []string `json:"file_names"`
}

func stagedToResponse(s *service.StagedFile) *StagedFileResponse {
	return &StagedFileResponse{
		FileName:      s.FileName,
		SentenceCount: s.SentenceCount,
		StagedAt:      s.StagedAt.Format(timeLayout),
	}
}

// StageFile accepts a multipart upload and stages it for commit.
func (h *UploadHandler) StageFile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read file")
		return
	}

	staged, err := h.svc.StageFile(r.Context(), userID, header.Filename, data)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, stagedToResponse(staged))
}

func (h *UploadHandler) StageURL(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req StageURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		api.Error(w, http.StatusBadRequest, "url is required")
		return
	}

	staged, err := h.svc.StageURL(r.Context(), userID, req.URL)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, stagedToResponse(staged))
}

func (h *UploadHandler) ListStaged(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	staged, err := h.svc.ListStaged(r.Context(), userID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]*StagedFileResponse, 0, len(staged))
	for _, s := range staged {
		resp = append(resp, stagedToResponse(s))
	}
	api.Success(w, http.StatusOK, resp)
}

func (h *UploadHandler) Discard(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req DiscardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.FileNames) == 0 {
		api.Error(w, http.StatusBadRequest, "file_names is required")
		return
	}

	if err := h.svc.DiscardStaged(r.Context(), userID, req.FileNames); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"status": "discarded"})
}

func (h *UploadHandler) Commit(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DomainID == "" {
		api.Error(w, http.StatusBadRequest, "domain_id is required")
		return
	}

	result, err := h.svc.Commit(r.Context(), userID, req.DomainID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, &CommitResponse{
		DomainID:  result.DomainID,
		FileIDs:   result.FileIDs,
		FileNames: result.FileNames,
	})
}
