package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/doclink-ai/doclink/internal/api"
	"github.com/doclink-ai/doclink/internal/api/middleware"
	"github.com/doclink-ai/doclink/internal/domain"
	"github.com/doclink-ai/doclink/internal/service"
)

type DomainManager interface {
	Create(ctx context.Context, userID, name string) (*domain.Domain, error)
	Rename(ctx context.Context, userID, domainID, newName string) error
	Delete(ctx context.Context, userID, domainID string) error
	RemoveFile(ctx context.Context, userID, domainID, fileID string) error
	ListFiles(ctx context.Context, userID, domainID string) ([]*domain.File, error)
	Overview(ctx context.Context, userID string) ([]*service.DomainOverview, error)
}

type DomainActivator interface {
	SelectDomain(ctx context.Context, userID, domainID string) (*service.SelectionResult, error)
	CurrentSelection(ctx context.Context, userID string) (string, error)
}

type DomainHandler struct {
	svc       DomainManager
	activator DomainActivator
}

func NewDomainHandler(svc DomainManager, activator DomainActivator) *DomainHandler {
	return &DomainHandler{svc: svc, activator: activator}
}

type CreateDomainRequest struct {
	Name string `json:"name"`
}

type RenameDomainRequest struct {
	Name string `json:"name"`
}

type FileResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	UploadDate   string `json:"upload_date"`
	ModifiedDate string `json:"modified_date"`
}

type DomainResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Default   bool            `json:"default"`
	Selected  bool            `json:"selected"`
	CreatedAt string          `json:"created_at"`
	Files     []*FileResponse `json:"files,omitempty"`
}

type SelectDomainResponse struct {
	DomainID   string   `json:"domain_id"`
	DomainName string   `json:"domain_name"`
	Empty      bool     `json:"empty"`
	FileIDs    []string `json:"file_ids"`
	FileNames  []string `json:"file_names"`
}

const timeLayout = "2006-01-02T15:04:05Z"

func fileToResponse(f *domain.File) *FileResponse {
	return &FileResponse{
		ID:           f.ID,
		Name:         f.Name,
		UploadDate:   f.UploadDate.Format(timeLayout),
		ModifiedDate: f.ModifiedDate.Format(timeLayout),
	}
}

func domainToResponse(o *service.DomainOverview) *DomainResponse {
	resp := &DomainResponse{
		ID:        o.Domain.ID,
		Name:      o.Domain.Name,
		Default:   o.Domain.Type == domain.DomainTypeDefault,
		Selected:  o.Selected,
		CreatedAt: o.Domain.CreatedAt.Format(timeLayout),
	}
	for _, f := range o.Files {
		resp.Files = append(resp.Files, fileToResponse(f))
	}
	return resp
}

func (h *DomainHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	d, err := h.svc.Create(r.Context(), userID, req.Name)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, &DomainResponse{
		ID:        d.ID,
		Name:      d.Name,
		Default:   d.Type == domain.DomainTypeDefault,
		CreatedAt: d.CreatedAt.Format(timeLayout),
	})
}

func (h *DomainHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	overviews, err := h.svc.Overview(r.Context(), userID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]*DomainResponse, 0, len(overviews))
	for _, o := range overviews {
		resp = append(resp, domainToResponse(o))
	}
	api.Success(w, http.StatusOK, resp)
}

func (h *DomainHandler) Rename(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	domainID := chi.URLParam(r, "id")
	if domainID == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req RenameDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := h.svc.Rename(r.Context(), userID, domainID, req.Name); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"id": domainID, "name": req.Name})
}

func (h *DomainHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	domainID := chi.URLParam(r, "id")
	if domainID == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.svc.Delete(r.Context(), userID, domainID); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"id": domainID, "status": "deleted"})
}

func (h *DomainHandler) Select(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	domainID := chi.URLParam(r, "id")
	if domainID == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	result, err := h.activator.SelectDomain(r.Context(), userID, domainID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, &SelectDomainResponse{
		DomainID:   result.DomainID,
		DomainName: result.DomainName,
		Empty:      result.State == service.StateDomainEmpty,
		FileIDs:    result.FileIDs,
		FileNames:  result.FileNames,
	})
}

func (h *DomainHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	domainID := chi.URLParam(r, "id")
	if domainID == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	files, err := h.svc.ListFiles(r.Context(), userID, domainID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]*FileResponse, 0, len(files))
	for _, f := range files {
		resp = append(resp, fileToResponse(f))
	}
	api.Success(w, http.StatusOK, resp)
}

func (h *DomainHandler) RemoveFile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	domainID := chi.URLParam(r, "id")
	fileID := chi.URLParam(r, "fileID")
	if domainID == "" || fileID == "" {
		api.Error(w, http.StatusBadRequest, "id and fileID are required")
		return
	}

	if err := h.svc.RemoveFile(r.Context(), userID, domainID, fileID); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"id": fileID, "status": "deleted"})
}
