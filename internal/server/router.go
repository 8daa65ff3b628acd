package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/doclink-ai/doclink/internal/api"
	"github.com/doclink-ai/doclink/internal/api/handlers"
	"github.com/doclink-ai/doclink/internal/api/middleware"
)

type RouterConfig struct {
	TokenValidator middleware.TokenValidator
	UserHandler    *handlers.UserHandler
	DomainHandler  *handlers.DomainHandler
	UploadHandler  *handlers.UploadHandler
	AnswerHandler  *handlers.AnswerHandler
	MaxBodyBytes   int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = 25 * 1024 * 1024
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.UserAuth(cfg.TokenValidator))

		r.Route("/users", func(r chi.Router) {
			r.Post("/", cfg.UserHandler.Register)
			r.Get("/me", cfg.UserHandler.Me)
			r.Get("/me/usage", cfg.UserHandler.Usage)
		})

		r.Route("/domains", func(r chi.Router) {
			r.Post("/", cfg.DomainHandler.Create)
			r.Get("/", cfg.DomainHandler.List)
			r.Put("/{id}", cfg.DomainHandler.Rename)
			r.Delete("/{id}", cfg.DomainHandler.Delete)
			r.Post("/{id}/select", cfg.DomainHandler.Select)
			r.Get("/{id}/files", cfg.DomainHandler.ListFiles)
			r.Delete("/{id}/files/{fileID}", cfg.DomainHandler.RemoveFile)
		})

		r.Route("/uploads", func(r chi.Router) {
			r.Post("/", cfg.UploadHandler.StageFile)
			r.Post("/url", cfg.UploadHandler.StageURL)
			r.Get("/", cfg.UploadHandler.ListStaged)
			r.Post("/discard", cfg.UploadHandler.Discard)
			r.Post("/commit", cfg.UploadHandler.Commit)
		})

		r.Post("/ask", cfg.AnswerHandler.Ask)
	})

	return r
}
