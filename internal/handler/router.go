package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Tasks      *TaskHandler
	Categories *CategoryHandler
	Auth       *AuthHandler
	Verifier   TokenVerifier
}

// NewRouter mounts every endpoint under /api.
func NewRouter(h Handlers) chi.Router {
	r := chi.NewRouter() // Создаем роутер
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, `{"status":"ok"}`)
		})

		r.Post("/auth/register", h.Auth.Register)
		r.Post("/auth/login", h.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(h.Verifier))

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", h.Tasks.List)
				r.Post("/", h.Tasks.Create)
				r.Get("/stats", h.Tasks.Stats)
				r.Get("/{id}", h.Tasks.Get)
				r.Put("/{id}", h.Tasks.Update)
				r.Delete("/{id}", h.Tasks.Delete)
			})

			r.Get("/categories", h.Categories.List)
			r.Post("/categories", h.Categories.Create)
		})
	})
	return r
}
