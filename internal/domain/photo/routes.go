package photo

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the photo router. Reads are public; mutations require
// authentication.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Upload)
		r.Delete("/{id}", h.Delete)
	})

	return r
}

// StorageRoutes returns the storage-admin router
func (h *Handler) StorageRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/status", h.StorageStatus)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Put("/provider", h.SetProvider)
	})

	return r
}
