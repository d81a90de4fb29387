// internal/app/features/categories/routes.go
package categories

import (
	"github.com/dalemusser/clubbera/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, gate *auth.Gate) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/category", h.List)

		r.Group(func(r chi.Router) {
			r.Use(gate.Required, auth.RequireAdmin)
			r.Post("/category", h.Create)
			r.Delete("/category/{id}", h.Delete)
		})
	}
}
