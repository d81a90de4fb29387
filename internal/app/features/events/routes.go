// internal/app/features/events/routes.go
package events

import (
	"github.com/dalemusser/clubbera/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes registers the event endpoints.
func Routes(h *Handler, gate *auth.Gate) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/events/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(gate.Required)
			r.Post("/events/{groupUniqueURL}", h.Create)
			r.Patch("/events/{id}", h.Update)
			r.Patch("/events/{id}/banner", h.ChangeBanner)
			r.Post("/events/{id}/attend", h.Attend)
			r.Post("/events/{id}/unattend", h.Unattend)
		})
	}
}
