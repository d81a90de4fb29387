// internal/app/features/authgoogle/routes.go
package authgoogle

import "github.com/go-chi/chi/v5"

// Routes registers POST /google-auth.
func Routes(h *Handler) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/google-auth", h.Login)
	}
}
