// internal/app/features/comments/routes.go
package comments

import (
	"github.com/dalemusser/clubbera/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes registers the comment endpoints. Listing is public.
func Routes(h *Handler, gate *auth.Gate) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/group/{groupId}/comments", h.ListForGroup)
		r.Get("/comment/{commentId}/replies", h.ListReplies)

		r.Group(func(r chi.Router) {
			r.Use(gate.Required)
			r.Post("/group/{groupId}/comment", h.Create)
			r.Post("/comment/{commentId}/reply", h.Reply)
			r.Delete("/comment/{commentId}", h.Delete)
			r.Delete("/admin-delete-comment/{commentId}", h.ModeratorDelete)
		})
	}
}
