// internal/app/features/groups/routes.go
package groups

import (
	"github.com/dalemusser/clubbera/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes registers the group endpoints. {group} accepts an id or a uniqueURL.
func Routes(h *Handler, gate *auth.Gate) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/groups/{uniqueURL}/members", h.Members)
		r.Get("/groups/{uniqueURL}/events", h.Events)

		r.With(gate.Optional).Get("/groups/{uniqueURL}", h.Detail)

		r.Group(func(r chi.Router) {
			r.Use(gate.Required)
			r.Get("/groups/{uniqueURL}/requests", h.Requests)
			r.Get("/groups/{uniqueURL}/banned", h.Banned)

			r.Post("/group", h.Create)
			r.Post("/creategroup", h.Create)
			r.Patch("/group/{group}/edit", h.Edit)
			r.Patch("/group/{group}/changebanner", h.ChangeBanner)
			r.Delete("/group/{group}", h.Delete)

			r.Post("/group/{group}/join", h.Join)
			r.Post("/group/{group}/leave", h.Leave)
			r.Post("/group/{group}/accept-moderator", h.AcceptModerator)
			r.Post("/group/{group}/reject-moderator", h.RejectModerator)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireEmailConfirmed)
				r.Post("/group/{group}/accept-request/{userId}", h.AcceptRequest)
				r.Post("/group/{group}/reject-request/{userId}", h.RejectRequest)
				r.Post("/group/{group}/ban-user/{userId}", h.Ban)
				r.Post("/group/{group}/unban-user/{userId}", h.Unban)
				r.Post("/group/{group}/add-moderator/{userId}", h.AddModerator)
				r.Post("/group/{group}/remove-moderator/{userId}", h.RemoveModerator)
			})
		})
	}
}
