// internal/app/features/accounts/routes.go
package accounts

import (
	"net/http"

	"github.com/dalemusser/clubbera/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes registers the account endpoints at the API root. limit guards the
// credential endpoints.
func Routes(h *Handler, gate *auth.Gate, limit func(http.Handler) http.Handler) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", h.Welcome)
		r.Get("/users/{uniqueURL}", h.PublicProfile)
		r.Get("/confirm-email/{token}", h.ConfirmEmail)

		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/signup", h.Signup)
			r.Post("/login", h.Login)
			r.Post("/password-reset", h.RequestPasswordReset)
			r.Post("/reset-password/{token}", h.ResetPassword)
		})

		r.Group(func(r chi.Router) {
			r.Use(gate.Required)
			r.Post("/logout", h.Logout)
			r.Post("/logout-all", h.LogoutAll)
			r.Post("/request-verification-email", h.RequestVerificationEmail)
			r.Get("/me", h.Me)
			r.Patch("/me/change-password", h.ChangePassword)
			r.Post("/me/profile-photo", h.UploadProfilePhoto)
			r.Patch("/edit-users-profile", h.EditProfile)
			r.Get("/find-users", h.FindUsers)
		})
	}
}
