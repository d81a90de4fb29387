package health

import "github.com/go-chi/chi/v5"

// Routes registers the liveness probe. HEAD shares the GET handler so load
// balancers can probe without reading a body.
func Routes(h *Handler) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/health", h.Serve)
		r.Head("/health", h.Serve)
	}
}
