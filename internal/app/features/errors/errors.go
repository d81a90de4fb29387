// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/clubbera/internal/app/system/respond"
	"go.uber.org/zap"
)

const (
	MsgNotFound         = "Not found"
	MsgMethodNotAllowed = "Method not allowed"
)

// Handler answers requests the router cannot match. Bodies use the same
// {"error": ...} shape as every other failure.
type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

// NotFound is installed as the router's 404 handler.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.Log.Debug("no route", zap.String("method", r.Method), zap.String("path", r.URL.Path))
	respond.Error(w, http.StatusNotFound, MsgNotFound)
}

// MethodNotAllowed is installed as the router's 405 handler.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respond.Error(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
}
