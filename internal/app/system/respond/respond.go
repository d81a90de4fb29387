// Package respond writes JSON responses and maps errors to status codes.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/clubbera/internal/app/system/apperr"
	"go.uber.org/zap"
)

// ServerErrorMsg is the only message a caller sees for unexpected failures.
const ServerErrorMsg = "Server error"

// MsgBodyTooLarge is returned when a body exceeds the router's size cap.
const MsgBodyTooLarge = "Request body is too large"

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes v with 200.
func OK(w http.ResponseWriter, v any) { JSON(w, http.StatusOK, v) }

// Created writes v with 201.
func Created(w http.ResponseWriter, v any) { JSON(w, http.StatusCreated, v) }

// Message writes {"message": msg} with 200.
func Message(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusOK, map[string]string{"message": msg})
}

// Error writes {"error": msg} with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"error": msg})
}

// StatusFor maps an apperr.Kind to its HTTP status.
// Conflicts are reported as 400 to keep existing clients working.
func StatusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation, apperr.KindConflict:
		return http.StatusBadRequest
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Err writes err to the client. *apperr.Error values keep their message;
// anything else is logged and reported as a generic server error.
func Err(w http.ResponseWriter, log *zap.Logger, err error, msg string, fields ...zap.Field) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		Error(w, StatusFor(ae.Kind), ae.Msg)
		return
	}
	if log != nil {
		log.Error(msg, append(fields, zap.Error(err))...)
	}
	Error(w, http.StatusInternalServerError, ServerErrorMsg)
}

// DecodeJSON reads a JSON request body into dst. Unknown fields are allowed;
// whitelisting is done by the caller where it matters.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperr.Validation("Request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return apperr.Validation(MsgBodyTooLarge)
		}
		return apperr.Validation("Invalid JSON body")
	}
	return nil
}
