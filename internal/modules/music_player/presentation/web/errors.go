package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sglre6355/portfolio/internal/modules/music_player/application/usecases"
)

var (
	// ErrNoSession is returned when a request carries no valid session cookie.
	ErrNoSession = errors.New("no session; open one with POST /api/session")

	// ErrBadRequest wraps malformed request bodies and parameters.
	ErrBadRequest = errors.New("bad request")

	// ErrUnknownAction is returned for player actions that do not exist.
	ErrUnknownAction = errors.New("unknown player action")
)

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, usecases.ErrSessionNotFound),
		errors.Is(err, usecases.ErrSongNotFound),
		errors.Is(err, usecases.ErrNoResults),
		errors.Is(err, ErrUnknownAction):
		return http.StatusNotFound
	case errors.Is(err, usecases.ErrMediaAttached):
		return http.StatusConflict
	case errors.Is(err, ErrNoSession),
		errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error(
			"request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		message = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: message})
}
