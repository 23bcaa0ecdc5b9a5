package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/matheodrd/httphelper/handler"

	"supmap-playback/internal/locations"
	"supmap-playback/internal/playback"
	"supmap-playback/internal/routes"
)

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return handler.NewErrWithStatus(http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
	}
	return nil
}

// httpError maps domain errors onto HTTP statuses. Unknown errors are
// logged and hidden behind a 500.
func (s *Server) httpError(r *http.Request, err error) error {
	switch {
	case errors.Is(err, locations.ErrValidation),
		errors.Is(err, playback.ErrInvalidPath),
		errors.Is(err, routes.ErrInvalidRoute):
		return handler.NewErrWithStatus(http.StatusBadRequest, err)
	case errors.Is(err, locations.ErrNotFound),
		errors.Is(err, routes.ErrNotFound):
		return handler.NewErrWithStatus(http.StatusNotFound, err)
	case errors.Is(err, playback.ErrNotLoaded):
		return handler.NewErrWithStatus(http.StatusConflict, err)
	}

	s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	return handler.NewErrWithStatus(http.StatusInternalServerError, errors.New("internal server error"))
}
