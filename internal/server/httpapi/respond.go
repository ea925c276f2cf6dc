package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"cryptora/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			s.logger.Error(context.Background(), "error encoding response", "error", err.Error())
		}
	}
}

// writeError maps a service error onto an HTTP status and a deliberately
// terse body. Cross-account access and expired links are folded into plain
// not-found, and the unauthorized body never says why.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request"})
	case errors.Is(err, common.ErrorUnauthorized):
		s.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	case errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrorForbidden),
		errors.Is(err, common.ErrorExpired):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, common.ErrorConflict):
		s.writeJSON(w, http.StatusConflict, errorResponse{Error: "conflict"})
	case errors.Is(err, common.ErrorAlreadyExists):
		s.writeJSON(w, http.StatusConflict, errorResponse{Error: "already exists"})
	case errors.Is(err, common.ErrorDecryption):
		s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "decryption failed"})
	default:
		s.logger.Error(r.Context(), "internal error", "path", r.URL.Path, "error", err.Error())
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return common.ErrorValidation
	}
	return nil
}
