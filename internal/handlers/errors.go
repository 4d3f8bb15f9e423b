package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"familyvault/internal/service"
	"familyvault/internal/validation"
)

const maxJSONBody = 1 << 20

// respondJSON writes a JSON response with the given status
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("Failed to encode response: %v", err)
		}
	}
}

// errorResponse is the JSON error envelope
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// respondServiceError maps a service-layer error to its HTTP status.
// Unrecognized errors are logged and reported as a plain 500; internal
// detail never leaks to the client.
func respondServiceError(w http.ResponseWriter, err error) {
	var verr validation.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Message, Field: verr.Field})
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrSessionExpired):
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrForbidden):
		respondJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrFamilyNameTaken),
		errors.Is(err, service.ErrDuplicateMember):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidInvitation):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		log.Printf("Internal error: %v", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: ErrInternalServerError})
	}
}

// decodeJSON reads a size-limited JSON request body into v
func decodeJSON(r *http.Request, v interface{}) error {
	defer io.Copy(io.Discard, r.Body)
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
