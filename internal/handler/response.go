package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"wedding-rsvp/internal/auth"
	"wedding-rsvp/internal/rsvp"
	"wedding-rsvp/internal/storage"
)

const internalErrorMessage = "Something went wrong. Please try again."

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: message})
}

// statusFor maps service errors to an HTTP status and a message that is safe
// to return to the client
func statusFor(err error) (int, string) {
	switch {
	case rsvp.IsValidationError(err),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, auth.ErrAccountExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, rsvp.ErrNoPrimaryEvent):
		return http.StatusNotFound, err.Error()
	}
	return http.StatusInternalServerError, internalErrorMessage
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		return &rsvp.ValidationError{Message: "invalid request body"}
	}
	return nil
}
