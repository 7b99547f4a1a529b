package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"fitting-console/core/models"

	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// statusFor maps an error to the HTTP status the console answers with
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrSuperseded):
		return http.StatusConflict
	case models.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case models.IsRemote(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the FastAPI style {"detail": "..."} body the
// fitting service uses, so clients parse one error shape
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request failed")
	} else {
		log.Debug().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request rejected")
	}
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return models.NewValidationError("body", "invalid request body: %v", err)
	}
	return nil
}

// validationFrom reports a parse failure as a validation error of field
func validationFrom(field string, err error) error {
	if models.IsValidation(err) {
		return err
	}
	return models.NewValidationError(field, "%v", err)
}
