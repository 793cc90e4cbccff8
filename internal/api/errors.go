package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"

	"github.com/laserworks/workshop-service/internal/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Message string              `json:"message"`
	Detail  string              `json:"detail,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// RespondJSON writes v as JSON with the given status
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// NoContent writes an empty 204 response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// DecodeJSON decodes the request body into v. Malformed bodies come back as
// a validation error.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		var terr *json.UnmarshalTypeError
		if errors.As(err, &terr) && terr.Field != "" {
			return models.NewValidationError(terr.Field, typeMessage(terr.Type))
		}
		if errors.Is(err, io.EOF) {
			return models.NewValidationError(models.NonFieldErrors, "Request body is empty.")
		}
		return models.NewValidationError(models.NonFieldErrors, fmt.Sprintf("Invalid request body: %v", err))
	}
	return nil
}

func typeMessage(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "Not a valid string."
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "A valid integer is required."
	case reflect.Bool:
		return "Must be a valid boolean."
	}
	return "Incorrect type."
}

// WriteError maps an error kind onto a status code and the uniform body
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorResponse(err)

	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
	}

	RespondJSON(w, status, body)
}

func errorResponse(err error) (int, ErrorResponse) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, ErrorResponse{
			Message: verr.Error(),
			Errors:  verr.Fields,
		}
	}

	var detail string
	var derr *models.DetailError
	if errors.As(err, &derr) {
		detail = derr.Detail
	}

	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorResponse{Message: "Invalid credentials", Detail: detail}
	case errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized, ErrorResponse{Message: "Authentication credentials were not provided or are invalid.", Detail: detail}
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, ErrorResponse{Message: "You do not have permission to perform this action.", Detail: detail}
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Message: "Not found.", Detail: detail}
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, ErrorResponse{Message: "Conflict.", Detail: detail}
	}

	return http.StatusInternalServerError, ErrorResponse{Message: "An unexpected error occurred."}
}
