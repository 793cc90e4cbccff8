package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/laserworks/workshop-service/internal/models"
)

// pathID parses the {id} path parameter
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, models.NewDetailError(models.ErrNotFound, "Invalid ID")
	}
	return id, nil
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, models.NewValidationError(name, "A valid integer is required.")
	}
	return &v, nil
}

// queryBool parses an optional boolean query parameter, false when absent
func queryBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}
