package handler

import (
	"net/http"

	"github.com/laserworks/workshop-service/internal/api"
	"github.com/laserworks/workshop-service/internal/middleware"
	"github.com/laserworks/workshop-service/internal/models"
	"github.com/laserworks/workshop-service/internal/service"
)

// UserHandler handles the manager's user administration
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// List lists every user except the caller
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context(), middleware.GetUser(r.Context()))
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, users)
}

// Get gets a user by ID
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	user, err := h.userService.Get(r.Context(), middleware.GetUser(r.Context()), id)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, user)
}

// Update updates a user, including its role
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	var req models.UserUpdateRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, r, err)
		return
	}

	user, err := h.userService.Update(r.Context(), middleware.GetUser(r.Context()), id, req)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, user)
}

// Delete deletes a user
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	if err := h.userService.Delete(r.Context(), middleware.GetUser(r.Context()), id); err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.NoContent(w)
}
