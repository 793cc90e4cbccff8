package handler

import (
	"net/http"

	"github.com/laserworks/workshop-service/internal/api"
	"github.com/laserworks/workshop-service/internal/middleware"
	"github.com/laserworks/workshop-service/internal/models"
	"github.com/laserworks/workshop-service/internal/service"
)

// AuthHandler handles registration, login and account self-service
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
	User    *models.User `json:"user"`
}

// Register creates a worker account
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, r, err)
		return
	}

	user, err := h.authService.Register(r.Context(), req)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusCreated, user)
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, r, err)
		return
	}

	tokens, user, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, LoginResponse{
		Access:  tokens.Access,
		Refresh: tokens.Refresh,
		User:    user,
	})
}

// Refresh exchanges a refresh token for a new access token
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, r, err)
		return
	}
	if req.Refresh == "" {
		api.WriteError(w, r, models.NewValidationError("refresh", "This field is required."))
		return
	}

	access, err := h.authService.Refresh(r.Context(), req.Refresh)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, map[string]string{"access": access})
}

// Me returns the authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Me(r.Context(), middleware.GetUser(r.Context()))
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, user)
}

// ChangePassword changes the current user's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, r, err)
		return
	}

	err := h.authService.ChangePassword(r.Context(), middleware.GetUser(r.Context()), req.OldPassword, req.NewPassword)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}
