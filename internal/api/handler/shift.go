package handler

import (
	"net/http"

	"github.com/laserworks/workshop-service/internal/api"
	"github.com/laserworks/workshop-service/internal/middleware"
	"github.com/laserworks/workshop-service/internal/service"
)

// ShiftHandler handles shift requests
type ShiftHandler struct {
	shiftService *service.ShiftService
}

func NewShiftHandler(shiftService *service.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftService: shiftService}
}

func (h *ShiftHandler) List(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.shiftService.List(r.Context(), middleware.GetUser(r.Context()))
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, shifts)
}

func (h *ShiftHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	shift, err := h.shiftService.Get(r.Context(), middleware.GetUser(r.Context()), id)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, shift)
}

// Current returns the active shift with live totals
func (h *ShiftHandler) Current(w http.ResponseWriter, r *http.Request) {
	shift, err := h.shiftService.Current(r.Context(), middleware.GetUser(r.Context()))
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, shift)
}

// Close closes a shift and returns the frozen totals
func (h *ShiftHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	result, err := h.shiftService.Close(r.Context(), middleware.GetUser(r.Context()), id)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, result)
}

// OpenNew closes any active shift and opens a new one
func (h *ShiftHandler) OpenNew(w http.ResponseWriter, r *http.Request) {
	shift, err := h.shiftService.OpenNew(r.Context(), middleware.GetUser(r.Context()))
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusCreated, shift)
}

func (h *ShiftHandler) DeliveredOrders(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	orders, err := h.shiftService.DeliveredOrders(r.Context(), middleware.GetUser(r.Context()), id)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, orders)
}
