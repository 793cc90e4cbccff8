package handler

import (
	"net/http"

	"github.com/laserworks/workshop-service/internal/api"
	"github.com/laserworks/workshop-service/internal/middleware"
	"github.com/laserworks/workshop-service/internal/models"
	"github.com/laserworks/workshop-service/internal/service"
)

// OrderHandler handles order-related requests
type OrderHandler struct {
	orderService *service.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// List lists orders, filtered by status, delivered_on, search and ordering
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orders, err := h.orderService.List(r.Context(), middleware.GetUser(r.Context()), service.OrderQuery{
		Status:      q.Get("status"),
		DeliveredOn: q.Get("delivered_on"),
		Search:      q.Get("search"),
		Ordering:    q.Get("ordering"),
	})
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, orders)
}

// Create creates a new order
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.OrderRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, r, err)
		return
	}

	order, err := h.orderService.Create(r.Context(), middleware.GetUser(r.Context()), req)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusCreated, order)
}

// Get gets an order by ID
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	order, err := h.orderService.Get(r.Context(), middleware.GetUser(r.Context()), id)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, order)
}

// Update applies a partial update. The body keys decide what a worker may do.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	var patch models.OrderPatch
	if err := api.DecodeJSON(r, &patch); err != nil {
		api.WriteError(w, r, err)
		return
	}

	order, err := h.orderService.Update(r.Context(), middleware.GetUser(r.Context()), id, patch)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, order)
}

// UpdateStatus changes only the status of an order
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, r, err)
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), middleware.GetUser(r.Context()), id, req.Status)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, order)
}

// Delete deletes an order
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	if err := h.orderService.Delete(r.Context(), middleware.GetUser(r.Context()), id); err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.NoContent(w)
}

// Track is the public order lookup
func (h *OrderHandler) Track(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	track, err := h.orderService.Track(r.Context(), id)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, track)
}

// Statistics returns order counts for managers
func (h *OrderHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	month, err := queryInt(r, "month")
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	year, err := queryInt(r, "year")
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	stats, err := h.orderService.Statistics(r.Context(), middleware.GetUser(r.Context()), month, year)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, stats)
}

// Showcase lists delivered work publicly
func (h *OrderHandler) Showcase(w http.ResponseWriter, r *http.Request) {
	items, err := h.orderService.Showcase(r.Context(), queryBool(r, "with_image"))
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, items)
}
