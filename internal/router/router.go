package router

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/laserworks/workshop-service/internal/api"
	"github.com/laserworks/workshop-service/internal/api/handler"
	"github.com/laserworks/workshop-service/internal/middleware"
	"github.com/laserworks/workshop-service/internal/models"
	"github.com/laserworks/workshop-service/internal/service"
	"github.com/laserworks/workshop-service/internal/websockets"
)

// Services bundles everything the HTTP surface talks to
type Services struct {
	Auth   *service.AuthService
	Users  *service.UserService
	Orders *service.OrderService
	Shifts *service.ShiftService
	Report *service.ReportService
	Hub    *websockets.Hub

	// AllowedOrigins restricts WebSocket origins; empty allows all
	AllowedOrigins []string
	// Health reports storage health for /healthz, nil means always healthy
	Health func(ctx context.Context) error
}

// Router handles HTTP routing
type Router struct {
	mux     *http.ServeMux
	handler http.Handler
}

// New creates a new router
func New(s Services, log zerolog.Logger) *Router {
	r := &Router{
		mux: http.NewServeMux(),
	}

	r.setupRoutes(s)
	r.handler = middleware.Logger(log)(r.mux)

	return r
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

func (r *Router) setupRoutes(s Services) {
	authH := handler.NewAuthHandler(s.Auth)
	userH := handler.NewUserHandler(s.Users)
	orderH := handler.NewOrderHandler(s.Orders)
	shiftH := handler.NewShiftHandler(s.Shifts)
	reportH := handler.NewReportHandler(s.Report)
	wsH := handler.NewWebSocketHandler(s.Hub, s.Auth, s.AllowedOrigins)

	authed := middleware.Auth(s.Auth)
	manager := func(h http.HandlerFunc) http.Handler {
		return authed(middleware.RequireRole(models.RoleManager)(h))
	}
	user := func(h http.HandlerFunc) http.Handler {
		return authed(h)
	}

	// Public routes
	r.mux.HandleFunc("POST /api/auth/register", authH.Register)
	r.mux.HandleFunc("POST /api/auth/login", authH.Login)
	r.mux.HandleFunc("POST /api/auth/token/refresh", authH.Refresh)
	r.mux.HandleFunc("GET /api/orders/{id}/track", orderH.Track)
	r.mux.HandleFunc("GET /api/showcase", orderH.Showcase)
	r.mux.Handle("GET /ws/orders", wsH)
	r.mux.HandleFunc("GET /healthz", health(s.Health))

	// Account
	r.mux.Handle("GET /api/auth/me", user(authH.Me))
	r.mux.Handle("PUT /api/auth/me/password", user(authH.ChangePassword))
	r.mux.Handle("GET /api/auth/users", manager(userH.List))
	r.mux.Handle("GET /api/auth/users/{id}", manager(userH.Get))
	r.mux.Handle("PATCH /api/auth/users/{id}", manager(userH.Update))
	r.mux.Handle("DELETE /api/auth/users/{id}", manager(userH.Delete))

	// Orders
	r.mux.Handle("GET /api/orders", user(orderH.List))
	r.mux.Handle("POST /api/orders", user(orderH.Create))
	r.mux.Handle("GET /api/orders/statistics", manager(orderH.Statistics))
	r.mux.Handle("GET /api/orders/{id}", user(orderH.Get))
	r.mux.Handle("PUT /api/orders/{id}", user(orderH.Update))
	r.mux.Handle("PATCH /api/orders/{id}", user(orderH.Update))
	r.mux.Handle("PATCH /api/orders/{id}/status", user(orderH.UpdateStatus))
	r.mux.Handle("DELETE /api/orders/{id}", manager(orderH.Delete))

	// Shifts
	r.mux.Handle("GET /api/shifts", manager(shiftH.List))
	r.mux.Handle("GET /api/shifts/current", user(shiftH.Current))
	r.mux.Handle("POST /api/shifts/open_new", manager(shiftH.OpenNew))
	r.mux.Handle("GET /api/shifts/{id}", manager(shiftH.Get))
	r.mux.Handle("POST /api/shifts/{id}/close", manager(shiftH.Close))
	r.mux.Handle("GET /api/shifts/{id}/delivered_orders", manager(shiftH.DeliveredOrders))

	// Reports
	r.mux.Handle("GET /api/reports/daily", manager(reportH.Daily))
	r.mux.Handle("GET /api/reports/monthly", manager(reportH.Monthly))
}

func health(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				zerolog.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
				api.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		api.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
