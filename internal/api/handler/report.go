package handler

import (
	"net/http"

	"github.com/laserworks/workshop-service/internal/api"
	"github.com/laserworks/workshop-service/internal/middleware"
	"github.com/laserworks/workshop-service/internal/service"
)

// ReportHandler serves the manager reports
type ReportHandler struct {
	reportService *service.ReportService
}

func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Daily handles GET /api/reports/daily?date=YYYY-MM-DD
func (h *ReportHandler) Daily(w http.ResponseWriter, r *http.Request) {
	report, err := h.reportService.Daily(r.Context(), middleware.GetUser(r.Context()), r.URL.Query().Get("date"))
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, report)
}

// Monthly handles GET /api/reports/monthly?year=&month=
func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := h.reportService.Monthly(r.Context(), middleware.GetUser(r.Context()), q.Get("year"), q.Get("month"))
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, report)
}
