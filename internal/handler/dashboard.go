package handler

import (
	"net/http"

	"github.com/segyhp/loan-manager/internal/service"
	"github.com/segyhp/loan-manager/pkg/response"
)

type DashboardHandler struct {
	dashboard *service.DashboardService
}

func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

func (h *DashboardHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	result, err := h.dashboard.Metrics(r.Context(), actorFrom(r))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, result)
}

// Upcoming handles GET /dashboard/upcoming?days=
func (h *DashboardHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days")
	if err != nil {
		response.FromError(w, err)
		return
	}

	items, err := h.dashboard.Upcoming(r.Context(), actorFrom(r), days)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, items)
}

func (h *DashboardHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	items, err := h.dashboard.Overdue(r.Context(), actorFrom(r))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, items)
}

// Calendar handles GET /dashboard/calendar?month=YYYY-MM
func (h *DashboardHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	days, err := h.dashboard.Calendar(r.Context(), actorFrom(r), r.URL.Query().Get("month"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, days)
}

func (h *DashboardHandler) TopClients(w http.ResponseWriter, r *http.Request) {
	result, err := h.dashboard.TopClients(r.Context(), actorFrom(r))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, result)
}
