package handler

import (
	"database/sql"
	"net/http"

	"github.com/pantau/pantau/internal/api/response"
	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/service"
	"github.com/pantau/pantau/internal/web"
)

// SystemHandler handles health checks.
type SystemHandler struct {
	db *sql.DB
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(db *sql.DB) *SystemHandler {
	return &SystemHandler{db: db}
}

// Health handles GET /healthz.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		response.Error(w, domain.NewInternalError(err))
		return
	}
	response.OK(w, map[string]string{"status": "ok"})
}

// DashboardHandler renders the landing page.
type DashboardHandler struct {
	Pages
	dashboard *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(p Pages, dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{Pages: p, dashboard: dashboard}
}

type dashboardView struct {
	web.Base
	Counts *service.DashboardCounts
}

// Home handles GET /beranda.
func (h *DashboardHandler) Home(w http.ResponseWriter, r *http.Request) {
	counts, err := h.dashboard.Counts(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.Views.Render(w, http.StatusOK, "beranda", dashboardView{
		Base:   h.base(r, "Beranda", "beranda"),
		Counts: counts,
	})
}
