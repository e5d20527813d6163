package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pantau/pantau/internal/api/request"
	"github.com/pantau/pantau/internal/api/response"
	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/service"
	"github.com/pantau/pantau/internal/web"
)

// MonitoringHandler serves the read-only highlight pages of the boards.
type MonitoringHandler struct {
	Pages
	issues *service.IssueService
}

// NewMonitoringHandler creates a new MonitoringHandler.
func NewMonitoringHandler(p Pages, issues *service.IssueService) *MonitoringHandler {
	return &MonitoringHandler{Pages: p, issues: issues}
}

// Routes mounts the monitoring pages of every board and the detail API.
func (h *MonitoringHandler) Routes(r chi.Router) {
	for _, kind := range domain.ValidIssueKinds {
		r.Get("/"+kind.MonitoringSlug(), h.page(kind))
	}
	r.Get("/laporan-detail/{id}", h.Detail)
}

type monitoringView struct {
	web.Base
	Kind      domain.IssueKind
	Highlight *service.MonitoringItem
	Items     []*service.MonitoringItem
	Pager     request.Pager
	Filter    service.IssueListInput
	Agencies  []*domain.Agency
}

// page renders the monitoring page of kind. The first report of the page
// is the highlight and the rest are listed as cards.
func (h *MonitoringHandler) page(kind domain.IssueKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := request.ParseMonitoring(r, kind)
		items, total, err := h.issues.Monitoring(r.Context(), in)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		agencies, err := h.issues.Agencies(r.Context())
		if err != nil {
			h.fail(w, r, err)
			return
		}
		view := monitoringView{
			Base:     h.base(r, "Monitoring "+kind.Title(), "highlight"),
			Kind:     kind,
			Pager:    request.NewPager(r, request.MonitoringFilterKeys, in.Page, total),
			Filter:   in,
			Agencies: agencies,
		}
		if len(items) > 0 {
			view.Highlight = items[0]
			view.Items = items[1:]
		}
		h.Views.Render(w, http.StatusOK, "highlight/index", view)
	}
}

// Detail handles GET /highlight/laporan-detail/{id}.
func (h *MonitoringHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(r, "id", "ID laporan tidak valid")
	if err != nil {
		response.Fail(w, err)
		return
	}
	item, err := h.issues.Detail(r.Context(), id)
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	response.Success(w, "", item)
}
