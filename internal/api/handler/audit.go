package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pantau/pantau/internal/api/request"
	"github.com/pantau/pantau/internal/api/response"
	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/service"
)

// AuditHandler handles audit log operations.
type AuditHandler struct {
	audit *service.AuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// History handles GET /api/audit/{entity}/{id}.
func (h *AuditHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(r, "id", "ID tidak valid")
	if err != nil {
		response.Error(w, err)
		return
	}

	entries, err := h.audit.History(r.Context(), chi.URLParam(r, "entity"), id)
	if err != nil {
		response.Error(w, err)
		return
	}

	if entries == nil {
		entries = []*domain.AuditEntry{}
	}

	response.OK(w, entries)
}

// QueryAuditLog handles GET /api/audit.
func (h *AuditHandler) QueryAuditLog(w http.ResponseWriter, r *http.Request) {
	input := request.ParseAuditQuery(r)

	entries, total, err := h.audit.Query(r.Context(), input)
	if err != nil {
		response.Error(w, err)
		return
	}

	if entries == nil {
		entries = []*domain.AuditEntry{}
	}

	response.Paginated(w, entries, input.Page.Number, input.Page.Limit, total)
}
