package request

import (
	"net/http"
	"strings"

	"github.com/pantau/pantau/internal/service"
	"github.com/pantau/pantau/internal/store/listquery"
)

// ParseAuditQuery extracts audit query parameters from the request.
func ParseAuditQuery(r *http.Request) service.QueryInput {
	q := r.URL.Query()
	p := ParsePagination(r)
	return service.QueryInput{
		Entity:    strings.TrimSpace(q.Get("entity")),
		Action:    strings.TrimSpace(q.Get("action")),
		ChangedBy: strings.TrimSpace(q.Get("changed_by")),
		Page:      listquery.Page{Number: p.Page, Limit: p.PerPage},
	}
}
