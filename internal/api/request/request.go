package request

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/multivalue"
	"github.com/pantau/pantau/internal/store/listquery"
)

// DecodeJSON decodes JSON from request body into the given value.
func DecodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// ParseID reads a positive integer URL parameter. message is the
// validation message used when it is malformed.
func ParseID(r *http.Request, name, message string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError([]string{message})
	}
	return id, nil
}

// Pagination contains pagination parameters.
type Pagination struct {
	Page    int
	PerPage int
}

// DefaultPage is the default page number.
const DefaultPage = 1

// DefaultPerPage is the default items per page of the JSON API.
const DefaultPerPage = 50

// MaxPerPage is the maximum items per page.
const MaxPerPage = 100

// ParsePagination extracts page and per_page from query parameters.
func ParsePagination(r *http.Request) Pagination {
	page := positiveInt(r.URL.Query().Get("page"), DefaultPage)
	perPage := positiveInt(r.URL.Query().Get("per_page"), DefaultPerPage)
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Pagination{Page: page, PerPage: perPage}
}

// ListPage reads page and limit, falling back to defaultLimit and capping
// the limit at MaxPerPage.
func ListPage(r *http.Request, defaultLimit int) listquery.Page {
	q := r.URL.Query()
	limit := positiveInt(q.Get("limit"), defaultLimit)
	if limit > MaxPerPage {
		limit = MaxPerPage
	}
	return listquery.NewPage(positiveInt(q.Get("page"), DefaultPage), limit, defaultLimit)
}

func positiveInt(s string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

// optionalID parses s as a positive ID, returning nil otherwise.
func optionalID(s string) *int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

// Values returns every value of a repeated field, accepting both the
// name[] and name spellings.
func Values(form map[string][]string, name string) []string {
	out := append([]string(nil), form[name+"[]"]...)
	return append(out, form[name]...)
}

// IDs decodes a repeated ID field whose values may each be a JSON array,
// a comma separated list or a scalar.
func IDs(form map[string][]string, name string) []int64 {
	return multivalue.IDsFromValues(Values(form, name))
}
