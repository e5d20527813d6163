package request

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/pantau/pantau/internal/store/listquery"
)

// pageWindow is how many page links are shown on each side of the current
// page.
const pageWindow = 2

// PageLink is one numbered link of a pager.
type PageLink struct {
	Number  int
	URL     string
	Current bool
}

// Pager is the pagination block of a list page. URLs keep the active
// filters and are empty when the target does not exist.
type Pager struct {
	Page       int
	TotalPages int
	Total      int
	Start      int
	End        int
	FirstURL   string
	PrevURL    string
	NextURL    string
	LastURL    string
	Links      []PageLink
}

// NewPager builds the pager of r's list, keeping the filter parameters
// named by keys.
func NewPager(r *http.Request, keys []string, page listquery.Page, total int) Pager {
	p := Pager{Page: page.Number, TotalPages: page.TotalPages(total), Total: total}
	if total > 0 {
		p.Start = page.Offset() + 1
		p.End = page.Offset() + page.Limit
		if page.Limit < 1 || p.End > total {
			p.End = total
		}
	}

	link := func(n int) string { return PageURL(r.URL.Path, r.URL.Query(), keys, n) }
	if p.Page > 1 {
		p.FirstURL = link(1)
		p.PrevURL = link(p.Page - 1)
	}
	if p.Page < p.TotalPages {
		p.NextURL = link(p.Page + 1)
		p.LastURL = link(p.TotalPages)
	}
	for n := max(1, p.Page-pageWindow); n <= min(p.TotalPages, p.Page+pageWindow); n++ {
		p.Links = append(p.Links, PageLink{Number: n, URL: link(n), Current: n == p.Page})
	}
	return p
}

// PageURL returns path with the non-empty filters of q named by keys and
// the page number.
func PageURL(path string, q url.Values, keys []string, page int) string {
	out := url.Values{}
	for _, k := range keys {
		for _, name := range []string{k, k + "[]"} {
			for _, v := range q[name] {
				if v != "" {
					out.Add(name, v)
				}
			}
		}
	}
	out.Set("page", strconv.Itoa(page))
	return path + "?" + out.Encode()
}
