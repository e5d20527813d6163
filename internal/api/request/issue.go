package request

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/service"
)

// DefaultIssueLimit is the page size of an issue board.
const DefaultIssueLimit = 10

// DefaultMonitoringLimit is the page size of a monitoring page.
const DefaultMonitoringLimit = 9

// IssueFilterKeys lists the query parameters an issue board keeps across
// pages.
var IssueFilterKeys = []string{"tanggal_dari", "tanggal_sampai", "judul", "uraian", "kewenangan", "stakeholder", "limit"}

// MonitoringFilterKeys lists the query parameters a monitoring page keeps
// across pages.
var MonitoringFilterKeys = []string{"tanggal_dari", "tanggal_sampai", "search", "kewenangan", "stakeholder", "limit"}

// ParseIssueList reads the board filters of kind.
func ParseIssueList(r *http.Request, kind domain.IssueKind) service.IssueListInput {
	q := r.URL.Query()
	return service.IssueListInput{
		Kind:           kind,
		DateFrom:       strings.TrimSpace(q.Get("tanggal_dari")),
		DateTo:         strings.TrimSpace(q.Get("tanggal_sampai")),
		Title:          strings.TrimSpace(q.Get("judul")),
		Body:           strings.TrimSpace(q.Get("uraian")),
		Authority:      strings.TrimSpace(q.Get("kewenangan")),
		StakeholderIDs: IDs(q, "stakeholder"),
		Page:           ListPage(r, DefaultIssueLimit),
	}
}

// ParseMonitoring reads the monitoring filters of kind.
func ParseMonitoring(r *http.Request, kind domain.IssueKind) service.IssueListInput {
	q := r.URL.Query()
	return service.IssueListInput{
		Kind:           kind,
		DateFrom:       strings.TrimSpace(q.Get("tanggal_dari")),
		DateTo:         strings.TrimSpace(q.Get("tanggal_sampai")),
		Search:         strings.TrimSpace(q.Get("search")),
		Authority:      strings.TrimSpace(q.Get("kewenangan")),
		StakeholderIDs: IDs(q, "stakeholder"),
		Page:           ListPage(r, DefaultMonitoringLimit),
	}
}

// IssueForm reads the fields of the create and edit forms. The multipart
// form must already be parsed.
func IssueForm(r *http.Request) service.IssueInput {
	form := r.MultipartForm.Value
	return service.IssueInput{
		Title:          strings.TrimSpace(first(form, "judul")),
		Date:           strings.TrimSpace(first(form, "tanggal_laporan")),
		Body:           strings.TrimSpace(first(form, "isi_laporan")),
		Authorities:    Values(form, "kewenangan"),
		StakeholderIDs: IDs(form, "stakeholder"),
		Links:          Values(form, "links"),
	}
}

// KeepIndexes reads keep_files[], the positions of the attachments kept
// by an edit.
func KeepIndexes(r *http.Request) []int {
	var keep []int
	for _, v := range Values(r.MultipartForm.Value, "keep_files") {
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err == nil && i >= 0 {
			keep = append(keep, i)
		}
	}
	return keep
}

// Uploads returns the files posted under files[].
func Uploads(r *http.Request) []service.Upload {
	var uploads []service.Upload
	for _, key := range []string{"files[]", "files"} {
		for _, fh := range r.MultipartForm.File[key] {
			if fh.Filename == "" {
				continue
			}
			uploads = append(uploads, service.UploadFromHeader(fh))
		}
	}
	return uploads
}

func first(form map[string][]string, name string) string {
	if v := form[name]; len(v) > 0 {
		return v[0]
	}
	return ""
}
