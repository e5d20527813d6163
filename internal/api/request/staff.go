package request

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/service"
	"github.com/pantau/pantau/internal/store/listquery"
)

// StaffFilterKeys lists the query parameters the staff list keeps across
// pages.
var StaffFilterKeys = []string{"search_judul", "search_isi", "pimpinan", "jenis", "tanggal_dari", "tanggal_sampai", "limit"}

// StaffLimit returns limit when it is one of the offered page sizes and
// the default otherwise.
func StaffLimit(limit string) int {
	v, err := strconv.Atoi(strings.TrimSpace(limit))
	if err != nil {
		return service.DefaultStaffLimit
	}
	for _, allowed := range service.StaffLimits {
		if v == allowed {
			return v
		}
	}
	return service.DefaultStaffLimit
}

// ParseStaffList reads the staff list filters.
func ParseStaffList(r *http.Request) service.StaffListInput {
	q := r.URL.Query()
	in := service.StaffListInput{
		SearchTitle: strings.TrimSpace(q.Get("search_judul")),
		SearchBody:  strings.TrimSpace(q.Get("search_isi")),
		LeaderID:    optionalID(q.Get("pimpinan")),
		DateFrom:    strings.TrimSpace(q.Get("tanggal_dari")),
		DateTo:      strings.TrimSpace(q.Get("tanggal_sampai")),
		Page:        listquery.Page{Number: positiveInt(q.Get("page"), DefaultPage), Limit: StaffLimit(q.Get("limit"))},
	}
	if t := domain.StaffReportType(positiveInt(q.Get("jenis"), 0)); t.IsValid() {
		in.Type = t
	}
	return in
}

// StaffForm reads the fields of the staff create and edit forms.
func StaffForm(r *http.Request) service.StaffInput {
	return service.StaffInput{
		Type:        domain.StaffReportType(positiveInt(r.FormValue("jenis_laporan"), 0)),
		LeaderID:    optionalID(r.FormValue("id_pimpinan")),
		MediaTypeID: optionalID(r.FormValue("id_jenis")),
		Date:        strings.TrimSpace(r.FormValue("tanggal_laporan")),
		Title:       r.FormValue("judul"),
		Body:        r.FormValue("isi_laporan"),
	}
}

// StaffUpload returns the file posted as file_upload, or nil.
func StaffUpload(r *http.Request) *service.Upload {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File["file_upload"]
	if len(files) == 0 || files[0].Filename == "" {
		return nil
	}
	u := service.UploadFromHeader(files[0])
	return &u
}

// ParseCalendar reads jenis_laporan, id_pimpinan, year and month.
func ParseCalendar(r *http.Request) (t domain.StaffReportType, leaderID *int64, year, month int) {
	q := r.URL.Query()
	t = domain.StaffReportType(positiveInt(q.Get("jenis_laporan"), 0))
	leaderID = optionalID(q.Get("id_pimpinan"))
	year = positiveInt(q.Get("year"), 0)
	month = positiveInt(q.Get("month"), 0)
	return t, leaderID, year, month
}

// ZipForm reads the download-zip form.
func ZipForm(r *http.Request) service.ZipRequest {
	return service.ZipRequest{
		Type:      domain.StaffReportType(positiveInt(r.FormValue("jenis_laporan"), 0)),
		LeaderID:  optionalID(r.FormValue("id_pimpinan")),
		Year:      strings.TrimSpace(r.FormValue("year")),
		Month:     strings.TrimSpace(r.FormValue("month")),
		Day:       strings.TrimSpace(r.FormValue("day")),
		StartDate: strings.TrimSpace(r.FormValue("startDate")),
		EndDate:   strings.TrimSpace(r.FormValue("endDate")),
	}
}
