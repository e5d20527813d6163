package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pantau/pantau/internal/api/middleware"
	"github.com/pantau/pantau/internal/api/request"
	"github.com/pantau/pantau/internal/api/response"
	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/files"
	"github.com/pantau/pantau/internal/service"
	"github.com/pantau/pantau/internal/web"
)

const staffListPath = "/laporan"

// StaffHandler serves the staff report pages under /laporan.
type StaffHandler struct {
	Pages
	staff *service.StaffService
	files *files.Store
}

// NewStaffHandler creates a new StaffHandler.
func NewStaffHandler(p Pages, staff *service.StaffService, store *files.Store) *StaffHandler {
	return &StaffHandler{Pages: p, staff: staff, files: store}
}

// Routes mounts the staff report pages.
func (h *StaffHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/page/{page}", h.Page)
	r.Get("/tambah", h.CreateForm)
	r.Post("/tambah", h.Create)
	r.Get("/download/{id}", h.Download)
	r.Get("/hapus/{id}", h.Delete)
	r.Get("/edit/{id}", h.EditForm)
	r.Post("/edit/{id}", h.Update)
	r.Get("/calendar", h.Calendar)
	r.Get("/api/calendar-data", h.CalendarData)
	r.Post("/download-zip", h.DownloadZip)
	r.Get("/export.xlsx", h.Export)
}

type staffListView struct {
	web.Base
	Reports    []*domain.StaffReport
	Pager      request.Pager
	Leaders    []*domain.Leader
	Filter     service.StaffListInput
	FilterInfo string
	Limits     []int
	ExportURL  string
}

type staffFormView struct {
	web.Base
	Report     *domain.StaffReport
	Input      service.StaffInput
	Leaders    []*domain.Leader
	MediaTypes []*domain.MediaType
	Error      string
}

type calendarView struct {
	web.Base
	Leaders []*domain.Leader
}

// List handles GET /laporan. A page past the end redirects to the first
// page.
func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	in := request.ParseStaffList(r)
	list, err := h.staff.List(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list.TotalPages > 0 && in.Page.Number > list.TotalPages {
		http.Redirect(w, r, staffListPath, http.StatusFound)
		return
	}
	h.Views.Render(w, http.StatusOK, "laporan/index", staffListView{
		Base:       h.base(r, "Laporan Staff", "laporan"),
		Reports:    list.Reports,
		Pager:      request.NewPager(r, request.StaffFilterKeys, in.Page, list.Total),
		Leaders:    list.Leaders,
		Filter:     in,
		FilterInfo: list.FilterInfo,
		Limits:     service.StaffLimits,
		ExportURL:  request.PageURL(staffListPath+"/export.xlsx", r.URL.Query(), request.StaffFilterKeys, 1),
	})
}

// Page handles GET /laporan/page/{page}.
func (h *StaffHandler) Page(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil || page < 1 {
		page = 1
	}
	http.Redirect(w, r, request.PageURL(staffListPath, r.URL.Query(), request.StaffFilterKeys, page), http.StatusFound)
}

func (h *StaffHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, rep *domain.StaffReport, in service.StaffInput, errMsg string) {
	leaders, err := h.staff.Leaders(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	media, err := h.staff.MediaTypes(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	title := "Tambah Laporan Staff"
	if rep != nil {
		title = "Edit Laporan Staff"
	}
	h.Views.Render(w, status, "laporan/form", staffFormView{
		Base:       h.base(r, title, "laporan"),
		Report:     rep,
		Input:      in,
		Leaders:    leaders,
		MediaTypes: media,
		Error:      errMsg,
	})
}

// CreateForm handles GET /laporan/tambah.
func (h *StaffHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	var in service.StaffInput
	if t, err := strconv.Atoi(r.URL.Query().Get("jenis")); err == nil {
		in.Type = domain.StaffReportType(t)
	}
	h.renderForm(w, r, http.StatusOK, nil, in, "")
}

func typeQuery(t domain.StaffReportType) string {
	if !t.IsValid() {
		return staffListPath
	}
	return staffListPath + "?jenis=" + strconv.Itoa(int(t))
}

// Create handles POST /laporan/tambah.
func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(r); err != nil {
		h.fail(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	in := request.StaffForm(r)
	rep, err := h.staff.Create(r.Context(), in, request.StaffUpload(r), middleware.Actor(r))
	if err != nil {
		if msg := validationMessage(err); msg != "" {
			h.renderForm(w, r, http.StatusBadRequest, nil, in, msg)
			return
		}
		h.fail(w, r, err)
		return
	}
	h.redirect(w, r, flashSuccess, "Laporan berhasil ditambahkan", typeQuery(rep.Type))
}

// Download handles GET /laporan/download/{id}.
func (h *StaffHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(r, "id", "ID laporan tidak valid.")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	a, err := h.staff.Download(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := serveAttachment(w, r, h.files, a); err != nil {
		h.fail(w, r, err)
	}
}

// Delete handles GET /laporan/hapus/{id}.
func (h *StaffHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(r, "id", "ID laporan tidak valid.")
	if err != nil {
		h.redirect(w, r, flashError, err.Error(), staffListPath)
		return
	}
	if err := h.staff.Delete(r.Context(), id, middleware.Actor(r)); err != nil {
		if domain.IsCode(err, domain.ErrCodeNotFound) {
			h.redirect(w, r, flashError, err.Error(), staffListPath)
			return
		}
		h.fail(w, r, err)
		return
	}
	h.redirect(w, r, flashSuccess, "Laporan berhasil dihapus", staffListPath)
}

func staffInputOf(rep *domain.StaffReport) service.StaffInput {
	in := service.StaffInput{
		Type:        rep.Type,
		LeaderID:    rep.LeaderID,
		MediaTypeID: rep.MediaTypeID,
		Date:        domain.FormatDatePtr(rep.Date),
		Title:       rep.Title,
	}
	if rep.Body != nil {
		in.Body = *rep.Body
	}
	return in
}

// EditForm handles GET /laporan/edit/{id}.
func (h *StaffHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(r, "id", "ID laporan tidak valid.")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rep, err := h.staff.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderForm(w, r, http.StatusOK, rep, staffInputOf(rep), "")
}

// Update handles POST /laporan/edit/{id}. Edits that change nothing
// redirect without writing.
func (h *StaffHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(r, "id", "ID laporan tidak valid.")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := parseMultipart(r); err != nil {
		h.fail(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	in := request.StaffForm(r)
	rep, changed, err := h.staff.Update(r.Context(), id, in, request.StaffUpload(r), middleware.Actor(r))
	if err != nil {
		if msg := validationMessage(err); msg != "" {
			current, getErr := h.staff.Get(r.Context(), id)
			if getErr != nil {
				h.fail(w, r, getErr)
				return
			}
			h.renderForm(w, r, http.StatusBadRequest, current, in, msg)
			return
		}
		h.fail(w, r, err)
		return
	}
	if !changed {
		h.redirect(w, r, flashSuccess, "Tidak ada perubahan data.", staffListPath)
		return
	}
	h.redirect(w, r, flashSuccess, "Laporan berhasil diupdate", typeQuery(rep.Type))
}

// Calendar handles GET /laporan/calendar.
func (h *StaffHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	leaders, err := h.staff.Leaders(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.Views.Render(w, http.StatusOK, "laporan/calendar", calendarView{
		Base:    h.base(r, "Kalender Laporan", "calendar"),
		Leaders: leaders,
	})
}

type calendarData struct {
	Dates []service.CalendarDay `json:"dates"`
}

// CalendarData handles GET /laporan/api/calendar-data.
func (h *StaffHandler) CalendarData(w http.ResponseWriter, r *http.Request) {
	t, leaderID, year, month := request.ParseCalendar(r)
	days, err := h.staff.Calendar(r.Context(), t, leaderID, year, month)
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	if days == nil {
		days = []service.CalendarDay{}
	}
	response.OK(w, calendarData{Dates: days})
}

// DownloadZip handles POST /laporan/download-zip.
func (h *StaffHandler) DownloadZip(w http.ResponseWriter, r *http.Request) {
	archive, err := h.staff.StaffArchive(r.Context(), request.ZipForm(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := serveArchive(w, h.Logger, archive); err != nil {
		h.fail(w, r, err)
	}
}

// Export handles GET /laporan/export.xlsx with the filters of the list.
func (h *StaffHandler) Export(w http.ResponseWriter, r *http.Request) {
	in := request.ParseStaffList(r)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", attachmentDisposition("laporan-staff.xlsx"))
	if err := h.staff.Export(r.Context(), in, w); err != nil {
		w.Header().Del("Content-Disposition")
		h.fail(w, r, err)
	}
}
