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

// IssueHandler serves one issue board (isu prioritas, isu khusus or
// viralitas).
type IssueHandler struct {
	Pages
	kind   domain.IssueKind
	issues *service.IssueService
	files  *files.Store
}

// NewIssueHandler creates the handler of the board of kind.
func NewIssueHandler(p Pages, kind domain.IssueKind, issues *service.IssueService, store *files.Store) *IssueHandler {
	return &IssueHandler{Pages: p, kind: kind, issues: issues, files: store}
}

// Routes mounts the board under its slug.
func (h *IssueHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/create", h.CreateForm)
	r.Post("/store", h.Store)
	r.Get("/edit/{id}", h.EditForm)
	r.Post("/update/{id}", h.Update)
	r.Get("/delete/{id}", h.Delete)
	r.Get("/download/{id}/{fileIndex}", h.Download)
	r.Get("/download-all/{id}", h.DownloadAll)
	r.Get("/api/opd", h.SearchAgencies)
}

type issueListView struct {
	web.Base
	Kind     domain.IssueKind
	Reports  []*domain.IssueReport
	Pager    request.Pager
	Filter   service.IssueListInput
	Agencies []*domain.Agency
}

type issueFormView struct {
	web.Base
	Kind     domain.IssueKind
	Report   *domain.IssueReport
	Input    service.IssueInput
	Agencies []*domain.Agency
	Error    string
}

func (h *IssueHandler) listPath() string {
	return "/" + h.kind.Slug()
}

// List handles GET /{board}.
func (h *IssueHandler) List(w http.ResponseWriter, r *http.Request) {
	in := request.ParseIssueList(r, h.kind)
	reports, total, err := h.issues.List(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	agencies, err := h.issues.Agencies(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.Views.Render(w, http.StatusOK, "isu/index", issueListView{
		Base:     h.base(r, h.kind.Title(), h.kind.Slug()),
		Kind:     h.kind,
		Reports:  reports,
		Pager:    request.NewPager(r, request.IssueFilterKeys, in.Page, total),
		Filter:   in,
		Agencies: agencies,
	})
}

func (h *IssueHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, rep *domain.IssueReport, in service.IssueInput, errMsg string) {
	agencies, err := h.issues.Agencies(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	title := "Tambah " + h.kind.Title()
	if rep != nil {
		title = "Edit " + h.kind.Title()
	}
	h.Views.Render(w, status, "isu/form", issueFormView{
		Base:     h.base(r, title, h.kind.Slug()),
		Kind:     h.kind,
		Report:   rep,
		Input:    in,
		Agencies: agencies,
		Error:    errMsg,
	})
}

// CreateForm handles GET /{board}/create.
func (h *IssueHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, nil, service.IssueInput{}, "")
}

// Store handles POST /{board}/store.
func (h *IssueHandler) Store(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(r); err != nil {
		h.fail(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	in := request.IssueForm(r)
	if _, err := h.issues.Create(r.Context(), h.kind, in, request.Uploads(r), middleware.Actor(r)); err != nil {
		if msg := validationMessage(err); msg != "" {
			h.renderForm(w, r, http.StatusBadRequest, nil, in, msg)
			return
		}
		h.fail(w, r, err)
		return
	}
	h.redirect(w, r, flashSuccess, "Laporan berhasil ditambahkan", h.listPath())
}

func inputOf(rep *domain.IssueReport) service.IssueInput {
	return service.IssueInput{
		Title:          rep.Title,
		Date:           domain.FormatDate(rep.Date),
		Body:           rep.Body,
		Authorities:    rep.Authorities,
		StakeholderIDs: rep.StakeholderIDs,
		Links:          rep.Links,
	}
}

// EditForm handles GET /{board}/edit/{id}.
func (h *IssueHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(r, "id", "ID laporan tidak valid")
	if err != nil {
		h.redirect(w, r, flashError, err.Error(), h.listPath())
		return
	}
	rep, err := h.issues.Get(r.Context(), h.kind, id)
	if err != nil {
		if domain.IsCode(err, domain.ErrCodeNotFound) {
			h.redirect(w, r, flashError, err.Error(), h.listPath())
			return
		}
		h.fail(w, r, err)
		return
	}
	h.renderForm(w, r, http.StatusOK, rep, inputOf(rep), "")
}

// Update handles POST /{board}/update/{id}.
func (h *IssueHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(r, "id", "ID laporan tidak valid")
	if err != nil {
		h.redirect(w, r, flashError, err.Error(), h.listPath())
		return
	}
	if err := parseMultipart(r); err != nil {
		h.fail(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	in := request.IssueForm(r)
	_, err = h.issues.Update(r.Context(), h.kind, id, in, request.KeepIndexes(r), request.Uploads(r), middleware.Actor(r))
	if err != nil {
		switch {
		case validationMessage(err) != "":
			rep, getErr := h.issues.Get(r.Context(), h.kind, id)
			if getErr != nil {
				h.fail(w, r, getErr)
				return
			}
			h.renderForm(w, r, http.StatusBadRequest, rep, in, validationMessage(err))
		case domain.IsCode(err, domain.ErrCodeNotFound):
			h.redirect(w, r, flashError, err.Error(), h.listPath())
		default:
			h.fail(w, r, err)
		}
		return
	}
	h.redirect(w, r, flashSuccess, "Laporan berhasil diperbarui", h.listPath())
}

// Delete handles GET /{board}/delete/{id}.
func (h *IssueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(r, "id", "ID laporan tidak valid")
	if err != nil {
		h.redirect(w, r, flashError, err.Error(), h.listPath())
		return
	}
	if err := h.issues.Delete(r.Context(), h.kind, id, middleware.Actor(r)); err != nil {
		if domain.IsCode(err, domain.ErrCodeNotFound) {
			h.redirect(w, r, flashError, err.Error(), h.listPath())
			return
		}
		h.fail(w, r, err)
		return
	}
	h.redirect(w, r, flashSuccess, "Laporan berhasil dihapus", h.listPath())
}

// Download handles GET /{board}/download/{id}/{fileIndex}.
func (h *IssueHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(r, "id", "ID laporan tidak valid")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "fileIndex"))
	if err != nil {
		h.fail(w, r, domain.NewFileNotFoundError("File tidak ditemukan"))
		return
	}
	a, err := h.issues.Attachment(r.Context(), h.kind, id, index)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := serveAttachment(w, r, h.files, a); err != nil {
		h.fail(w, r, err)
	}
}

// DownloadAll handles GET /{board}/download-all/{id}.
func (h *IssueHandler) DownloadAll(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(r, "id", "ID laporan tidak valid")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	archive, err := h.issues.Archive(r.Context(), h.kind, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := serveArchive(w, h.Logger, archive); err != nil {
		h.fail(w, r, err)
	}
}

type agencyOption struct {
	ID   int64  `json:"id"`
	Name string `json:"nama_opd"`
}

// SearchAgencies handles GET /{board}/api/opd?search=.
func (h *IssueHandler) SearchAgencies(w http.ResponseWriter, r *http.Request) {
	agencies, err := h.issues.SearchAgencies(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	options := make([]agencyOption, 0, len(agencies))
	for _, a := range agencies {
		options = append(options, agencyOption{ID: a.ID, Name: a.Name})
	}
	response.OK(w, response.Result{Success: true, Data: options})
}
