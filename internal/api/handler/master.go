package handler

import (
	"net/http"

	"github.com/pantau/pantau/internal/api/middleware"
	"github.com/pantau/pantau/internal/api/request"
	"github.com/pantau/pantau/internal/api/response"
	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/service"
	"github.com/pantau/pantau/internal/web"
)

// AgencyHandler handles the OPD master data pages.
type AgencyHandler struct {
	Pages
	agencies *service.AgencyService
}

// NewAgencyHandler creates a new AgencyHandler.
func NewAgencyHandler(p Pages, agencies *service.AgencyService) *AgencyHandler {
	return &AgencyHandler{Pages: p, agencies: agencies}
}

type agencyListView struct {
	web.Base
	Agencies []*domain.Agency
}

type agencyFormView struct {
	web.Base
	Agency *domain.Agency
	Name   string
	Error  string
}

const agencyListPath = "/opd"

// List handles GET /opd.
func (h *AgencyHandler) List(w http.ResponseWriter, r *http.Request) {
	agencies, err := h.agencies.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.Views.Render(w, http.StatusOK, "opd/index", agencyListView{
		Base:     h.base(r, "Data OPD", "opd"),
		Agencies: agencies,
	})
}

// CreateForm handles GET /opd/create.
func (h *AgencyHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	h.Views.Render(w, http.StatusOK, "opd/form", agencyFormView{Base: h.base(r, "Tambah OPD", "opd")})
}

// Create handles POST /opd.
func (h *AgencyHandler) Create(w http.ResponseWriter, r *http.Request) {
	name := r.PostFormValue("nama_opd")
	if _, err := h.agencies.Create(r.Context(), name, middleware.Actor(r)); err != nil {
		if msg := validationMessage(err); msg != "" {
			h.Views.Render(w, http.StatusBadRequest, "opd/form", agencyFormView{
				Base:  h.base(r, "Tambah OPD", "opd"),
				Name:  name,
				Error: msg,
			})
			return
		}
		h.fail(w, r, err)
		return
	}
	h.redirect(w, r, flashSuccess, "OPD berhasil ditambahkan", agencyListPath)
}

// EditForm handles GET /opd/edit/{id}.
func (h *AgencyHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(r, "id", "ID OPD tidak valid")
	if err != nil {
		h.redirect(w, r, flashError, err.Error(), agencyListPath)
		return
	}
	agency, err := h.agencies.Get(r.Context(), id)
	if err != nil {
		if domain.IsCode(err, domain.ErrCodeNotFound) {
			h.redirect(w, r, flashError, err.Error(), agencyListPath)
			return
		}
		h.fail(w, r, err)
		return
	}
	h.Views.Render(w, http.StatusOK, "opd/form", agencyFormView{
		Base:   h.base(r, "Edit OPD", "opd"),
		Agency: agency,
		Name:   agency.Name,
	})
}

// Update handles PUT /opd/{id}.
func (h *AgencyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(r, "id", "ID OPD tidak valid")
	if err != nil {
		h.redirect(w, r, flashError, err.Error(), agencyListPath)
		return
	}
	name := r.PostFormValue("nama_opd")
	if _, err := h.agencies.Update(r.Context(), id, name, middleware.Actor(r)); err != nil {
		switch {
		case validationMessage(err) != "":
			h.Views.Render(w, http.StatusBadRequest, "opd/form", agencyFormView{
				Base:   h.base(r, "Edit OPD", "opd"),
				Agency: &domain.Agency{ID: id},
				Name:   name,
				Error:  validationMessage(err),
			})
		case domain.IsCode(err, domain.ErrCodeNotFound):
			h.redirect(w, r, flashError, err.Error(), agencyListPath)
		default:
			h.fail(w, r, err)
		}
		return
	}
	h.redirect(w, r, flashSuccess, "OPD berhasil diupdate", agencyListPath)
}

// Delete handles DELETE /opd/{id}.
func (h *AgencyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(r, "id", "ID OPD tidak valid")
	if err != nil {
		response.Fail(w, err)
		return
	}
	if err := h.agencies.Delete(r.Context(), id, middleware.Actor(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, "OPD berhasil dihapus", nil)
}

// LeaderHandler handles the pimpinan master data pages.
type LeaderHandler struct {
	Pages
	leaders *service.LeaderService
}

// NewLeaderHandler creates a new LeaderHandler.
func NewLeaderHandler(p Pages, leaders *service.LeaderService) *LeaderHandler {
	return &LeaderHandler{Pages: p, leaders: leaders}
}

type leaderListView struct {
	web.Base
	Leaders []*domain.Leader
}

type leaderFormView struct {
	web.Base
	Leader   *domain.Leader
	Position string
	Error    string
}

const leaderListPath = "/pimpinan"

// List handles GET /pimpinan.
func (h *LeaderHandler) List(w http.ResponseWriter, r *http.Request) {
	leaders, err := h.leaders.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.Views.Render(w, http.StatusOK, "pimpinan/index", leaderListView{
		Base:    h.base(r, "Data Pimpinan", "pimpinan"),
		Leaders: leaders,
	})
}

// CreateForm handles GET /pimpinan/create.
func (h *LeaderHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	h.Views.Render(w, http.StatusOK, "pimpinan/form", leaderFormView{Base: h.base(r, "Tambah Pimpinan", "pimpinan")})
}

// Create handles POST /pimpinan.
func (h *LeaderHandler) Create(w http.ResponseWriter, r *http.Request) {
	position := r.PostFormValue("jabatan_pimpinan")
	if _, err := h.leaders.Create(r.Context(), position, middleware.Actor(r)); err != nil {
		if msg := validationMessage(err); msg != "" {
			h.Views.Render(w, http.StatusBadRequest, "pimpinan/form", leaderFormView{
				Base:     h.base(r, "Tambah Pimpinan", "pimpinan"),
				Position: position,
				Error:    msg,
			})
			return
		}
		h.fail(w, r, err)
		return
	}
	h.redirect(w, r, flashSuccess, "Pimpinan berhasil ditambahkan", leaderListPath)
}

// EditForm handles GET /pimpinan/edit/{id}.
func (h *LeaderHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(r, "id", "ID Pimpinan tidak valid")
	if err != nil {
		h.redirect(w, r, flashError, err.Error(), leaderListPath)
		return
	}
	leader, err := h.leaders.Get(r.Context(), id)
	if err != nil {
		if domain.IsCode(err, domain.ErrCodeNotFound) {
			h.redirect(w, r, flashError, err.Error(), leaderListPath)
			return
		}
		h.fail(w, r, err)
		return
	}
	h.Views.Render(w, http.StatusOK, "pimpinan/form", leaderFormView{
		Base:     h.base(r, "Edit Pimpinan", "pimpinan"),
		Leader:   leader,
		Position: leader.Position,
	})
}

// Update handles PUT /pimpinan/{id}.
func (h *LeaderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(r, "id", "ID Pimpinan tidak valid")
	if err != nil {
		h.redirect(w, r, flashError, err.Error(), leaderListPath)
		return
	}
	position := r.PostFormValue("jabatan_pimpinan")
	if _, err := h.leaders.Update(r.Context(), id, position, middleware.Actor(r)); err != nil {
		switch {
		case validationMessage(err) != "":
			h.Views.Render(w, http.StatusBadRequest, "pimpinan/form", leaderFormView{
				Base:     h.base(r, "Edit Pimpinan", "pimpinan"),
				Leader:   &domain.Leader{ID: id},
				Position: position,
				Error:    validationMessage(err),
			})
		case domain.IsCode(err, domain.ErrCodeNotFound):
			h.redirect(w, r, flashError, err.Error(), leaderListPath)
		default:
			h.fail(w, r, err)
		}
		return
	}
	h.redirect(w, r, flashSuccess, "Pimpinan berhasil diupdate", leaderListPath)
}

// Delete handles DELETE /pimpinan/{id}.
func (h *LeaderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(r, "id", "ID Pimpinan tidak valid")
	if err != nil {
		response.Fail(w, err)
		return
	}
	if err := h.leaders.Delete(r.Context(), id, middleware.Actor(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, "Pimpinan berhasil dihapus", nil)
}
