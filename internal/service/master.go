package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/store/sqlite"
)

// agencySearchLimit caps the stakeholder autocomplete.
const agencySearchLimit = 20

// AgencyService handles OPD master data.
type AgencyService struct {
	agencyRepo *sqlite.AgencyRepository
	audit      auditor
}

// NewAgencyService creates a new AgencyService.
func NewAgencyService(agencyRepo *sqlite.AgencyRepository, auditRepo *sqlite.AuditRepository, logger *zap.Logger) *AgencyService {
	return &AgencyService{
		agencyRepo: agencyRepo,
		audit:      auditor{repo: auditRepo, logger: logger},
	}
}

// List returns the live agencies ordered by name.
func (s *AgencyService) List(ctx context.Context) ([]*domain.Agency, error) {
	agencies, err := s.agencyRepo.List(ctx)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	return agencies, nil
}

// Search returns live agencies whose name contains term.
func (s *AgencyService) Search(ctx context.Context, term string) ([]*domain.Agency, error) {
	agencies, err := s.agencyRepo.Search(ctx, strings.TrimSpace(term), agencySearchLimit)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	return agencies, nil
}

// Get retrieves a live agency.
func (s *AgencyService) Get(ctx context.Context, id int64) (*domain.Agency, error) {
	a, err := s.agencyRepo.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound(domain.EntityAgency, id, "OPD tidak ditemukan")
		}
		return nil, domain.NewInternalError(err)
	}
	return a, nil
}

// Create adds an agency.
func (s *AgencyService) Create(ctx context.Context, name string, actor Actor) (*domain.Agency, error) {
	name, ok := domain.NormalizeName(name)
	if !ok {
		return nil, domain.NewValidationError([]string{"Nama OPD tidak boleh kosong"})
	}
	if !actor.Valid() {
		return nil, errInvalidSession
	}

	now := nowUTC()
	a := &domain.Agency{
		Name:      name,
		CreatedBy: actor.UserID,
		CreatedAt: now,
		UpdatedBy: actor.UserID,
		UpdatedAt: now,
	}
	if err := s.agencyRepo.Create(ctx, a); err != nil {
		return nil, domain.NewInternalError(err)
	}

	s.audit.log(ctx, domain.NewAuditEntry(domain.EntityAgency, a.ID, domain.ActionCreate, actor.Username).
		WithNewValue(a.Name))
	return a, nil
}

// Update renames a live agency.
func (s *AgencyService) Update(ctx context.Context, id int64, name string, actor Actor) (*domain.Agency, error) {
	name, ok := domain.NormalizeName(name)
	if !ok {
		return nil, domain.NewValidationError([]string{"Nama OPD tidak boleh kosong"})
	}
	if !actor.Valid() {
		return nil, errInvalidSession
	}

	a, err := s.agencyRepo.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound(domain.EntityAgency, id, "OPD tidak ditemukan atau sudah dihapus")
		}
		return nil, domain.NewInternalError(err)
	}

	oldName := a.Name
	a.Name = name
	a.UpdatedBy = actor.UserID
	a.UpdatedAt = nowUTC()
	n, err := s.agencyRepo.Update(ctx, a)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	if n == 0 {
		return nil, notFound(domain.EntityAgency, id, "OPD tidak ditemukan atau sudah dihapus")
	}

	s.audit.change(ctx, domain.EntityAgency, id, actor.Username, "nama_opd", oldName, name)
	return a, nil
}

// Delete soft-deletes a live agency. Reports keep the stakeholder row but
// no longer show the agency name.
func (s *AgencyService) Delete(ctx context.Context, id int64, actor Actor) error {
	if !actor.Valid() {
		return errInvalidSession
	}
	n, err := s.agencyRepo.SoftDelete(ctx, id, actor.UserID, nowUTC())
	if err != nil {
		return domain.NewInternalError(err)
	}
	if n == 0 {
		return notFound(domain.EntityAgency, id, "OPD tidak ditemukan")
	}

	s.audit.log(ctx, domain.NewAuditEntry(domain.EntityAgency, id, domain.ActionDelete, actor.Username))
	return nil
}

// LeaderService handles kategori pimpinan master data.
type LeaderService struct {
	leaderRepo *sqlite.LeaderRepository
	audit      auditor
}

// NewLeaderService creates a new LeaderService.
func NewLeaderService(leaderRepo *sqlite.LeaderRepository, auditRepo *sqlite.AuditRepository, logger *zap.Logger) *LeaderService {
	return &LeaderService{
		leaderRepo: leaderRepo,
		audit:      auditor{repo: auditRepo, logger: logger},
	}
}

// List returns the live leaders ordered by position.
func (s *LeaderService) List(ctx context.Context) ([]*domain.Leader, error) {
	leaders, err := s.leaderRepo.List(ctx)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	return leaders, nil
}

// Get retrieves a live leader.
func (s *LeaderService) Get(ctx context.Context, id int64) (*domain.Leader, error) {
	l, err := s.leaderRepo.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound(domain.EntityLeader, id, "Pimpinan tidak ditemukan atau sudah dihapus")
		}
		return nil, domain.NewInternalError(err)
	}
	return l, nil
}

// Create adds a leader position.
func (s *LeaderService) Create(ctx context.Context, position string, actor Actor) (*domain.Leader, error) {
	position, ok := domain.NormalizeName(position)
	if !ok {
		return nil, domain.NewValidationError([]string{"Nama Pimpinan tidak boleh kosong"})
	}
	if !actor.Valid() {
		return nil, errInvalidSession
	}

	now := nowUTC()
	l := &domain.Leader{
		Position:  position,
		CreatedBy: actor.UserID,
		CreatedAt: now,
		UpdatedBy: actor.UserID,
		UpdatedAt: now,
	}
	if err := s.leaderRepo.Create(ctx, l); err != nil {
		return nil, domain.NewInternalError(err)
	}

	s.audit.log(ctx, domain.NewAuditEntry(domain.EntityLeader, l.ID, domain.ActionCreate, actor.Username).
		WithNewValue(l.Position))
	return l, nil
}

// Update renames a live leader position. Files already filed under the old
// position stay where they are until their report is edited.
func (s *LeaderService) Update(ctx context.Context, id int64, position string, actor Actor) (*domain.Leader, error) {
	position, ok := domain.NormalizeName(position)
	if !ok {
		return nil, domain.NewValidationError([]string{"Nama Pimpinan tidak boleh kosong"})
	}
	if !actor.Valid() {
		return nil, errInvalidSession
	}

	l, err := s.leaderRepo.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound(domain.EntityLeader, id, "Pimpinan tidak ditemukan")
		}
		return nil, domain.NewInternalError(err)
	}

	oldPosition := l.Position
	l.Position = position
	l.UpdatedBy = actor.UserID
	l.UpdatedAt = nowUTC()
	n, err := s.leaderRepo.Update(ctx, l)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	if n == 0 {
		return nil, notFound(domain.EntityLeader, id, "Pimpinan tidak ditemukan atau sudah dihapus")
	}

	s.audit.change(ctx, domain.EntityLeader, id, actor.Username, "jabatan_pimpinan", oldPosition, position)
	return l, nil
}

// Delete soft-deletes a live leader.
func (s *LeaderService) Delete(ctx context.Context, id int64, actor Actor) error {
	if !actor.Valid() {
		return errInvalidSession
	}
	n, err := s.leaderRepo.SoftDelete(ctx, id, actor.UserID, nowUTC())
	if err != nil {
		return domain.NewInternalError(err)
	}
	if n == 0 {
		return notFound(domain.EntityLeader, id, "Pimpinan tidak ditemukan")
	}

	s.audit.log(ctx, domain.NewAuditEntry(domain.EntityLeader, id, domain.ActionDelete, actor.Username))
	return nil
}

// MediaService handles the media type lookup.
type MediaService struct {
	mediaRepo *sqlite.MediaTypeRepository
}

// NewMediaService creates a new MediaService.
func NewMediaService(mediaRepo *sqlite.MediaTypeRepository) *MediaService {
	return &MediaService{mediaRepo: mediaRepo}
}

// List returns all media types.
func (s *MediaService) List(ctx context.Context) ([]*domain.MediaType, error) {
	types, err := s.mediaRepo.List(ctx)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	return types, nil
}

// Create adds a media type.
func (s *MediaService) Create(ctx context.Context, name string) (*domain.MediaType, error) {
	name, ok := domain.NormalizeName(name)
	if !ok {
		return nil, domain.NewValidationError([]string{"Nama jenis tidak boleh kosong"})
	}
	m := &domain.MediaType{Name: name}
	if err := s.mediaRepo.Create(ctx, m); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, domain.NewValidationError([]string{"Jenis sudah ada"})
		}
		return nil, domain.NewInternalError(err)
	}
	return m, nil
}
