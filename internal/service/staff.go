package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/export"
	"github.com/pantau/pantau/internal/files"
	"github.com/pantau/pantau/internal/store/listquery"
	"github.com/pantau/pantau/internal/store/sqlite"
)

// StaffLimits are the page sizes the staff list accepts.
var StaffLimits = []int{5, 10, 20, 50, 100, 1000, 10000}

// DefaultStaffLimit is used when the requested limit is not allowed.
const DefaultStaffLimit = 5

// StaffService handles staff reports and their single attachment.
type StaffService struct {
	staffRepo  *sqlite.StaffRepository
	leaderRepo *sqlite.LeaderRepository
	mediaRepo  *sqlite.MediaTypeRepository
	files      *files.Store
	audit      auditor
	logger     *zap.Logger
}

// NewStaffService creates a new StaffService.
func NewStaffService(
	staffRepo *sqlite.StaffRepository,
	leaderRepo *sqlite.LeaderRepository,
	mediaRepo *sqlite.MediaTypeRepository,
	auditRepo *sqlite.AuditRepository,
	store *files.Store,
	logger *zap.Logger,
) *StaffService {
	return &StaffService{
		staffRepo:  staffRepo,
		leaderRepo: leaderRepo,
		mediaRepo:  mediaRepo,
		files:      store,
		audit:      auditor{repo: auditRepo, logger: logger},
		logger:     logger,
	}
}

// StaffInput contains the editable fields of a staff report.
type StaffInput struct {
	Type        domain.StaffReportType
	LeaderID    *int64
	MediaTypeID *int64
	Date        string
	Title       string
	Body        string
}

func (in StaffInput) build() (*domain.StaffReport, error) {
	var details []string
	if !in.Type.IsValid() {
		details = append(details, "Jenis laporan tidak valid.")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		details = append(details, "Judul laporan wajib diisi.")
	}

	rep := &domain.StaffReport{
		Type:        in.Type,
		LeaderID:    in.LeaderID,
		MediaTypeID: in.MediaTypeID,
		Title:       title,
	}
	if d := strings.TrimSpace(in.Date); d != "" {
		date, err := domain.ParseDate(d)
		if err != nil {
			details = append(details, "Format tanggal tidak valid.")
		} else {
			rep.Date = &date
		}
	}
	if b := strings.TrimSpace(in.Body); b != "" {
		rep.Body = &b
	}
	if len(details) > 0 {
		return nil, domain.NewValidationError(details)
	}
	return rep, nil
}

// placementDate is the date that names a report's day folder. Reports
// without a date are filed under the day they were created.
func placementDate(rep *domain.StaffReport) time.Time {
	if rep.Date != nil {
		return *rep.Date
	}
	return rep.CreatedAt
}

// owner returns the leader position of id, or "" for no leader.
func (s *StaffService) owner(ctx context.Context, id *int64) (string, error) {
	if id == nil {
		return "", nil
	}
	l, err := s.leaderRepo.GetByID(ctx, *id)
	if err != nil {
		if isNoRows(err) {
			return "", notFound(domain.EntityLeader, *id, "Pimpinan tidak ditemukan.")
		}
		return "", domain.NewInternalError(err)
	}
	return l.Position, nil
}

// StaffListInput contains the staff list filters.
type StaffListInput struct {
	SearchTitle string
	SearchBody  string
	LeaderID    *int64
	Type        domain.StaffReportType
	DateFrom    string
	DateTo      string
	Page        listquery.Page
}

// HasFilter reports whether any filter is set.
func (in StaffListInput) HasFilter() bool {
	return in.SearchTitle != "" || in.SearchBody != "" || in.LeaderID != nil ||
		in.Type != 0 || in.DateFrom != "" || in.DateTo != ""
}

func (in StaffListInput) validate() error {
	if in.DateFrom != "" && !domain.ValidDateString(in.DateFrom) {
		return domain.NewValidationError([]string{"Format tanggal mulai tidak valid."})
	}
	if in.DateTo != "" && !domain.ValidDateString(in.DateTo) {
		return domain.NewValidationError([]string{"Format tanggal akhir tidak valid."})
	}
	return nil
}

func (in StaffListInput) filter() sqlite.StaffFilter {
	return sqlite.StaffFilter{
		SearchTitle: in.SearchTitle,
		SearchBody:  in.SearchBody,
		LeaderID:    in.LeaderID,
		Type:        in.Type,
		DateFrom:    in.DateFrom,
		DateTo:      in.DateTo,
		Page:        in.Page,
	}
}

// StaffList is one page of the staff list.
type StaffList struct {
	Reports    []*domain.StaffReport
	Total      int
	TotalPages int
	Leaders    []*domain.Leader
	FilterInfo string
}

// List returns one page of staff reports with a readable filter summary.
func (s *StaffService) List(ctx context.Context, in StaffListInput) (*StaffList, error) {
	in.SearchTitle = strings.TrimSpace(in.SearchTitle)
	in.SearchBody = strings.TrimSpace(in.SearchBody)
	if err := in.validate(); err != nil {
		return nil, err
	}

	leaders, err := s.leaderRepo.List(ctx)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	reports, total, err := s.staffRepo.List(ctx, in.filter())
	if err != nil {
		return nil, domain.NewInternalError(err)
	}

	return &StaffList{
		Reports:    reports,
		Total:      total,
		TotalPages: in.Page.TotalPages(total),
		Leaders:    leaders,
		FilterInfo: filterInfo(in, leaders),
	}, nil
}

func filterInfo(in StaffListInput, leaders []*domain.Leader) string {
	if !in.HasFilter() {
		return ""
	}
	var parts []string
	if in.SearchTitle != "" {
		parts = append(parts, fmt.Sprintf("judul: %q", in.SearchTitle))
	}
	if in.SearchBody != "" {
		parts = append(parts, fmt.Sprintf("isi: %q", in.SearchBody))
	}
	if in.LeaderID != nil {
		for _, l := range leaders {
			if l.ID == *in.LeaderID {
				parts = append(parts, fmt.Sprintf("pimpinan: %q", l.Position))
				break
			}
		}
	}
	if in.Type.IsValid() {
		parts = append(parts, fmt.Sprintf("jenis: %q", in.Type.Name()))
	}
	switch {
	case in.DateFrom != "" && in.DateTo != "":
		parts = append(parts, "tanggal: "+in.DateFrom+" s/d "+in.DateTo)
	case in.DateFrom != "":
		parts = append(parts, "tanggal: dari "+in.DateFrom)
	case in.DateTo != "":
		parts = append(parts, "tanggal: sampai "+in.DateTo)
	}
	return strings.Join(parts, ", ")
}

// Leaders lists the live leaders for the forms.
func (s *StaffService) Leaders(ctx context.Context) ([]*domain.Leader, error) {
	leaders, err := s.leaderRepo.List(ctx)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	return leaders, nil
}

// MediaTypes lists the media types for the forms.
func (s *StaffService) MediaTypes(ctx context.Context) ([]*domain.MediaType, error) {
	types, err := s.mediaRepo.List(ctx)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	return types, nil
}

// Get retrieves a live staff report.
func (s *StaffService) Get(ctx context.Context, id int64) (*domain.StaffReport, error) {
	rep, err := s.staffRepo.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound(domain.EntityStaffReport, id, "Data tidak ditemukan atau sudah dihapus.")
		}
		return nil, domain.NewInternalError(err)
	}
	return rep, nil
}

// Create inserts a staff report. The upload, if any, is stored in the
// folder of the report type, leader and date.
func (s *StaffService) Create(ctx context.Context, in StaffInput, upload *Upload, actor Actor) (*domain.StaffReport, error) {
	rep, err := in.build()
	if err != nil {
		return nil, err
	}
	owner, err := s.owner(ctx, rep.LeaderID)
	if err != nil {
		return nil, err
	}

	rep.CreatedBy = actorName(actor)
	rep.CreatedAt = nowUTC()

	if upload != nil {
		a, err := saveUpload(s.files, files.StaffLocation(rep.Type, owner, placementDate(rep)), *upload)
		if err != nil {
			return nil, domain.NewInternalError(err)
		}
		rep.Attachment = &a
	}

	if err := s.staffRepo.Create(ctx, rep); err != nil {
		if rep.Attachment != nil {
			s.removeFile(rep.Attachment.Path)
		}
		return nil, domain.NewInternalError(err)
	}

	s.audit.log(ctx, domain.NewAuditEntry(domain.EntityStaffReport, rep.ID, domain.ActionCreate, rep.CreatedBy).
		WithNewValue(rep.Title))
	return rep, nil
}

// Update rewrites a staff report. It reports false without writing when
// nothing changed. When the type, leader or date changes the stored file
// follows the report to its new folder; a new upload replaces the old file,
// which is deleted once the update is committed.
func (s *StaffService) Update(ctx context.Context, id int64, in StaffInput, upload *Upload, actor Actor) (*domain.StaffReport, bool, error) {
	next, err := in.build()
	if err != nil {
		return nil, false, err
	}
	old, err := s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if upload == nil && old.SameContent(next) {
		return old, false, nil
	}
	owner, err := s.owner(ctx, next.LeaderID)
	if err != nil {
		return nil, false, err
	}

	next.ID = old.ID
	next.CreatedBy = old.CreatedBy
	next.CreatedAt = old.CreatedAt
	next.Attachment = old.Attachment
	by := actorName(actor)
	at := nowUTC()
	next.UpdatedBy = &by
	next.UpdatedAt = &at

	loc := files.StaffLocation(next.Type, owner, placementDate(next))
	var replaced *domain.Attachment
	var movedFrom, movedTo string

	switch {
	case upload != nil:
		a, err := saveUpload(s.files, loc, *upload)
		if err != nil {
			return nil, false, domain.NewInternalError(err)
		}
		replaced = old.Attachment
		next.Attachment = &a

	case old.Attachment != nil && old.PlacementChanged(next):
		src := files.CleanRel(old.Attachment.Path)
		if !s.files.Exists(src) {
			found, ok := s.files.FindStaffFile(old.Type, placementDate(old), src)
			if !ok {
				s.logger.Warn("stored file not found, keeping recorded path",
					zap.Int64("id", id), zap.String("path", old.Attachment.Path))
				break
			}
			src = found
		}
		dst, err := s.files.Move(src, loc)
		if err != nil {
			return nil, false, domain.NewInternalError(err)
		}
		movedFrom, movedTo = src, dst
		moved := *old.Attachment
		moved.Path = dst
		next.Attachment = &moved
	}

	if err := s.staffRepo.Update(ctx, next); err != nil {
		if upload != nil {
			s.removeFile(next.Attachment.Path)
		}
		if movedTo != "" {
			if rerr := s.files.Rename(movedTo, movedFrom); rerr != nil {
				s.logger.Error("failed to move file back",
					zap.String("from", movedTo), zap.String("to", movedFrom), zap.Error(rerr))
			}
		}
		if isNoRows(err) {
			return nil, false, notFound(domain.EntityStaffReport, id, "Data tidak ditemukan.")
		}
		return nil, false, domain.NewInternalError(err)
	}

	if replaced != nil {
		s.removeFile(replaced.Path)
	}

	s.audit.change(ctx, domain.EntityStaffReport, id, by, "judul", old.Title, next.Title)
	s.audit.change(ctx, domain.EntityStaffReport, id, by, "tanggal_laporan",
		domain.FormatDatePtr(old.Date), domain.FormatDatePtr(next.Date))
	s.audit.change(ctx, domain.EntityStaffReport, id, by, "jenis_laporan", old.Type.Name(), next.Type.Name())
	if replaced != nil || (old.Attachment == nil && next.Attachment != nil) {
		s.audit.change(ctx, domain.EntityStaffReport, id, by, "file_path", attachmentPath(old.Attachment), next.Attachment.Path)
	}
	if movedTo != "" {
		s.audit.log(ctx, domain.NewAuditEntry(domain.EntityStaffReport, id, domain.ActionMove, by).
			WithField("file_path").
			WithOldValue(movedFrom).
			WithNewValue(movedTo))
	}
	return next, true, nil
}

// Delete soft-deletes a staff report. Its file stays on disk.
func (s *StaffService) Delete(ctx context.Context, id int64, actor Actor) error {
	by := actorName(actor)
	n, err := s.staffRepo.SoftDelete(ctx, id, by, nowUTC())
	if err != nil {
		return domain.NewInternalError(err)
	}
	if n == 0 {
		return notFound(domain.EntityStaffReport, id, "Data tidak ditemukan atau sudah dihapus.")
	}

	s.audit.log(ctx, domain.NewAuditEntry(domain.EntityStaffReport, id, domain.ActionDelete, by))
	return nil
}

// Download returns the attachment of a report with a path that exists on
// disk, searching the owner folders when the recorded path is stale.
func (s *StaffService) Download(ctx context.Context, id int64) (domain.Attachment, error) {
	rep, err := s.Get(ctx, id)
	if err != nil {
		return domain.Attachment{}, err
	}
	if rep.Attachment == nil {
		return domain.Attachment{}, domain.NewFileNotFoundError("File tidak ditemukan.")
	}

	a := *rep.Attachment
	a.Path = files.CleanRel(a.Path)
	if s.files.Exists(a.Path) {
		return a, nil
	}
	if found, ok := s.files.FindStaffFile(rep.Type, placementDate(rep), a.Path); ok {
		a.Path = found
		return a, nil
	}
	return domain.Attachment{}, domain.NewFileNotFoundError("File tidak ditemukan di server.")
}

// Export writes every report matching the filters as a spreadsheet.
func (s *StaffService) Export(ctx context.Context, in StaffListInput, w io.Writer) error {
	if err := in.validate(); err != nil {
		return err
	}
	in.Page = listquery.Page{}
	reports, _, err := s.staffRepo.List(ctx, in.filter())
	if err != nil {
		return domain.NewInternalError(err)
	}
	if err := export.WriteStaffXLSX(w, reports); err != nil {
		return domain.NewInternalError(err)
	}
	return nil
}

func (s *StaffService) removeFile(p string) {
	if err := s.files.Remove(files.CleanRel(p)); err != nil {
		s.logger.Warn("failed to remove file", zap.String("path", p), zap.Error(err))
	}
}

func attachmentPath(a *domain.Attachment) string {
	if a == nil {
		return ""
	}
	return a.Path
}

func actorName(a Actor) string {
	if a.Username == "" {
		return "system"
	}
	return a.Username
}
