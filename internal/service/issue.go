package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/export"
	"github.com/pantau/pantau/internal/files"
	"github.com/pantau/pantau/internal/store/listquery"
	"github.com/pantau/pantau/internal/store/sqlite"
)

// IssueService handles the three leadership issue boards.
type IssueService struct {
	issueRepo  *sqlite.IssueRepository
	agencyRepo *sqlite.AgencyRepository
	files      *files.Store
	audit      auditor
	logger     *zap.Logger
}

// NewIssueService creates a new IssueService.
func NewIssueService(
	issueRepo *sqlite.IssueRepository,
	agencyRepo *sqlite.AgencyRepository,
	auditRepo *sqlite.AuditRepository,
	store *files.Store,
	logger *zap.Logger,
) *IssueService {
	return &IssueService{
		issueRepo:  issueRepo,
		agencyRepo: agencyRepo,
		files:      store,
		audit:      auditor{repo: auditRepo, logger: logger},
		logger:     logger,
	}
}

// IssueInput contains the editable fields of an issue report.
type IssueInput struct {
	Title          string
	Date           string
	Body           string
	Authorities    []string
	StakeholderIDs []int64
	Links          []string
}

func (in IssueInput) validate() (time.Time, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Date) == "" || strings.TrimSpace(in.Body) == "" {
		return time.Time{}, domain.NewValidationError([]string{"Semua field wajib diisi"})
	}
	date, err := domain.ParseDate(strings.TrimSpace(in.Date))
	if err != nil {
		return time.Time{}, domain.NewValidationError([]string{"Format tanggal tidak valid."})
	}
	return date, nil
}

func (in IssueInput) apply(rep *domain.IssueReport, date time.Time) {
	rep.Title = strings.TrimSpace(in.Title)
	rep.Date = date
	rep.Body = strings.TrimSpace(in.Body)
	rep.Authorities = domain.CleanTags(in.Authorities)
	rep.StakeholderIDs = in.StakeholderIDs
	rep.Links = domain.CleanLinks(in.Links)
}

// IssueListInput contains the list filters of a board. Malformed dates are
// ignored.
type IssueListInput struct {
	Kind           domain.IssueKind
	DateFrom       string
	DateTo         string
	Title          string
	Body           string
	Search         string
	Authority      string
	StakeholderIDs []int64
	Page           listquery.Page
}

func validDateOrEmpty(s string) string {
	s = strings.TrimSpace(s)
	if domain.ValidDateString(s) {
		return s
	}
	return ""
}

// List returns one page of a board.
func (s *IssueService) List(ctx context.Context, in IssueListInput) ([]*domain.IssueReport, int, error) {
	reports, total, err := s.issueRepo.List(ctx, sqlite.IssueFilter{
		Kind:           in.Kind,
		DateFrom:       validDateOrEmpty(in.DateFrom),
		DateTo:         validDateOrEmpty(in.DateTo),
		Title:          strings.TrimSpace(in.Title),
		Body:           strings.TrimSpace(in.Body),
		Search:         strings.TrimSpace(in.Search),
		Authority:      strings.TrimSpace(in.Authority),
		StakeholderIDs: in.StakeholderIDs,
		Page:           in.Page,
	})
	if err != nil {
		return nil, 0, domain.NewInternalError(err)
	}
	return reports, total, nil
}

// Get retrieves a live report of the given kind. A zero kind accepts any.
func (s *IssueService) Get(ctx context.Context, kind domain.IssueKind, id int64) (*domain.IssueReport, error) {
	rep, err := s.issueRepo.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound(domain.EntityIssueReport, id, "Data tidak ditemukan atau sudah dihapus")
		}
		return nil, domain.NewInternalError(err)
	}
	if kind != 0 && rep.Kind != kind {
		return nil, notFound(domain.EntityIssueReport, id, "Data tidak ditemukan atau sudah dihapus")
	}
	return rep, nil
}

// Create stores the uploads and inserts a report. Uploaded files are removed
// again when the insert fails.
func (s *IssueService) Create(ctx context.Context, kind domain.IssueKind, in IssueInput, uploads []Upload, actor Actor) (*domain.IssueReport, error) {
	if !kind.IsValid() {
		return nil, domain.NewValidationError([]string{"Jenis laporan tidak valid"})
	}
	date, err := in.validate()
	if err != nil {
		return nil, err
	}

	rep := &domain.IssueReport{
		Kind:      kind,
		CreatedBy: actor.Username,
		CreatedAt: nowUTC(),
	}
	in.apply(rep, date)

	saved, err := s.saveUploads(files.IssueLocation(kind, date), uploads)
	if err != nil {
		return nil, err
	}
	rep.Attachments = saved

	if err := s.issueRepo.Create(ctx, rep); err != nil {
		s.removeFiles(saved)
		return nil, domain.NewInternalError(err)
	}

	s.audit.log(ctx, domain.NewAuditEntry(domain.EntityIssueReport, rep.ID, domain.ActionCreate, actor.Username).
		WithNewValue(rep.Title))
	return rep, nil
}

// Update rewrites a report. keep holds the indexes of existing attachments
// to retain; new uploads are appended after them. Files of dropped
// attachments are deleted only once the update is committed.
func (s *IssueService) Update(ctx context.Context, kind domain.IssueKind, id int64, in IssueInput, keep []int, uploads []Upload, actor Actor) (*domain.IssueReport, error) {
	date, err := in.validate()
	if err != nil {
		return nil, err
	}
	rep, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	old := *rep

	keepSet := make(map[int]bool, len(keep))
	for _, i := range keep {
		keepSet[i] = true
	}
	var kept, dropped []domain.Attachment
	for i, a := range rep.Attachments {
		if keepSet[i] {
			kept = append(kept, a)
		} else {
			dropped = append(dropped, a)
		}
	}

	loc := files.IssueLocation(rep.Kind, date)
	saved, err := s.saveUploads(loc, uploads)
	if err != nil {
		return nil, err
	}

	var moves []fileMove
	if !date.Equal(rep.Date) {
		if moves, err = s.moveToDate(kept, files.IssueLocation(rep.Kind, rep.Date), loc); err != nil {
			s.removeFiles(saved)
			return nil, domain.NewInternalError(err)
		}
	}

	in.apply(rep, date)
	rep.Attachments = append(kept, saved...)
	updatedBy := actor.Username
	updatedAt := nowUTC()
	rep.UpdatedBy = &updatedBy
	rep.UpdatedAt = &updatedAt

	if err := s.issueRepo.Update(ctx, rep); err != nil {
		s.removeFiles(saved)
		s.undoMoves(moves)
		if isNoRows(err) {
			return nil, notFound(domain.EntityIssueReport, id, "Data tidak ditemukan atau sudah dihapus")
		}
		return nil, domain.NewInternalError(err)
	}
	s.removeFiles(dropped)

	s.audit.change(ctx, domain.EntityIssueReport, id, actor.Username, "judul", old.Title, rep.Title)
	s.audit.change(ctx, domain.EntityIssueReport, id, actor.Username, "tanggal_laporan",
		domain.FormatDate(old.Date), domain.FormatDate(rep.Date))
	s.audit.change(ctx, domain.EntityIssueReport, id, actor.Username, "isi_laporan", old.Body, rep.Body)
	s.audit.change(ctx, domain.EntityIssueReport, id, actor.Username, "files",
		fmt.Sprint(len(old.Attachments)), fmt.Sprint(len(rep.Attachments)))
	for _, m := range moves {
		s.audit.log(ctx, domain.NewAuditEntry(domain.EntityIssueReport, id, domain.ActionMove, actor.Username).
			WithField("file_path").
			WithOldValue(m.from).
			WithNewValue(m.to))
	}
	return rep, nil
}

type fileMove struct {
	from, to string
}

// moveToDate moves the attachments stored under the day folder of from into
// the day folder of to, updating their paths in place. Attachments kept
// elsewhere, such as imported legacy files, stay where they are.
func (s *IssueService) moveToDate(atts []domain.Attachment, from, to files.Location) ([]fileMove, error) {
	prefix := from.Dir() + "/"
	var moves []fileMove
	for i := range atts {
		src := files.CleanRel(atts[i].Path)
		if !strings.HasPrefix(src, prefix) || !s.files.Exists(src) {
			continue
		}
		dst, err := s.files.Move(src, to)
		if err != nil {
			s.undoMoves(moves)
			return nil, err
		}
		moves = append(moves, fileMove{from: src, to: dst})
		atts[i].Path = dst
	}
	return moves, nil
}

func (s *IssueService) undoMoves(moves []fileMove) {
	for _, m := range moves {
		if err := s.files.Rename(m.to, m.from); err != nil {
			s.logger.Error("failed to move file back",
				zap.String("from", m.to), zap.String("to", m.from), zap.Error(err))
		}
	}
}

// Delete soft-deletes a report. Its files stay on disk.
func (s *IssueService) Delete(ctx context.Context, kind domain.IssueKind, id int64, actor Actor) error {
	if _, err := s.Get(ctx, kind, id); err != nil {
		return err
	}
	n, err := s.issueRepo.SoftDelete(ctx, id, actor.Username, nowUTC())
	if err != nil {
		return domain.NewInternalError(err)
	}
	if n == 0 {
		return notFound(domain.EntityIssueReport, id, "Data tidak ditemukan atau sudah dihapus")
	}

	s.audit.log(ctx, domain.NewAuditEntry(domain.EntityIssueReport, id, domain.ActionDelete, actor.Username))
	return nil
}

// Attachment returns the attachment at index, checking the file is on disk.
func (s *IssueService) Attachment(ctx context.Context, kind domain.IssueKind, id int64, index int) (domain.Attachment, error) {
	rep, err := s.Get(ctx, kind, id)
	if err != nil {
		return domain.Attachment{}, err
	}
	if index < 0 || index >= len(rep.Attachments) {
		return domain.Attachment{}, domain.NewFileNotFoundError("File tidak ditemukan")
	}
	a := rep.Attachments[index]
	if !s.files.Exists(files.CleanRel(a.Path)) {
		return domain.Attachment{}, domain.NewFileNotFoundError("File tidak ditemukan di server")
	}
	a.Path = files.CleanRel(a.Path)
	return a, nil
}

// Archive builds {judul}-files.zip from the attachments present on disk.
func (s *IssueService) Archive(ctx context.Context, kind domain.IssueKind, id int64) (*Archive, error) {
	rep, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	present := s.presentAttachments(rep.Attachments)
	if len(present) == 0 {
		return nil, domain.NewFileNotFoundError("Tidak ada file untuk didownload")
	}
	return NewArchive(rep.Title+"-files.zip", s.files, export.AttachmentEntries(present)), nil
}

// SearchAgencies backs the stakeholder autocomplete.
func (s *IssueService) SearchAgencies(ctx context.Context, term string) ([]*domain.Agency, error) {
	agencies, err := s.agencyRepo.Search(ctx, strings.TrimSpace(term), agencySearchLimit)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	return agencies, nil
}

// Agencies lists every live agency for the stakeholder picker.
func (s *IssueService) Agencies(ctx context.Context) ([]*domain.Agency, error) {
	agencies, err := s.agencyRepo.List(ctx)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	return agencies, nil
}

// MonitoringFile is an attachment known to exist on disk.
type MonitoringFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// MonitoringItem is a report prepared for the monitoring view.
type MonitoringItem struct {
	*domain.IssueReport
	DateFormatted    string           `json:"tanggal_formatted"`
	StakeholderNames []string         `json:"stakeholder_names_array"`
	Files            []MonitoringFile `json:"files"`
	FileCount        int              `json:"file_count"`
}

func (s *IssueService) monitoringItem(rep *domain.IssueReport) *MonitoringItem {
	present := s.presentAttachments(rep.Attachments)
	fs := make([]MonitoringFile, 0, len(present))
	for _, a := range present {
		fs = append(fs, MonitoringFile{Name: a.Name, URL: files.URL(a.Path), Size: a.Size})
	}
	return &MonitoringItem{
		IssueReport:      rep,
		DateFormatted:    domain.FormatDateLong(rep.Date),
		StakeholderNames: rep.StakeholderNames(),
		Files:            fs,
		FileCount:        len(fs),
	}
}

// Monitoring returns one page of a board for the monitoring view.
func (s *IssueService) Monitoring(ctx context.Context, in IssueListInput) ([]*MonitoringItem, int, error) {
	reports, total, err := s.List(ctx, in)
	if err != nil {
		return nil, 0, err
	}
	items := make([]*MonitoringItem, 0, len(reports))
	for _, rep := range reports {
		items = append(items, s.monitoringItem(rep))
	}
	return items, total, nil
}

// Detail returns a report of any kind for the monitoring detail popup.
func (s *IssueService) Detail(ctx context.Context, id int64) (*MonitoringItem, error) {
	rep, err := s.Get(ctx, 0, id)
	if err != nil {
		if domain.IsCode(err, domain.ErrCodeNotFound) {
			return nil, notFound(domain.EntityIssueReport, id, "Laporan tidak ditemukan")
		}
		return nil, err
	}
	return s.monitoringItem(rep), nil
}

func (s *IssueService) presentAttachments(atts []domain.Attachment) []domain.Attachment {
	present := make([]domain.Attachment, 0, len(atts))
	for _, a := range atts {
		rel := files.CleanRel(a.Path)
		if rel != "" && s.files.Exists(rel) {
			a.Path = rel
			present = append(present, a)
		}
	}
	return present
}

func (s *IssueService) saveUploads(loc files.Location, uploads []Upload) ([]domain.Attachment, error) {
	var saved []domain.Attachment
	for _, u := range uploads {
		a, err := saveUpload(s.files, loc, u)
		if err != nil {
			s.removeFiles(saved)
			return nil, domain.NewInternalError(err)
		}
		saved = append(saved, a)
	}
	return saved, nil
}

func (s *IssueService) removeFiles(atts []domain.Attachment) {
	for _, a := range atts {
		if err := s.files.Remove(files.CleanRel(a.Path)); err != nil {
			s.logger.Warn("failed to remove file", zap.String("path", a.Path), zap.Error(err))
		}
	}
}

func saveUpload(store *files.Store, loc files.Location, u Upload) (domain.Attachment, error) {
	r, err := u.Open()
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("failed to open upload %q: %w", u.Name, err)
	}
	defer r.Close()
	return store.Save(loc, u.Name, r)
}
