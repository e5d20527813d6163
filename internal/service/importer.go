package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/files"
	"github.com/pantau/pantau/internal/multivalue"
	"github.com/pantau/pantau/internal/store/sqlite"
)

// ImportResult counts what an import did.
type ImportResult struct {
	Agencies int
	Reports  int
	Skipped  int
}

// Importer loads a JSON dump of the legacy tables, where multi-valued
// columns were stored as JSON arrays, comma separated text or a scalar.
type Importer struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewImporter creates a new Importer.
func NewImporter(db *sql.DB, logger *zap.Logger) *Importer {
	return &Importer{db: db, logger: logger}
}

// legacyTable returns the rows of a table from either a phpMyAdmin JSON
// export, an object keyed by table name, or a bare array of rows.
func legacyTable(doc gjson.Result, name string) gjson.Result {
	if doc.IsArray() {
		if t := doc.Get(`#(name=="` + name + `").data`); t.Exists() {
			return t
		}
		if name == "laporan_pimpinan" {
			return doc
		}
		return gjson.Result{}
	}
	return doc.Get(name)
}

// Import reads the dump from r and writes it in one transaction, so a
// failing row leaves the database untouched. Legacy agencies are matched to
// live agencies of the same name or created, and stakeholder references to
// agencies not imported are dropped.
func (s *Importer) Import(ctx context.Context, r io.Reader, actor Actor) (*ImportResult, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read dump: %w", err)
	}
	if !gjson.ValidBytes(raw) {
		return nil, domain.NewValidationError([]string{"File dump bukan JSON yang valid"})
	}
	doc := gjson.ParseBytes(raw)

	var res *ImportResult
	err = sqlite.RunBatch(ctx, s.db, func(b *sqlite.Batch) error {
		res = &ImportResult{}
		agencyIDs, err := importAgencies(ctx, b, legacyTable(doc, "opd"), actor, res)
		if err != nil {
			return err
		}
		return importIssues(ctx, b, legacyTable(doc, "laporan_pimpinan"), agencyIDs, actor, res)
	})
	if err != nil {
		return nil, domain.NewInternalError(err)
	}

	s.logger.Info("legacy import finished",
		zap.Int("agencies", res.Agencies),
		zap.Int("reports", res.Reports),
		zap.Int("skipped", res.Skipped))
	return res, nil
}

// importAgencies returns the new ID of every imported legacy agency, keyed
// by its legacy ID.
func importAgencies(ctx context.Context, b *sqlite.Batch, rows gjson.Result, actor Actor, res *ImportResult) (map[int64]int64, error) {
	agencyIDs := map[int64]int64{}
	var walkErr error
	rows.ForEach(func(_, row gjson.Result) bool {
		name, ok := domain.NormalizeName(row.Get("nama_opd").String())
		if !ok || row.Get("is_deleted").Int() == 1 {
			res.Skipped++
			return true
		}
		id, found, err := b.AgencyIDByName(ctx, name)
		if err != nil {
			walkErr = fmt.Errorf("import opd %q: %w", name, err)
			return false
		}
		if !found {
			now := nowUTC()
			a := &domain.Agency{Name: name, CreatedBy: actor.UserID, CreatedAt: now, UpdatedBy: actor.UserID, UpdatedAt: now}
			if err := b.CreateAgency(ctx, a); err != nil {
				walkErr = fmt.Errorf("import opd %q: %w", name, err)
				return false
			}
			id = a.ID
			res.Agencies++
		}
		agencyIDs[row.Get("id").Int()] = id
		return true
	})
	return agencyIDs, walkErr
}

func importIssues(ctx context.Context, b *sqlite.Batch, rows gjson.Result, agencyIDs map[int64]int64, actor Actor, res *ImportResult) error {
	var walkErr error
	rows.ForEach(func(_, row gjson.Result) bool {
		rep, ok := legacyIssue(row, agencyIDs)
		if !ok {
			res.Skipped++
			return true
		}
		if rep.CreatedBy == "" {
			rep.CreatedBy = actorName(actor)
		}
		if err := b.CreateIssue(ctx, rep); err != nil {
			walkErr = fmt.Errorf("import laporan %q: %w", rep.Title, err)
			return false
		}
		entry := domain.NewAuditEntry(domain.EntityIssueReport, rep.ID, domain.ActionCreate, actorName(actor)).
			WithField("import").
			WithNewValue(rep.Title)
		if err := b.Log(ctx, &entry); err != nil {
			walkErr = fmt.Errorf("audit laporan %q: %w", rep.Title, err)
			return false
		}
		res.Reports++
		return true
	})
	return walkErr
}

func legacyIssue(row gjson.Result, agencyIDs map[int64]int64) (*domain.IssueReport, bool) {
	kind := domain.IssueKind(row.Get("jenis_laporan").Int())
	title := strings.TrimSpace(row.Get("judul").String())
	date, err := domain.ParseDate(legacyDate(row.Get("tanggal_laporan").String()))
	if !kind.IsValid() || title == "" || err != nil || row.Get("is_deleted").Int() == 1 {
		return nil, false
	}

	var stakeholders []int64
	for _, id := range multivalue.IDs(row.Get("stakeholder").String()) {
		if mapped, ok := agencyIDs[id]; ok {
			stakeholders = append(stakeholders, mapped)
		}
	}

	links := row.Get("links")
	if !links.Exists() {
		links = row.Get("link")
	}

	rep := &domain.IssueReport{
		Kind:           kind,
		Title:          title,
		Date:           date,
		Body:           strings.TrimSpace(row.Get("isi_laporan").String()),
		Authorities:    domain.CleanTags(multivalue.Strings(row.Get("kewenangan").String())),
		StakeholderIDs: stakeholders,
		Links:          domain.CleanLinks(multivalue.Strings(links.String())),
		Attachments:    legacyAttachments(row),
		CreatedBy:      strings.TrimSpace(row.Get("created_by").String()),
		CreatedAt:      legacyTime(row.Get("created_at").String()),
	}
	return rep, true
}

// legacyAttachments reads the file columns of a legacy row. A file_path
// that is not a JSON list names exactly one file, commas included.
// Otherwise file_name and file_path are paired by index and file_size is
// spread evenly across them.
func legacyAttachments(row gjson.Result) []domain.Attachment {
	rawPath := strings.TrimSpace(row.Get("file_path").String())
	rawName := strings.TrimSpace(row.Get("file_name").String())
	total := row.Get("file_size").Int()
	if rawPath == "" || rawPath == "null" {
		return nil
	}

	if !isJSONList(rawPath) {
		a := domain.Attachment{Path: files.CleanRel(rawPath), Size: total}
		a.Name = path.Base(a.Path)
		if rawName != "" && !isJSONList(rawName) {
			a.Name = rawName
		}
		return []domain.Attachment{a}
	}

	paths := multivalue.Files(rawPath)
	if len(paths) == 0 {
		return nil
	}
	var names []string
	if isJSONList(rawName) {
		names = multivalue.Strings(rawName)
	}

	atts := make([]domain.Attachment, 0, len(paths))
	for i, f := range paths {
		a := domain.Attachment{Name: f.Name, Path: files.CleanRel(f.Path), Size: f.Size}
		if i < len(names) && names[i] != "" {
			a.Name = names[i]
		}
		if a.Size == 0 && total > 0 {
			a.Size = total / int64(len(paths))
		}
		atts = append(atts, a)
	}
	return atts
}

func isJSONList(s string) bool {
	return strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{")
}

func legacyDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > len(domain.DateLayout) {
		s = s[:len(domain.DateLayout)]
	}
	return s
}

func legacyTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", domain.DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return nowUTC()
}
