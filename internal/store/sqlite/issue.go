package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/store/listquery"
)

const issueColumns = `r.id, r.jenis_laporan, r.judul, r.tanggal_laporan, r.isi_laporan,
	r.created_by, r.created_at, r.updated_by, r.updated_at`

// IssueRepository handles laporan_pimpinan persistence, including the child
// tables for authority tags, stakeholders, links and attachments.
type IssueRepository struct {
	db *sql.DB
}

// NewIssueRepository creates a new IssueRepository.
func NewIssueRepository(db *sql.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

// IssueFilter holds the list filters of an issue board. Empty values are ignored.
type IssueFilter struct {
	Kind      domain.IssueKind
	DateFrom  string
	DateTo    string
	Title     string
	Body      string
	Search    string // title OR body
	Authority string
	// StakeholderIDs matches reports naming any of the agencies.
	StakeholderIDs []int64
	Page           listquery.Page
}

// Create inserts a report with its child rows and sets its ID.
func (r *IssueRepository) Create(ctx context.Context, rep *domain.IssueReport) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return insertIssue(ctx, tx, rep)
	})
}

func insertIssue(ctx context.Context, tx *sql.Tx, rep *domain.IssueReport) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO laporan_pimpinan (jenis_laporan, judul, tanggal_laporan, isi_laporan, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, int(rep.Kind), rep.Title, domain.FormatDate(rep.Date), rep.Body, rep.CreatedBy, formatTime(rep.CreatedAt))
	if err != nil {
		return err
	}
	if rep.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	return insertIssueChildren(ctx, tx, rep)
}

// Update rewrites a live report and replaces its child rows. Returns
// sql.ErrNoRows when the report is missing or deleted.
func (r *IssueRepository) Update(ctx context.Context, rep *domain.IssueReport) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE laporan_pimpinan
			SET judul = ?, tanggal_laporan = ?, isi_laporan = ?, updated_by = ?, updated_at = ?
			WHERE id = ? AND deleted_at IS NULL
		`, rep.Title, domain.FormatDate(rep.Date), rep.Body, rep.UpdatedBy, timePtr(rep.UpdatedAt), rep.ID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return sql.ErrNoRows
		}

		for _, table := range []string{"laporan_kewenangan", "laporan_stakeholder", "laporan_link", "laporan_file"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE laporan_id = ?", rep.ID); err != nil {
				return err
			}
		}
		return insertIssueChildren(ctx, tx, rep)
	})
}

func insertIssueChildren(ctx context.Context, tx *sql.Tx, rep *domain.IssueReport) error {
	for i, tag := range rep.Authorities {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO laporan_kewenangan (laporan_id, position, kewenangan) VALUES (?, ?, ?)",
			rep.ID, i, tag); err != nil {
			return fmt.Errorf("insert authority: %w", err)
		}
	}
	// Unknown agency IDs are skipped rather than failing the foreign key
	for i, id := range rep.StakeholderIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO laporan_stakeholder (laporan_id, opd_id, position)
			SELECT ?, id, ? FROM opd WHERE id = ?
		`, rep.ID, i, id); err != nil {
			return fmt.Errorf("insert stakeholder: %w", err)
		}
	}
	for i, link := range rep.Links {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO laporan_link (laporan_id, position, url) VALUES (?, ?, ?)",
			rep.ID, i, link); err != nil {
			return fmt.Errorf("insert link: %w", err)
		}
	}
	for i := range rep.Attachments {
		a := &rep.Attachments[i]
		a.Position = i
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO laporan_file (laporan_id, position, name, path, size) VALUES (?, ?, ?, ?, ?)",
			rep.ID, a.Position, a.Name, a.Path, a.Size); err != nil {
			return fmt.Errorf("insert attachment: %w", err)
		}
	}
	return nil
}

// GetByID retrieves a live report with its child rows. Returns sql.ErrNoRows
// when missing or deleted.
func (r *IssueRepository) GetByID(ctx context.Context, id int64) (*domain.IssueReport, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+issueColumns+` FROM laporan_pimpinan r WHERE r.id = ? AND r.deleted_at IS NULL
	`, id)
	rep, err := scanIssue(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, []*domain.IssueReport{rep}); err != nil {
		return nil, err
	}
	return rep, nil
}

// List returns one page of live reports matching the filter and the total count.
func (r *IssueRepository) List(ctx context.Context, f IssueFilter) ([]*domain.IssueReport, int, error) {
	q := listquery.New("laporan_pimpinan r").
		Where("r.deleted_at IS NULL").
		DateRange("r.tanggal_laporan", f.DateFrom, f.DateTo, listquery.OpenEnded).
		Like("r.judul", f.Title).
		Like("r.isi_laporan", f.Body).
		AnyLike(
			listquery.Match{Column: "r.judul", Term: f.Search},
			listquery.Match{Column: "r.isi_laporan", Term: f.Search},
		).
		ExistsLike("SELECT 1 FROM laporan_kewenangan k WHERE k.laporan_id = r.id AND k.kewenangan LIKE ?", f.Authority).
		ExistsIn("SELECT 1 FROM laporan_stakeholder s WHERE s.laporan_id = r.id AND s.opd_id IN (%s)", f.StakeholderIDs).
		OrderBy("r.tanggal_laporan DESC, r.created_at DESC, r.id DESC")
	if f.Kind != 0 {
		q.Eq("r.jenis_laporan", int(f.Kind))
	}

	var reports []*domain.IssueReport
	total, err := q.Run(ctx, r.db, issueColumns, f.Page, func(rows *sql.Rows) error {
		rep, err := scanIssue(rows)
		if err != nil {
			return err
		}
		reports = append(reports, rep)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	if err := r.loadChildren(ctx, reports); err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// SoftDelete marks a live report deleted and returns the rows affected.
func (r *IssueRepository) SoftDelete(ctx context.Context, id int64, by string, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE laporan_pimpinan SET deleted_at = ?, updated_by = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, formatTime(at), by, formatTime(at), id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountByKind returns the number of live reports per kind.
func (r *IssueRepository) CountByKind(ctx context.Context) (map[domain.IssueKind]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT jenis_laporan, COUNT(*) FROM laporan_pimpinan
		WHERE deleted_at IS NULL GROUP BY jenis_laporan
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.IssueKind]int)
	for rows.Next() {
		var kind, n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[domain.IssueKind(kind)] = n
	}
	return counts, rows.Err()
}

func (r *IssueRepository) loadChildren(ctx context.Context, reports []*domain.IssueReport) error {
	if len(reports) == 0 {
		return nil
	}
	byID := make(map[int64]*domain.IssueReport, len(reports))
	args := make([]any, len(reports))
	for i, rep := range reports {
		byID[rep.ID] = rep
		args[i] = rep.ID
		rep.Authorities = []string{}
		rep.StakeholderIDs = []int64{}
		rep.Stakeholders = []domain.Agency{}
		rep.Links = []string{}
		rep.Attachments = []domain.Attachment{}
	}
	in := "(" + listquery.Placeholders(len(reports)) + ")"

	err := eachRow(ctx, r.db, `
		SELECT laporan_id, kewenangan FROM laporan_kewenangan
		WHERE laporan_id IN `+in+` ORDER BY laporan_id, position
	`, args, func(rows *sql.Rows) error {
		var id int64
		var tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return err
		}
		byID[id].Authorities = append(byID[id].Authorities, tag)
		return nil
	})
	if err != nil {
		return fmt.Errorf("load authorities: %w", err)
	}

	err = eachRow(ctx, r.db, `
		SELECT s.laporan_id, o.id, o.nama_opd, o.deleted_at IS NOT NULL
		FROM laporan_stakeholder s JOIN opd o ON o.id = s.opd_id
		WHERE s.laporan_id IN `+in+` ORDER BY s.laporan_id, s.position
	`, args, func(rows *sql.Rows) error {
		var id int64
		var a domain.Agency
		var deleted bool
		if err := rows.Scan(&id, &a.ID, &a.Name, &deleted); err != nil {
			return err
		}
		rep := byID[id]
		rep.StakeholderIDs = append(rep.StakeholderIDs, a.ID)
		if !deleted {
			rep.Stakeholders = append(rep.Stakeholders, a)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("load stakeholders: %w", err)
	}

	err = eachRow(ctx, r.db, `
		SELECT laporan_id, url FROM laporan_link
		WHERE laporan_id IN `+in+` ORDER BY laporan_id, position
	`, args, func(rows *sql.Rows) error {
		var id int64
		var url string
		if err := rows.Scan(&id, &url); err != nil {
			return err
		}
		byID[id].Links = append(byID[id].Links, url)
		return nil
	})
	if err != nil {
		return fmt.Errorf("load links: %w", err)
	}

	err = eachRow(ctx, r.db, `
		SELECT laporan_id, position, name, path, size FROM laporan_file
		WHERE laporan_id IN `+in+` ORDER BY laporan_id, position
	`, args, func(rows *sql.Rows) error {
		var id int64
		var a domain.Attachment
		if err := rows.Scan(&id, &a.Position, &a.Name, &a.Path, &a.Size); err != nil {
			return err
		}
		byID[id].Attachments = append(byID[id].Attachments, a)
		return nil
	})
	if err != nil {
		return fmt.Errorf("load attachments: %w", err)
	}
	return nil
}

func scanIssue(s scanner) (*domain.IssueReport, error) {
	var rep domain.IssueReport
	var kind int
	var date, createdAt string
	var updatedBy, updatedAt sql.NullString
	err := s.Scan(&rep.ID, &kind, &rep.Title, &date, &rep.Body,
		&rep.CreatedBy, &createdAt, &updatedBy, &updatedAt)
	if err != nil {
		return nil, err
	}
	rep.Kind = domain.IssueKind(kind)
	rep.Date, _ = domain.ParseDate(date)
	rep.CreatedAt = parseTime(createdAt)
	rep.UpdatedBy = nullString(updatedBy)
	rep.UpdatedAt = nullTime(updatedAt)
	return &rep, nil
}
