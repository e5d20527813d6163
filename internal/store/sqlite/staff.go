package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/store/listquery"
)

const (
	staffFrom = `laporan_staff s
	LEFT JOIN kategori_pimpinan p ON p.id_pimpinan = s.id_pimpinan
	LEFT JOIN jenis j ON j.id_jenis = s.id_jenis`

	staffColumns = `s.id, s.jenis_laporan, s.id_pimpinan, p.jabatan_pimpinan, s.id_jenis, j.nama_jenis,
	s.tanggal_laporan, s.judul, s.isi_laporan, s.file_name, s.file_path, s.file_size,
	s.created_by, s.created_at, s.updated_by, s.updated_at`
)

// StaffRepository handles laporan_staff persistence operations.
type StaffRepository struct {
	db *sql.DB
}

// NewStaffRepository creates a new StaffRepository.
func NewStaffRepository(db *sql.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// StaffFilter holds the staff report list filters. Empty values are ignored.
type StaffFilter struct {
	// SearchTitle and SearchBody are OR-ed together.
	SearchTitle string
	SearchBody  string
	LeaderID    *int64
	Type        domain.StaffReportType
	// A single date bound matches that exact date.
	DateFrom string
	DateTo   string
	Page     listquery.Page
}

func attachmentColumns(a *domain.Attachment) (name, path *string, size *int64) {
	if a == nil {
		return nil, nil, nil
	}
	return &a.Name, &a.Path, &a.Size
}

// Create inserts a staff report and sets its ID.
func (r *StaffRepository) Create(ctx context.Context, rep *domain.StaffReport) error {
	name, path, size := attachmentColumns(rep.Attachment)
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO laporan_staff (jenis_laporan, id_pimpinan, id_jenis, tanggal_laporan, judul, isi_laporan,
			file_name, file_path, file_size, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		int(rep.Type), rep.LeaderID, rep.MediaTypeID, datePtr(rep.Date), rep.Title, rep.Body,
		name, path, size, rep.CreatedBy, formatTime(rep.CreatedAt),
	)
	if err != nil {
		return err
	}
	rep.ID, err = res.LastInsertId()
	return err
}

// GetByID retrieves a live staff report. Returns sql.ErrNoRows when missing or deleted.
func (r *StaffRepository) GetByID(ctx context.Context, id int64) (*domain.StaffReport, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+staffColumns+` FROM `+staffFrom+` WHERE s.id = ? AND s.deleted_at IS NULL
	`, id)
	return scanStaff(row)
}

// List returns one page of live staff reports matching the filter and the total count.
func (r *StaffRepository) List(ctx context.Context, f StaffFilter) ([]*domain.StaffReport, int, error) {
	q := listquery.New(staffFrom).
		Where("s.deleted_at IS NULL").
		AnyLike(
			listquery.Match{Column: "s.judul", Term: f.SearchTitle},
			listquery.Match{Column: "s.isi_laporan", Term: f.SearchBody},
		).
		EqInt("s.id_pimpinan", f.LeaderID).
		DateRange("s.tanggal_laporan", f.DateFrom, f.DateTo, listquery.ExactSingle).
		OrderBy("s.tanggal_laporan DESC, s.id DESC")
	if f.Type != 0 {
		q.Eq("s.jenis_laporan", int(f.Type))
	}

	var reports []*domain.StaffReport
	total, err := q.Run(ctx, r.db, staffColumns, f.Page, func(rows *sql.Rows) error {
		rep, err := scanStaff(rows)
		if err != nil {
			return err
		}
		reports = append(reports, rep)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// Update rewrites the editable fields of a live report. Returns sql.ErrNoRows
// when the report is missing or deleted.
func (r *StaffRepository) Update(ctx context.Context, rep *domain.StaffReport) error {
	name, path, size := attachmentColumns(rep.Attachment)
	res, err := r.db.ExecContext(ctx, `
		UPDATE laporan_staff
		SET jenis_laporan = ?, id_pimpinan = ?, id_jenis = ?, tanggal_laporan = ?, judul = ?, isi_laporan = ?,
			file_name = ?, file_path = ?, file_size = ?, updated_by = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`,
		int(rep.Type), rep.LeaderID, rep.MediaTypeID, datePtr(rep.Date), rep.Title, rep.Body,
		name, path, size, rep.UpdatedBy, timePtr(rep.UpdatedAt), rep.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SoftDelete marks a live report deleted and returns the rows affected.
func (r *StaffRepository) SoftDelete(ctx context.Context, id int64, by string, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE laporan_staff SET deleted_at = ?, updated_by = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, formatTime(at), by, formatTime(at), id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Count returns the number of live staff reports.
func (r *StaffRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM laporan_staff WHERE deleted_at IS NULL").Scan(&n)
	return n, err
}

func scanStaff(s scanner) (*domain.StaffReport, error) {
	var rep domain.StaffReport
	var typ int
	var leaderID, mediaID, fileSize sql.NullInt64
	var leaderPos, mediaName, date, body, fileName, filePath, updatedBy, updatedAt sql.NullString
	var createdAt string

	err := s.Scan(
		&rep.ID, &typ, &leaderID, &leaderPos, &mediaID, &mediaName,
		&date, &rep.Title, &body, &fileName, &filePath, &fileSize,
		&rep.CreatedBy, &createdAt, &updatedBy, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	rep.Type = domain.StaffReportType(typ)
	rep.LeaderID = nullInt64(leaderID)
	rep.LeaderPosition = leaderPos.String
	rep.MediaTypeID = nullInt64(mediaID)
	rep.MediaTypeName = mediaName.String
	rep.Date = nullDate(date)
	rep.Body = nullString(body)
	if filePath.Valid && filePath.String != "" {
		rep.Attachment = &domain.Attachment{
			Name: fileName.String,
			Path: filePath.String,
			Size: fileSize.Int64,
		}
	}
	rep.CreatedAt = parseTime(createdAt)
	rep.UpdatedBy = nullString(updatedBy)
	rep.UpdatedAt = nullTime(updatedAt)
	return &rep, nil
}
