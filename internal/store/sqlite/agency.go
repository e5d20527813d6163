package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/store/listquery"
)

const agencyColumns = "id, nama_opd, created_by, created_at, updated_by, updated_at"

// AgencyRepository handles OPD persistence operations.
type AgencyRepository struct {
	db *sql.DB
}

// NewAgencyRepository creates a new AgencyRepository.
func NewAgencyRepository(db *sql.DB) *AgencyRepository {
	return &AgencyRepository{db: db}
}

// Create inserts an agency and sets its ID.
func (r *AgencyRepository) Create(ctx context.Context, a *domain.Agency) error {
	return insertAgency(ctx, r.db, a)
}

func insertAgency(ctx context.Context, db execer, a *domain.Agency) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO opd (nama_opd, created_by, created_at, updated_by, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, a.Name, a.CreatedBy, formatTime(a.CreatedAt), a.UpdatedBy, formatTime(a.UpdatedAt))
	if err != nil {
		return err
	}
	a.ID, err = res.LastInsertId()
	return err
}

// GetByID retrieves a live agency. Returns sql.ErrNoRows when missing or deleted.
func (r *AgencyRepository) GetByID(ctx context.Context, id int64) (*domain.Agency, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+agencyColumns+` FROM opd WHERE id = ? AND deleted_at IS NULL
	`, id)
	return scanAgency(row)
}

// List returns all live agencies ordered by name.
func (r *AgencyRepository) List(ctx context.Context) ([]*domain.Agency, error) {
	return r.query(ctx, `
		SELECT `+agencyColumns+` FROM opd WHERE deleted_at IS NULL ORDER BY nama_opd ASC
	`)
}

// Search returns live agencies whose name contains term, at most limit rows.
func (r *AgencyRepository) Search(ctx context.Context, term string, limit int) ([]*domain.Agency, error) {
	q := `SELECT ` + agencyColumns + ` FROM opd WHERE deleted_at IS NULL`
	args := []any{}
	if term != "" {
		q += " AND nama_opd LIKE ?"
		args = append(args, "%"+term+"%")
	}
	q += " ORDER BY nama_opd ASC LIMIT ?"
	args = append(args, limit)
	return r.query(ctx, q, args...)
}

// ListByIDs returns the live agencies among ids, in the order of ids.
func (r *AgencyRepository) ListByIDs(ctx context.Context, ids []int64) ([]*domain.Agency, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	found, err := r.query(ctx, `
		SELECT `+agencyColumns+` FROM opd
		WHERE deleted_at IS NULL AND id IN (`+listquery.Placeholders(len(ids))+`)
	`, args...)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*domain.Agency, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}
	ordered := make([]*domain.Agency, 0, len(found))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			ordered = append(ordered, a)
			delete(byID, id)
		}
	}
	return ordered, nil
}

// Update renames a live agency and returns the number of rows affected.
func (r *AgencyRepository) Update(ctx context.Context, a *domain.Agency) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE opd SET nama_opd = ?, updated_by = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, a.Name, a.UpdatedBy, formatTime(a.UpdatedAt), a.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SoftDelete marks a live agency deleted and returns the number of rows affected.
func (r *AgencyRepository) SoftDelete(ctx context.Context, id, by int64, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE opd SET deleted_at = ?, updated_by = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, formatTime(at), by, formatTime(at), id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Count returns the number of live agencies.
func (r *AgencyRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM opd WHERE deleted_at IS NULL").Scan(&n)
	return n, err
}

func (r *AgencyRepository) query(ctx context.Context, q string, args ...any) ([]*domain.Agency, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agencies []*domain.Agency
	for rows.Next() {
		a, err := scanAgency(rows)
		if err != nil {
			return nil, err
		}
		agencies = append(agencies, a)
	}
	return agencies, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAgency(s scanner) (*domain.Agency, error) {
	var a domain.Agency
	var createdBy, updatedBy sql.NullInt64
	var createdAt, updatedAt string
	if err := s.Scan(&a.ID, &a.Name, &createdBy, &createdAt, &updatedBy, &updatedAt); err != nil {
		return nil, err
	}
	a.CreatedBy = createdBy.Int64
	a.UpdatedBy = updatedBy.Int64
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return &a, nil
}
