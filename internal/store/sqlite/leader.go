package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pantau/pantau/internal/domain"
)

const leaderColumns = "id_pimpinan, jabatan_pimpinan, created_by, created_at, updated_by, updated_at"

// LeaderRepository handles kategori_pimpinan persistence operations.
type LeaderRepository struct {
	db *sql.DB
}

// NewLeaderRepository creates a new LeaderRepository.
func NewLeaderRepository(db *sql.DB) *LeaderRepository {
	return &LeaderRepository{db: db}
}

// Create inserts a leader and sets its ID.
func (r *LeaderRepository) Create(ctx context.Context, l *domain.Leader) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO kategori_pimpinan (jabatan_pimpinan, created_by, created_at, updated_by, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, l.Position, l.CreatedBy, formatTime(l.CreatedAt), l.UpdatedBy, formatTime(l.UpdatedAt))
	if err != nil {
		return err
	}
	l.ID, err = res.LastInsertId()
	return err
}

// GetByID retrieves a live leader. Returns sql.ErrNoRows when missing or deleted.
func (r *LeaderRepository) GetByID(ctx context.Context, id int64) (*domain.Leader, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+leaderColumns+` FROM kategori_pimpinan WHERE id_pimpinan = ? AND deleted_at IS NULL
	`, id)
	return scanLeader(row)
}

// GetAnyByID retrieves a leader even when soft deleted. Existing staff
// reports still file under a deleted leader's folder.
func (r *LeaderRepository) GetAnyByID(ctx context.Context, id int64) (*domain.Leader, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+leaderColumns+` FROM kategori_pimpinan WHERE id_pimpinan = ?
	`, id)
	return scanLeader(row)
}

// List returns all live leaders ordered by position.
func (r *LeaderRepository) List(ctx context.Context) ([]*domain.Leader, error) {
	return r.query(ctx, `
		SELECT `+leaderColumns+` FROM kategori_pimpinan WHERE deleted_at IS NULL ORDER BY jabatan_pimpinan ASC
	`)
}

// ListAll returns every leader including deleted ones.
func (r *LeaderRepository) ListAll(ctx context.Context) ([]*domain.Leader, error) {
	return r.query(ctx, `
		SELECT `+leaderColumns+` FROM kategori_pimpinan ORDER BY jabatan_pimpinan ASC
	`)
}

// Update changes a live leader's position and returns the rows affected.
func (r *LeaderRepository) Update(ctx context.Context, l *domain.Leader) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE kategori_pimpinan SET jabatan_pimpinan = ?, updated_by = ?, updated_at = ?
		WHERE id_pimpinan = ? AND deleted_at IS NULL
	`, l.Position, l.UpdatedBy, formatTime(l.UpdatedAt), l.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SoftDelete marks a live leader deleted and returns the rows affected.
func (r *LeaderRepository) SoftDelete(ctx context.Context, id, by int64, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE kategori_pimpinan SET deleted_at = ?, updated_by = ?, updated_at = ?
		WHERE id_pimpinan = ? AND deleted_at IS NULL
	`, formatTime(at), by, formatTime(at), id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Count returns the number of live leaders.
func (r *LeaderRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM kategori_pimpinan WHERE deleted_at IS NULL").Scan(&n)
	return n, err
}

func (r *LeaderRepository) query(ctx context.Context, q string, args ...any) ([]*domain.Leader, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leaders []*domain.Leader
	for rows.Next() {
		l, err := scanLeader(rows)
		if err != nil {
			return nil, err
		}
		leaders = append(leaders, l)
	}
	return leaders, rows.Err()
}

func scanLeader(s scanner) (*domain.Leader, error) {
	var l domain.Leader
	var createdBy, updatedBy sql.NullInt64
	var createdAt, updatedAt string
	if err := s.Scan(&l.ID, &l.Position, &createdBy, &createdAt, &updatedBy, &updatedAt); err != nil {
		return nil, err
	}
	l.CreatedBy = createdBy.Int64
	l.UpdatedBy = updatedBy.Int64
	l.CreatedAt = parseTime(createdAt)
	l.UpdatedAt = parseTime(updatedAt)
	return &l, nil
}
