package sqlite

import (
	"context"
	"database/sql"

	"github.com/pantau/pantau/internal/domain"
)

// UserRepository handles operator account persistence.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user and sets its ID.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (username, password, created_at) VALUES (?, ?, ?)
	`, u.Username, u.PasswordHash, formatTime(u.CreatedAt))
	if err != nil {
		return err
	}
	u.ID, err = res.LastInsertId()
	return err
}

// GetByUsername looks a user up by exact username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	var createdAt string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, password, created_at FROM users WHERE username = ?
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt)
	if err != nil {
		return nil, err
	}
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

// UpdatePassword replaces a user's password hash and returns the rows affected.
func (r *UserRepository) UpdatePassword(ctx context.Context, username, hash string) (int64, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET password = ? WHERE username = ?", hash, username)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MediaTypeRepository handles the jenis lookup table.
type MediaTypeRepository struct {
	db *sql.DB
}

// NewMediaTypeRepository creates a new MediaTypeRepository.
func NewMediaTypeRepository(db *sql.DB) *MediaTypeRepository {
	return &MediaTypeRepository{db: db}
}

// Create inserts a media type and sets its ID.
func (r *MediaTypeRepository) Create(ctx context.Context, m *domain.MediaType) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO jenis (nama_jenis) VALUES (?)", m.Name)
	if err != nil {
		return err
	}
	m.ID, err = res.LastInsertId()
	return err
}

// List returns all media types ordered by name.
func (r *MediaTypeRepository) List(ctx context.Context) ([]*domain.MediaType, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id_jenis, nama_jenis FROM jenis ORDER BY nama_jenis ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []*domain.MediaType
	for rows.Next() {
		var m domain.MediaType
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, err
		}
		types = append(types, &m)
	}
	return types, rows.Err()
}
