package sqlite

import (
	"context"
	"database/sql"

	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/store/listquery"
)

const auditColumns = "id, entity, entity_id, action, field, old_value, new_value, changed_at, changed_by"

// AuditRepository handles audit log persistence operations.
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Log creates an audit log entry.
func (r *AuditRepository) Log(ctx context.Context, entry *domain.AuditEntry) error {
	return insertAudit(ctx, r.db, entry)
}

func insertAudit(ctx context.Context, db execer, entry *domain.AuditEntry) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO audit_log (entity, entity_id, action, field, old_value, new_value, changed_at, changed_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.Entity,
		entry.EntityID,
		string(entry.Action),
		entry.Field,
		entry.OldValue,
		entry.NewValue,
		formatTime(entry.ChangedAt),
		entry.ChangedBy,
	)
	return err
}

// ListByEntity returns all audit entries for one record, newest first.
func (r *AuditRepository) ListByEntity(ctx context.Context, entity string, id int64) ([]*domain.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+auditColumns+`
		FROM audit_log
		WHERE entity = ? AND entity_id = ?
		ORDER BY changed_at DESC, id DESC
	`, entity, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.AuditEntry
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// AuditQueryParams contains parameters for querying the audit log.
type AuditQueryParams struct {
	Entity    string
	Action    string
	ChangedBy string
	Page      listquery.Page
}

// Query queries the audit log with filters and pagination.
func (r *AuditRepository) Query(ctx context.Context, params AuditQueryParams) ([]*domain.AuditEntry, int, error) {
	q := listquery.New("audit_log").OrderBy("changed_at DESC, id DESC")
	if params.Entity != "" {
		q.Eq("entity", params.Entity)
	}
	if params.Action != "" {
		q.Eq("action", params.Action)
	}
	if params.ChangedBy != "" {
		q.Eq("changed_by", params.ChangedBy)
	}

	var entries []*domain.AuditEntry
	total, err := q.Run(ctx, r.db, auditColumns, params.Page, func(rows *sql.Rows) error {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func scanAuditEntry(rows *sql.Rows) (*domain.AuditEntry, error) {
	var entry domain.AuditEntry
	var action, changedAt string
	var field, oldValue, newValue sql.NullString

	err := rows.Scan(
		&entry.ID,
		&entry.Entity,
		&entry.EntityID,
		&action,
		&field,
		&oldValue,
		&newValue,
		&changedAt,
		&entry.ChangedBy,
	)
	if err != nil {
		return nil, err
	}

	entry.Action = domain.AuditAction(action)
	entry.Field = nullString(field)
	entry.OldValue = nullString(oldValue)
	entry.NewValue = nullString(newValue)
	entry.ChangedAt = parseTime(changedAt)
	return &entry, nil
}
