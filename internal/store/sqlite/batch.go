package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pantau/pantau/internal/domain"
)

// Batch writes agencies, issue reports and audit entries inside a single
// transaction opened by RunBatch.
type Batch struct {
	tx *sql.Tx
}

// RunBatch runs fn in one transaction. Nothing fn wrote is kept when it
// returns an error.
func RunBatch(ctx context.Context, db *sql.DB, fn func(*Batch) error) error {
	return withTx(ctx, db, func(tx *sql.Tx) error {
		return fn(&Batch{tx: tx})
	})
}

// AgencyIDByName returns the ID of the oldest live agency named name.
func (b *Batch) AgencyIDByName(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := b.tx.QueryRowContext(ctx, `
		SELECT id FROM opd WHERE nama_opd = ? AND deleted_at IS NULL ORDER BY id LIMIT 1
	`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// CreateAgency inserts an agency and sets its ID.
func (b *Batch) CreateAgency(ctx context.Context, a *domain.Agency) error {
	return insertAgency(ctx, b.tx, a)
}

// CreateIssue inserts a report with its child rows and sets its ID.
func (b *Batch) CreateIssue(ctx context.Context, rep *domain.IssueReport) error {
	return insertIssue(ctx, b.tx, rep)
}

// Log creates an audit log entry.
func (b *Batch) Log(ctx context.Context, entry *domain.AuditEntry) error {
	return insertAudit(ctx, b.tx, entry)
}
