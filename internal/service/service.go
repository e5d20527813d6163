// Package service holds the business rules of the admin application. Every
// service takes its repositories in the constructor and returns
// *domain.DomainError values the web layer can render directly.
package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/store/sqlite"
)

// Actor is the logged-in operator performing a change.
type Actor struct {
	UserID   int64
	Username string
}

// Valid reports whether the actor comes from a real session.
func (a Actor) Valid() bool {
	return a.UserID > 0
}

var errInvalidSession = domain.NewUnauthorizedError("Sesi pengguna tidak valid")

// auditor writes audit entries. A failed write is logged and never fails
// the change that triggered it.
type auditor struct {
	repo   *sqlite.AuditRepository
	logger *zap.Logger
}

func (a auditor) log(ctx context.Context, e domain.AuditEntry) {
	if err := a.repo.Log(ctx, &e); err != nil {
		a.logger.Warn("failed to write audit entry",
			zap.String("entity", e.Entity),
			zap.Int64("entity_id", e.EntityID),
			zap.String("action", string(e.Action)),
			zap.Error(err))
	}
}

func (a auditor) change(ctx context.Context, entity string, id int64, by, field, oldValue, newValue string) {
	if oldValue == newValue {
		return
	}
	a.log(ctx, domain.NewAuditEntry(entity, id, domain.ActionUpdate, by).
		WithField(field).
		WithOldValue(oldValue).
		WithNewValue(newValue))
}

func notFound(entity string, id int64, message string) *domain.DomainError {
	e := domain.NewNotFoundError(entity, id)
	e.Message = message
	return e
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func userIDString(id int64) string {
	return strconv.FormatInt(id, 10)
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
