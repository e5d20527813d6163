package service

import (
	"context"

	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/store/listquery"
	"github.com/pantau/pantau/internal/store/sqlite"
)

// AuditService handles audit log queries.
type AuditService struct {
	auditRepo *sqlite.AuditRepository
}

// NewAuditService creates a new AuditService.
func NewAuditService(auditRepo *sqlite.AuditRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

// QueryInput contains the input for querying the audit log.
type QueryInput struct {
	Entity    string
	Action    string
	ChangedBy string
	Page      listquery.Page
}

// Query queries the audit log with filters.
func (s *AuditService) Query(ctx context.Context, input QueryInput) ([]*domain.AuditEntry, int, error) {
	if input.Action != "" && !domain.AuditAction(input.Action).IsValid() {
		return nil, 0, domain.NewValidationError([]string{"Aksi audit tidak valid"})
	}
	entries, total, err := s.auditRepo.Query(ctx, sqlite.AuditQueryParams{
		Entity:    input.Entity,
		Action:    input.Action,
		ChangedBy: input.ChangedBy,
		Page:      input.Page,
	})
	if err != nil {
		return nil, 0, domain.NewInternalError(err)
	}
	return entries, total, nil
}

// History returns every entry recorded for one record.
func (s *AuditService) History(ctx context.Context, entity string, id int64) ([]*domain.AuditEntry, error) {
	entries, err := s.auditRepo.ListByEntity(ctx, entity, id)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	return entries, nil
}
