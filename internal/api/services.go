package api

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/pantau/pantau/internal/files"
	"github.com/pantau/pantau/internal/service"
	"github.com/pantau/pantau/internal/store/sqlite"
)

// NewServices builds every service over one database and upload tree.
func NewServices(db *sql.DB, store *files.Store, logger *zap.Logger) Services {
	userRepo := sqlite.NewUserRepository(db)
	agencyRepo := sqlite.NewAgencyRepository(db)
	leaderRepo := sqlite.NewLeaderRepository(db)
	mediaRepo := sqlite.NewMediaTypeRepository(db)
	issueRepo := sqlite.NewIssueRepository(db)
	staffRepo := sqlite.NewStaffRepository(db)
	auditRepo := sqlite.NewAuditRepository(db)

	return Services{
		Auth:      service.NewAuthService(userRepo),
		Agencies:  service.NewAgencyService(agencyRepo, auditRepo, logger),
		Leaders:   service.NewLeaderService(leaderRepo, auditRepo, logger),
		Media:     service.NewMediaService(mediaRepo),
		Issues:    service.NewIssueService(issueRepo, agencyRepo, auditRepo, store, logger),
		Staff:     service.NewStaffService(staffRepo, leaderRepo, mediaRepo, auditRepo, store, logger),
		Audit:     service.NewAuditService(auditRepo),
		Dashboard: service.NewDashboardService(issueRepo, staffRepo, agencyRepo, leaderRepo),
		Importer:  service.NewImporter(db, logger),
	}
}
