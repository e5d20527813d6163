package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/store/sqlite"
)

// DashboardCounts are the totals shown on the home page.
type DashboardCounts struct {
	Issues   map[domain.IssueKind]int `json:"issues"`
	Staff    int                      `json:"staff"`
	Agencies int                      `json:"agencies"`
	Leaders  int                      `json:"leaders"`
}

// DashboardService aggregates counts across the boards.
type DashboardService struct {
	issueRepo  *sqlite.IssueRepository
	staffRepo  *sqlite.StaffRepository
	agencyRepo *sqlite.AgencyRepository
	leaderRepo *sqlite.LeaderRepository
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(
	issueRepo *sqlite.IssueRepository,
	staffRepo *sqlite.StaffRepository,
	agencyRepo *sqlite.AgencyRepository,
	leaderRepo *sqlite.LeaderRepository,
) *DashboardService {
	return &DashboardService{
		issueRepo:  issueRepo,
		staffRepo:  staffRepo,
		agencyRepo: agencyRepo,
		leaderRepo: leaderRepo,
	}
}

// Counts returns the live record totals.
func (s *DashboardService) Counts(ctx context.Context) (*DashboardCounts, error) {
	var c DashboardCounts
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		c.Issues, err = s.issueRepo.CountByKind(ctx)
		return err
	})
	g.Go(func() (err error) {
		c.Staff, err = s.staffRepo.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		c.Agencies, err = s.agencyRepo.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		c.Leaders, err = s.leaderRepo.Count(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, domain.NewInternalError(err)
	}
	return &c, nil
}
