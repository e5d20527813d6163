package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/store"
	"github.com/pantau/pantau/internal/store/listquery"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func createAgency(t *testing.T, repo *AgencyRepository, name string) *domain.Agency {
	t.Helper()
	now := time.Now().UTC()
	a := &domain.Agency{Name: name, CreatedBy: 1, UpdatedBy: 1, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(context.Background(), a))
	return a
}

func TestAgencyRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewAgencyRepository(newTestDB(t))

	b := createAgency(t, repo, "Dinas Kesehatan")
	a := createAgency(t, repo, "Bappeda")

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Bappeda", list[0].Name, "list is ordered by name")

	b.Name = "Dinas Kesehatan Provinsi"
	b.UpdatedAt = time.Now().UTC()
	n, err := repo.Update(ctx, b)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dinas Kesehatan Provinsi", got.Name)

	n, err = repo.SoftDelete(ctx, a.ID, 1, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = repo.SoftDelete(ctx, a.ID, 1, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 0, n, "second delete affects nothing")

	_, err = repo.GetByID(ctx, a.ID)
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	n, err = repo.Update(ctx, &domain.Agency{ID: a.ID, Name: "x"})
	require.NoError(t, err)
	assert.EqualValues(t, 0, n, "deleted agencies cannot be renamed")

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAgencyRepository_SearchAndByIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewAgencyRepository(newTestDB(t))

	a := createAgency(t, repo, "Dinas Pendidikan")
	b := createAgency(t, repo, "Dinas Perhubungan")
	c := createAgency(t, repo, "Inspektorat")

	found, err := repo.Search(ctx, "Dinas", 10)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	limited, err := repo.Search(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = repo.SoftDelete(ctx, b.ID, 1, time.Now())
	require.NoError(t, err)

	ordered, err := repo.ListByIDs(ctx, []int64{c.ID, b.ID, a.ID, 999})
	require.NoError(t, err)
	names := []string{}
	for _, ag := range ordered {
		names = append(names, ag.Name)
	}
	assert.Equal(t, []string{"Inspektorat", "Dinas Pendidikan"}, names)
}

func TestLeaderRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewLeaderRepository(newTestDB(t))
	now := time.Now().UTC()

	l := &domain.Leader{Position: "Gubernur", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(ctx, l))
	require.NotZero(t, l.ID)

	_, err := repo.SoftDelete(ctx, l.ID, 1, now)
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, l.ID)
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	kept, err := repo.GetAnyByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gubernur", kept.Position)

	live, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, live)
}

func TestUserAndMediaRepositories(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)

	u := &domain.User{Username: "admin", PasswordHash: "hash", CreatedAt: time.Now()}
	require.NoError(t, users.Create(ctx, u))

	got, err := users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "hash", got.PasswordHash)

	n, err := users.UpdatePassword(ctx, "admin", "new")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = users.GetByUsername(ctx, "nobody")
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	media := NewMediaTypeRepository(db)
	require.NoError(t, media.Create(ctx, &domain.MediaType{Name: "Online"}))
	require.NoError(t, media.Create(ctx, &domain.MediaType{Name: "Cetak"}))
	types, err := media.List(ctx)
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "Cetak", types[0].Name)
}

func TestIssueRepository_CreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	agencies := NewAgencyRepository(db)
	repo := NewIssueRepository(db)

	a := createAgency(t, agencies, "Dinas A")
	b := createAgency(t, agencies, "Dinas B")

	rep := &domain.IssueReport{
		Kind:           domain.KindPriority,
		Title:          "Banjir",
		Date:           mustDate(t, "2024-02-10"),
		Body:           "Banjir di kota",
		Authorities:    []string{"Provinsi", "Kabupaten"},
		StakeholderIDs: []int64{b.ID, a.ID, 404},
		Links:          []string{"https://a.id"},
		Attachments: []domain.Attachment{
			{Name: "foto.jpg", Path: "isu/isu-prioritas/2024-02/2024-02-10/1_foto.jpg", Size: 10},
		},
		CreatedBy: "admin",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, rep))

	got, err := repo.GetByID(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Provinsi", "Kabupaten"}, got.Authorities)
	assert.Equal(t, []int64{b.ID, a.ID}, got.StakeholderIDs, "unknown agencies are skipped")
	assert.Equal(t, []string{"Dinas B", "Dinas A"}, got.StakeholderNames())
	if diff := cmp.Diff(rep.Attachments, got.Attachments); diff != "" {
		t.Errorf("attachments mismatch (-want +got):\n%s", diff)
	}

	// Deleted agencies stay referenced but are not resolved
	_, err = agencies.SoftDelete(ctx, a.ID, 1, time.Now())
	require.NoError(t, err)
	got, err = repo.GetByID(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dinas B"}, got.StakeholderNames())
	assert.Len(t, got.StakeholderIDs, 2)

	by := "editor"
	now := time.Now().UTC()
	got.Title = "Banjir Bandang"
	got.Links = nil
	got.Authorities = []string{"Pusat"}
	got.UpdatedBy = &by
	got.UpdatedAt = &now
	require.NoError(t, repo.Update(ctx, got))

	updated, err := repo.GetByID(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, "Banjir Bandang", updated.Title)
	assert.Empty(t, updated.Links)
	assert.Equal(t, []string{"Pusat"}, updated.Authorities)
	require.NotNil(t, updated.UpdatedBy)
	assert.Equal(t, "editor", *updated.UpdatedBy)

	n, err := repo.SoftDelete(ctx, rep.ID, "admin", time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.True(t, errors.Is(repo.Update(ctx, got), sql.ErrNoRows))
}

func TestIssueRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	agencies := NewAgencyRepository(db)
	repo := NewIssueRepository(db)

	a := createAgency(t, agencies, "Dinas A")
	b := createAgency(t, agencies, "Dinas B")

	seed := []struct {
		kind  domain.IssueKind
		title string
		date  string
		body  string
		auth  []string
		stake []int64
	}{
		{domain.KindPriority, "Jalan rusak", "2024-01-01", "jalan berlubang", []string{"Provinsi"}, []int64{a.ID}},
		{domain.KindPriority, "Banjir", "2024-01-05", "air naik", []string{"Kabupaten"}, []int64{b.ID}},
		{domain.KindPriority, "Sampah", "2024-01-10", "tumpukan sampah jalan", nil, []int64{a.ID, b.ID}},
		{domain.KindSpecial, "Jalan tol", "2024-01-05", "tol", nil, nil},
	}
	for _, s := range seed {
		require.NoError(t, repo.Create(ctx, &domain.IssueReport{
			Kind: s.kind, Title: s.title, Date: mustDate(t, s.date), Body: s.body,
			Authorities: s.auth, StakeholderIDs: s.stake, CreatedBy: "admin", CreatedAt: time.Now().UTC(),
		}))
	}

	page := listquery.NewPage(1, 10, 10)
	titles := func(f IssueFilter) []string {
		t.Helper()
		f.Kind = domain.KindPriority
		f.Page = page
		reps, total, err := repo.List(ctx, f)
		require.NoError(t, err)
		out := []string{}
		for _, r := range reps {
			out = append(out, r.Title)
		}
		assert.Equal(t, len(out), total)
		return out
	}

	assert.Equal(t, []string{"Sampah", "Banjir", "Jalan rusak"}, titles(IssueFilter{}), "newest first, kind scoped")
	assert.Equal(t, []string{"Sampah", "Banjir"}, titles(IssueFilter{DateFrom: "2024-01-05"}))
	assert.Equal(t, []string{"Banjir", "Jalan rusak"}, titles(IssueFilter{DateTo: "2024-01-05"}))
	assert.Equal(t, []string{"Banjir"}, titles(IssueFilter{DateFrom: "2024-01-02", DateTo: "2024-01-09"}))
	assert.Equal(t, []string{"Jalan rusak"}, titles(IssueFilter{Title: "jalan"}))
	assert.Equal(t, []string{"Sampah", "Jalan rusak"}, titles(IssueFilter{Search: "jalan"}))
	assert.Equal(t, []string{"Banjir"}, titles(IssueFilter{Authority: "kab"}))
	assert.Equal(t, []string{"Sampah", "Banjir"}, titles(IssueFilter{StakeholderIDs: []int64{b.ID}}))
	assert.Equal(t, []string{"Sampah", "Banjir", "Jalan rusak"}, titles(IssueFilter{StakeholderIDs: []int64{a.ID, b.ID}}))

	counts, err := repo.CountByKind(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts[domain.KindPriority])
	assert.Equal(t, 1, counts[domain.KindSpecial])
	assert.Equal(t, 0, counts[domain.KindViralness])
}

func TestStaffRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	leaders := NewLeaderRepository(db)
	repo := NewStaffRepository(db)

	now := time.Now().UTC()
	gov := &domain.Leader{Position: "Gubernur", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, leaders.Create(ctx, gov))

	d1 := mustDate(t, "2024-03-01")
	d2 := mustDate(t, "2024-03-02")
	body := "ringkasan harian"

	first := &domain.StaffReport{
		Type: domain.TypeDaily, LeaderID: &gov.ID, Date: &d1, Title: "Laporan pagi", Body: &body,
		Attachment: &domain.Attachment{Name: "a.pdf", Path: "laporan/Daily/Gubernur/2024-03/2024-03-01/1_a.pdf", Size: 5},
		CreatedBy:  "staff", CreatedAt: now,
	}
	second := &domain.StaffReport{Type: domain.TypeWeekly, Date: &d2, Title: "Mingguan", CreatedBy: "staff", CreatedAt: now}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gubernur", got.LeaderPosition)
	require.NotNil(t, got.Attachment)
	assert.Equal(t, first.Attachment.Path, got.Attachment.Path)
	assert.True(t, first.SameContent(got))

	list := func(f StaffFilter) []string {
		t.Helper()
		f.Page = listquery.NewPage(1, 5, 5)
		reps, _, err := repo.List(ctx, f)
		require.NoError(t, err)
		out := []string{}
		for _, r := range reps {
			out = append(out, r.Title)
		}
		return out
	}

	assert.Equal(t, []string{"Mingguan", "Laporan pagi"}, list(StaffFilter{}))
	assert.Equal(t, []string{"Laporan pagi"}, list(StaffFilter{DateFrom: "2024-03-01"}), "single bound is exact")
	assert.Equal(t, []string{"Mingguan", "Laporan pagi"}, list(StaffFilter{DateFrom: "2024-03-01", DateTo: "2024-03-02"}))
	assert.Equal(t, []string{"Laporan pagi"}, list(StaffFilter{LeaderID: &gov.ID}))
	assert.Equal(t, []string{"Mingguan"}, list(StaffFilter{Type: domain.TypeWeekly}))
	assert.Equal(t, []string{"Mingguan", "Laporan pagi"}, list(StaffFilter{SearchTitle: "ming", SearchBody: "harian"}), "title and body terms are OR-ed")

	got.Attachment = nil
	got.LeaderID = nil
	by := "editor"
	got.UpdatedBy = &by
	got.UpdatedAt = &now
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Nil(t, again.Attachment)
	assert.Nil(t, again.LeaderID)
	assert.Equal(t, "", again.LeaderPosition)

	_, err = repo.SoftDelete(ctx, first.ID, "staff", now)
	require.NoError(t, err)
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAuditRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewAuditRepository(newTestDB(t))

	e1 := domain.NewAuditEntry(domain.EntityAgency, 1, domain.ActionCreate, "admin")
	e2 := domain.NewAuditEntry(domain.EntityAgency, 1, domain.ActionUpdate, "admin").
		WithField("nama_opd").WithOldValue("A").WithNewValue("B")
	e3 := domain.NewAuditEntry(domain.EntityStaffReport, 9, domain.ActionDelete, "staff")
	for _, e := range []domain.AuditEntry{e1, e2, e3} {
		e := e
		require.NoError(t, repo.Log(ctx, &e))
	}

	history, err := repo.ListByEntity(ctx, domain.EntityAgency, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.ActionUpdate, history[0].Action)
	require.NotNil(t, history[0].NewValue)
	assert.Equal(t, "B", *history[0].NewValue)

	entries, total, err := repo.Query(ctx, AuditQueryParams{Action: "delete", Page: listquery.NewPage(1, 10, 10)})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, entries, 1)
	assert.Equal(t, "staff", entries[0].ChangedBy)
}
