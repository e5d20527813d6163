package service

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/store/listquery"
)

func TestIssueService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.issues.Create(ctx, domain.KindPriority, IssueInput{Title: "x", Date: "2024-01-02"}, nil, admin)
	requireCode(t, err, domain.ErrCodeValidationFailed, "Semua field wajib diisi")

	_, err = f.issues.Create(ctx, domain.KindPriority, IssueInput{Title: "x", Date: "02/01/2024", Body: "b"}, nil, admin)
	requireCode(t, err, domain.ErrCodeValidationFailed, "Format tanggal tidak valid.")

	_, err = f.issues.Create(ctx, domain.IssueKind(9), IssueInput{Title: "x", Date: "2024-01-02", Body: "b"}, nil, admin)
	requireCode(t, err, domain.ErrCodeValidationFailed, "")
}

func TestIssueService_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dinkes, err := f.agencies.Create(ctx, "Dinas Kesehatan", admin)
	require.NoError(t, err)

	rep, err := f.issues.Create(ctx, domain.KindPriority, IssueInput{
		Title:          " Banjir ",
		Date:           "2024-03-09",
		Body:           "Banjir di kota",
		Authorities:    []string{" Provinsi ", ""},
		StakeholderIDs: []int64{dinkes.ID, 404},
		Links:          []string{"detik.com/a", " ", "http://b.id"},
	}, []Upload{upload("foto.jpg", "jpg"), upload("surat.pdf", "pdf")}, admin)
	require.NoError(t, err)

	assert.Equal(t, "Banjir", rep.Title)
	assert.Equal(t, []string{"Provinsi"}, rep.Authorities)
	assert.Equal(t, []string{"https://detik.com/a", "http://b.id"}, rep.Links)
	require.Len(t, rep.Attachments, 2)
	assert.Equal(t, "foto.jpg", rep.Attachments[0].Name)
	assert.True(t, strings.HasPrefix(rep.Attachments[0].Path, "isu/isu-prioritas/2024-03/2024-03-09/"))
	assert.Equal(t, "jpg", readStored(t, f.files, rep.Attachments[0].Path))

	got, err := f.issues.Get(ctx, domain.KindPriority, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{dinkes.ID}, got.StakeholderIDs, "unknown agencies are skipped")
	assert.Equal(t, []string{"Dinas Kesehatan"}, got.StakeholderNames())

	_, err = f.issues.Get(ctx, domain.KindSpecial, rep.ID)
	requireCode(t, err, domain.ErrCodeNotFound, "Data tidak ditemukan atau sudah dihapus")

	// Keep the pdf, drop the photo, add a new file
	oldPhoto := got.Attachments[0].Path
	updated, err := f.issues.Update(ctx, domain.KindPriority, rep.ID, IssueInput{
		Title: "Banjir susulan",
		Date:  "2024-03-10",
		Body:  "Banjir di kota",
	}, []int{1}, []Upload{upload("video.mp4", "mp4")}, admin)
	require.NoError(t, err)
	require.Len(t, updated.Attachments, 2)
	assert.Equal(t, "surat.pdf", updated.Attachments[0].Name)
	assert.Equal(t, "video.mp4", updated.Attachments[1].Name)
	assert.False(t, f.files.Exists(oldPhoto), "dropped file is removed")
	assert.Empty(t, updated.Authorities)
	// The kept file follows the new date
	oldPDF := got.Attachments[1].Path
	assert.True(t, strings.HasPrefix(updated.Attachments[0].Path, "isu/isu-prioritas/2024-03/2024-03-10/"))
	assert.Equal(t, "pdf", readStored(t, f.files, updated.Attachments[0].Path))
	assert.False(t, f.files.Exists(oldPDF))
	stored, err := f.issues.Get(ctx, domain.KindPriority, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Attachments[0].Path, stored.Attachments[0].Path)

	a, err := f.issues.Attachment(ctx, domain.KindPriority, rep.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "video.mp4", a.Name)
	_, err = f.issues.Attachment(ctx, domain.KindPriority, rep.ID, 5)
	requireCode(t, err, domain.ErrCodeFileNotFound, "File tidak ditemukan")

	history, err := f.audit.History(ctx, domain.EntityIssueReport, rep.ID)
	require.NoError(t, err)
	fields := map[string]bool{}
	for _, e := range history {
		if e.Field != nil {
			fields[*e.Field] = true
		}
	}
	assert.True(t, fields["judul"])
	assert.True(t, fields["tanggal_laporan"])
	assert.True(t, fields["file_path"], "moved file is audited")
	assert.False(t, fields["isi_laporan"], "unchanged body is not audited")

	require.NoError(t, f.issues.Delete(ctx, domain.KindPriority, rep.ID, admin))
	_, err = f.issues.Get(ctx, 0, rep.ID)
	requireCode(t, err, domain.ErrCodeNotFound, "")
	requireCode(t, f.issues.Delete(ctx, domain.KindPriority, rep.ID, admin), domain.ErrCodeNotFound, "")
}

func TestIssueService_ArchiveSkipsMissingFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rep, err := f.issues.Create(ctx, domain.KindViralness, IssueInput{Title: "Viral", Date: "2024-01-02", Body: "b"},
		[]Upload{upload("a.txt", "1"), upload("a.txt", "2"), upload("b.txt", "3")}, admin)
	require.NoError(t, err)
	require.NoError(t, f.files.Remove(rep.Attachments[2].Path))

	arch, err := f.issues.Archive(ctx, domain.KindViralness, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, "Viral-files.zip", arch.Name)
	assert.Equal(t, []string{"a.txt", "a (2).txt"}, arch.Names())

	var buf bytes.Buffer
	require.NoError(t, arch.Write(&buf))
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Len(t, zr.File, 2)

	_, err = f.issues.Attachment(ctx, domain.KindViralness, rep.ID, 2)
	requireCode(t, err, domain.ErrCodeFileNotFound, "File tidak ditemukan di server")

	empty, err := f.issues.Create(ctx, domain.KindViralness, IssueInput{Title: "Kosong", Date: "2024-01-02", Body: "b"}, nil, admin)
	require.NoError(t, err)
	_, err = f.issues.Archive(ctx, domain.KindViralness, empty.ID)
	requireCode(t, err, domain.ErrCodeFileNotFound, "Tidak ada file untuk didownload")
}

func TestIssueService_ListAndMonitoring(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.agencies.Create(ctx, "Diskominfo", admin)
	require.NoError(t, err)

	mk := func(title, date string, stakeholders []int64, uploads ...Upload) *domain.IssueReport {
		rep, err := f.issues.Create(ctx, domain.KindSpecial, IssueInput{
			Title: title, Date: date, Body: "isi " + title,
			Authorities: []string{"Kabupaten"}, StakeholderIDs: stakeholders,
		}, uploads, admin)
		require.NoError(t, err)
		return rep
	}
	mk("Satu", "2024-01-01", nil)
	two := mk("Dua", "2024-01-05", []int64{a.ID}, upload("x.png", "png"), upload("y.png", "png"))
	mk("Tiga", "2024-02-01", nil)

	reports, total, err := f.issues.List(ctx, IssueListInput{
		Kind: domain.KindSpecial, DateFrom: "2024-01-02", Page: listquery.NewPage(1, 0, 10),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "Tiga", reports[0].Title, "newest first")

	_, total, err = f.issues.List(ctx, IssueListInput{Kind: domain.KindSpecial, DateFrom: "bogus"})
	require.NoError(t, err)
	assert.Equal(t, 3, total, "malformed dates are ignored")

	_, total, err = f.issues.List(ctx, IssueListInput{Kind: domain.KindSpecial, StakeholderIDs: []int64{a.ID}})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, total, err = f.issues.List(ctx, IssueListInput{Kind: domain.KindPriority})
	require.NoError(t, err)
	assert.Zero(t, total)

	require.NoError(t, f.files.Remove(two.Attachments[1].Path))
	items, _, err := f.issues.Monitoring(ctx, IssueListInput{Kind: domain.KindSpecial, Search: "dua"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "05 Januari 2024", items[0].DateFormatted)
	assert.Equal(t, []string{"Diskominfo"}, items[0].StakeholderNames)
	require.Equal(t, 1, items[0].FileCount)
	assert.True(t, strings.HasPrefix(items[0].Files[0].URL, "/uploads/isu/isu-khusus/2024-01/2024-01-05/"))

	d, err := f.issues.Detail(ctx, two.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dua", d.Title)
	_, err = f.issues.Detail(ctx, 12345)
	requireCode(t, err, domain.ErrCodeNotFound, "Laporan tidak ditemukan")

	found, err := f.issues.SearchAgencies(ctx, "kominfo")
	require.NoError(t, err)
	require.Len(t, found, 1)
}
