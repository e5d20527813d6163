package service

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/store/listquery"
)

func int64Ptr(v int64) *int64 { return &v }

func TestStaffService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.staff.Create(ctx, StaffInput{Type: domain.TypeDaily}, nil, admin)
	requireCode(t, err, domain.ErrCodeValidationFailed, "Judul laporan wajib diisi.")

	_, err = f.staff.Create(ctx, StaffInput{Type: 9, Title: "x"}, nil, admin)
	requireCode(t, err, domain.ErrCodeValidationFailed, "Jenis laporan tidak valid.")

	_, err = f.staff.Create(ctx, StaffInput{Type: domain.TypeDaily, Title: "x", Date: "2024-13-01"}, nil, admin)
	requireCode(t, err, domain.ErrCodeValidationFailed, "Format tanggal tidak valid.")

	_, err = f.staff.Create(ctx, StaffInput{Type: domain.TypeDaily, Title: "x", LeaderID: int64Ptr(77)}, nil, admin)
	requireCode(t, err, domain.ErrCodeNotFound, "Pimpinan tidak ditemukan.")
}

func TestStaffService_FilePlacementAndMoves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	gub, err := f.leaders.Create(ctx, "Gubernur Jawa", admin)
	require.NoError(t, err)

	rep, err := f.staff.Create(ctx, StaffInput{
		Type: domain.TypeDaily, LeaderID: &gub.ID, Date: "2024-01-02", Title: "Harian",
	}, &Upload{Name: "laporan.pdf", Open: upload("", "v1").Open}, admin)
	require.NoError(t, err)
	require.NotNil(t, rep.Attachment)
	assert.Equal(t, "laporan.pdf", rep.Attachment.Name)
	assert.True(t, strings.HasPrefix(rep.Attachment.Path, "laporan/Daily/Gubernur_Jawa/2024-01/2024-01-02/"))
	assert.True(t, strings.HasSuffix(rep.Attachment.Path, "_laporan.pdf"))
	storedName := filepath.Base(rep.Attachment.Path)

	// No-op edit writes nothing
	_, changed, err := f.staff.Update(ctx, rep.ID, StaffInput{
		Type: domain.TypeDaily, LeaderID: &gub.ID, Date: "2024-01-02", Title: "Harian",
	}, nil, admin)
	require.NoError(t, err)
	assert.False(t, changed)

	// Dropping the leader moves the file to No-Pimpinan and cleans up
	moved, changed, err := f.staff.Update(ctx, rep.ID, StaffInput{
		Type: domain.TypeDaily, Date: "2024-01-03", Title: "Harian",
	}, nil, admin)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "laporan/Daily/No-Pimpinan/2024-01/2024-01-03/"+storedName, moved.Attachment.Path)
	assert.Equal(t, "v1", readStored(t, f.files, moved.Attachment.Path))
	_, err = os.Stat(filepath.Join(f.files.Root(), "laporan", "Daily", "Gubernur_Jawa"))
	assert.True(t, os.IsNotExist(err))

	history, err := f.audit.History(ctx, domain.EntityStaffReport, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionMove, history[0].Action)

	// A new upload replaces the old file
	replaced, _, err := f.staff.Update(ctx, rep.ID, StaffInput{
		Type: domain.TypeDaily, Date: "2024-01-03", Title: "Harian",
	}, &Upload{Name: "baru.pdf", Open: upload("", "v2").Open}, admin)
	require.NoError(t, err)
	assert.Equal(t, "baru.pdf", replaced.Attachment.Name)
	assert.Equal(t, "v2", readStored(t, f.files, replaced.Attachment.Path))
	assert.False(t, f.files.Exists(moved.Attachment.Path))

	a, err := f.staff.Download(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, replaced.Attachment.Path, a.Path)
}

func TestStaffService_StalePathIsFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bup, err := f.leaders.Create(ctx, "Bupati", admin)
	require.NoError(t, err)
	rep, err := f.staff.Create(ctx, StaffInput{
		Type: domain.TypeWeekly, LeaderID: &bup.ID, Date: "2024-05-06", Title: "Mingguan",
	}, &Upload{Name: "m.pdf", Open: upload("", "x").Open}, admin)
	require.NoError(t, err)

	// Record a path that no longer exists while the file sits in another owner folder
	_, err = f.db.Exec("UPDATE laporan_staff SET file_path = ? WHERE id = ?",
		"uploads/laporan/Weekly/Lama/2024-05/2024-05-06/"+filepath.Base(rep.Attachment.Path), rep.ID)
	require.NoError(t, err)

	a, err := f.staff.Download(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, rep.Attachment.Path, a.Path)

	moved, _, err := f.staff.Update(ctx, rep.ID, StaffInput{
		Type: domain.TypeWeekly, Date: "2024-05-07", Title: "Mingguan",
	}, nil, admin)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(moved.Attachment.Path, "laporan/Weekly/No-Pimpinan/2024-05/2024-05-07/"))
	assert.True(t, f.files.Exists(moved.Attachment.Path))

	require.NoError(t, f.files.Remove(moved.Attachment.Path))
	_, err = f.staff.Download(ctx, rep.ID)
	requireCode(t, err, domain.ErrCodeFileNotFound, "File tidak ditemukan di server.")

	plain, err := f.staff.Create(ctx, StaffInput{Type: domain.TypeWeekly, Title: "Tanpa file"}, nil, admin)
	require.NoError(t, err)
	_, err = f.staff.Download(ctx, plain.ID)
	requireCode(t, err, domain.ErrCodeFileNotFound, "File tidak ditemukan.")
}

func TestStaffService_ListAndExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	gub, err := f.leaders.Create(ctx, "Gubernur", admin)
	require.NoError(t, err)
	for _, in := range []StaffInput{
		{Type: domain.TypeDaily, LeaderID: &gub.ID, Date: "2024-01-01", Title: "Rapat pagi", Body: "agenda"},
		{Type: domain.TypeDaily, Date: "2024-01-02", Title: "Kunjungan", Body: "rapat lapangan"},
		{Type: domain.TypeMonthly, Date: "2024-01-31", Title: "Rekap bulan"},
	} {
		_, err := f.staff.Create(ctx, in, nil, admin)
		require.NoError(t, err)
	}

	list, err := f.staff.List(ctx, StaffListInput{
		SearchTitle: "rapat", SearchBody: "rapat", Type: domain.TypeDaily,
		Page: listquery.NewPage(1, 0, DefaultStaffLimit),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, 1, list.TotalPages)
	assert.Equal(t, `judul: "rapat", isi: "rapat", jenis: "Daily"`, list.FilterInfo)

	list, err = f.staff.List(ctx, StaffListInput{LeaderID: &gub.ID, DateFrom: "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, `pimpinan: "Gubernur", tanggal: dari 2024-01-01`, list.FilterInfo)

	list, err = f.staff.List(ctx, StaffListInput{DateTo: "2024-01-02"})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total, "a single bound matches that exact date")

	_, err = f.staff.List(ctx, StaffListInput{DateFrom: "2024/01/01"})
	requireCode(t, err, domain.ErrCodeValidationFailed, "Format tanggal mulai tidak valid.")
	_, err = f.staff.List(ctx, StaffListInput{DateTo: "x"})
	requireCode(t, err, domain.ErrCodeValidationFailed, "Format tanggal akhir tidak valid.")

	var buf bytes.Buffer
	require.NoError(t, f.staff.Export(ctx, StaffListInput{Type: domain.TypeDaily, Page: listquery.NewPage(1, 1, 1)}, &buf))
	x, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer x.Close()
	rows, err := x.GetRows("Laporan Staff")
	require.NoError(t, err)
	assert.Len(t, rows, 3, "export ignores paging")
}

func TestStaffService_DeleteAndReuse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rep, err := f.staff.Create(ctx, StaffInput{Type: domain.TypeYearly, Title: "Tahunan"}, nil, Actor{})
	require.NoError(t, err)
	assert.Equal(t, "system", rep.CreatedBy)

	require.NoError(t, f.staff.Delete(ctx, rep.ID, admin))
	requireCode(t, f.staff.Delete(ctx, rep.ID, admin), domain.ErrCodeNotFound, "Data tidak ditemukan atau sudah dihapus.")
	_, _, err = f.staff.Update(ctx, rep.ID, StaffInput{Type: domain.TypeYearly, Title: "x"}, nil, admin)
	requireCode(t, err, domain.ErrCodeNotFound, "")
}

func seedStaffFiles(t *testing.T, f *fixture, leader string, dates ...string) {
	t.Helper()
	for _, d := range dates {
		dir := filepath.Join(f.files.Root(), "laporan", "Daily", leader, d[:7], d)
		require.NoError(t, os.MkdirAll(dir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "1_"+d+".txt"), []byte(d), 0644))
	}
}

func TestStaffService_Calendar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seedStaffFiles(t, f, "No-Pimpinan", "2024-02-10", "2024-02-03", "2024-03-01")
	require.NoError(t, os.MkdirAll(filepath.Join(f.files.Root(), "laporan", "Daily", "No-Pimpinan", "2024-02", "2024-02-20"), 0755))

	days, err := f.staff.Calendar(ctx, domain.TypeDaily, nil, 2024, 2)
	require.NoError(t, err)
	require.Len(t, days, 2, "empty day folders do not count")
	assert.Equal(t, 3, days[0].Day)
	assert.Equal(t, 1, days[0].FileCount)
	assert.Equal(t, "/uploads/laporan/Daily/No-Pimpinan/2024-02/2024-02-03/1_2024-02-03.txt", days[0].Files[0].Path)

	days, err = f.staff.Calendar(ctx, domain.TypeDaily, nil, 2024, 13)
	require.NoError(t, err)
	assert.Empty(t, days)

	gub, err := f.leaders.Create(ctx, "Gubernur", admin)
	require.NoError(t, err)
	days, err = f.staff.Calendar(ctx, domain.TypeDaily, &gub.ID, 2024, 2)
	require.NoError(t, err)
	assert.Empty(t, days)
}

func zipNames(t *testing.T, a *Archive) []string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, a.Write(&buf))
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	var names []string
	for _, zf := range zr.File {
		names = append(names, zf.Name)
	}
	return names
}

func TestStaffService_StaffArchive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seedStaffFiles(t, f, "No-Pimpinan", "2024-01-30", "2024-01-31", "2024-02-01")
	seedStaffFiles(t, f, "Gubernur", "2024-01-31")
	gub, err := f.leaders.Create(ctx, "Gubernur", admin)
	require.NoError(t, err)

	a, err := f.staff.StaffArchive(ctx, ZipRequest{Type: domain.TypeDaily, StartDate: "2024-01-31", EndDate: "2024-02-01"})
	require.NoError(t, err)
	assert.Equal(t, "Daily_No-Pimpinan_2024-01-31_sampai_2024-02-01.zip", a.Name)
	assert.Equal(t, []string{"2024-01-31/1_2024-01-31.txt", "2024-02-01/1_2024-02-01.txt"}, zipNames(t, a))

	a, err = f.staff.StaffArchive(ctx, ZipRequest{Type: domain.TypeDaily, StartDate: "0001-01-01", EndDate: "9999-12-31"})
	require.NoError(t, err)
	assert.Equal(t, 3, a.Len(), "the widest range scans the tree once")

	a, err = f.staff.StaffArchive(ctx, ZipRequest{Type: domain.TypeDaily, Year: "2024", Month: "1", Day: "30"})
	require.NoError(t, err)
	assert.Equal(t, "Daily_No-Pimpinan_2024-01-30.zip", a.Name)
	assert.Equal(t, []string{"1_2024-01-30.txt"}, zipNames(t, a))

	a, err = f.staff.StaffArchive(ctx, ZipRequest{Type: domain.TypeDaily, Year: "2024", Month: "01"})
	require.NoError(t, err)
	assert.Equal(t, "Daily_No-Pimpinan_2024-01.zip", a.Name)
	assert.Equal(t, 2, a.Len())

	a, err = f.staff.StaffArchive(ctx, ZipRequest{Type: domain.TypeDaily, LeaderID: &gub.ID, Year: "2024", Month: "01"})
	require.NoError(t, err)
	assert.Equal(t, "Daily_Gubernur_2024-01.zip", a.Name)
	assert.Equal(t, []string{"2024-01-31/1_2024-01-31.txt"}, a.Names())

	_, err = f.staff.StaffArchive(ctx, ZipRequest{Type: domain.TypeDaily, StartDate: "kemarin", EndDate: "2024-01-01"})
	requireCode(t, err, domain.ErrCodeValidationFailed, "Format tanggal tidak valid.")
	_, err = f.staff.StaffArchive(ctx, ZipRequest{Type: domain.TypeDaily, StartDate: "2024-02-01", EndDate: "2024-01-01"})
	requireCode(t, err, domain.ErrCodeValidationFailed, "Tanggal akhir tidak boleh lebih kecil dari tanggal awal.")
	_, err = f.staff.StaffArchive(ctx, ZipRequest{Type: domain.TypeDaily, StartDate: "2023-01-01", EndDate: "2023-01-05"})
	requireCode(t, err, domain.ErrCodeFileNotFound, "Tidak ada file pada periode tersebut.")
	_, err = f.staff.StaffArchive(ctx, ZipRequest{Type: domain.TypeDaily, Year: "2024", Month: "01", Day: "02"})
	requireCode(t, err, domain.ErrCodeFileNotFound, "Tidak ada file untuk tanggal tersebut.")
	_, err = f.staff.StaffArchive(ctx, ZipRequest{Type: domain.TypeDaily, Year: "2023", Month: "01"})
	requireCode(t, err, domain.ErrCodeFileNotFound, "Tidak ada file untuk bulan tersebut.")
}
