package files

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantau/pantau/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return s
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestLocations(t *testing.T) {
	d := day(t, "2024-03-09")

	assert.Equal(t, "laporan/Daily/Kepala_Dinas/2024-03/2024-03-09",
		StaffLocation(domain.TypeDaily, "Kepala Dinas", d).Dir())
	assert.Equal(t, "laporan/Rekap Statement/No-Pimpinan/2024-03/2024-03-09",
		StaffLocation(domain.TypeStatement, "", d).Dir())
	assert.Equal(t, "laporan/Unknown/Wakil_Gubernur_/2024-03",
		StaffLocation(domain.StaffReportType(7), "Wakil Gubernur!", d).MonthDir())
	assert.Equal(t, "isu/viralitas/2024-03/2024-03-09",
		IssueLocation(domain.KindViralness, d).Dir())
}

func TestURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"prioritas/a.jpg", "/uploads/prioritas/a.jpg"},
		{"/uploads/prioritas/a.jpg", "/uploads/prioritas/a.jpg"},
		{"uploads/prioritas/uploads/prioritas/a.jpg", "/uploads/prioritas/a.jpg"},
		{"uploads\\laporan\\x.pdf", "/uploads/laporan/x.pdf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, URL(tt.in), tt.in)
	}
}

func TestAbs_RejectsTraversal(t *testing.T) {
	s := newTestStore(t)

	for _, p := range []string{"../etc/passwd", "laporan/../../x", "", ".."} {
		_, err := s.Abs(p)
		assert.ErrorIs(t, err, ErrOutsideRoot, p)
	}

	abs, err := s.Abs("laporan/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Root(), "laporan", "a.pdf"), abs)
}

func TestSave(t *testing.T) {
	s := newTestStore(t)
	loc := StaffLocation(domain.TypeDaily, "Gubernur", day(t, "2024-01-02"))

	a, err := s.Save(loc, `C:\tmp\laporan.pdf`, strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "laporan.pdf", a.Name)
	assert.Equal(t, "laporan/Daily/Gubernur/2024-01/2024-01-02/1700000000000_laporan.pdf", a.Path)
	assert.EqualValues(t, 5, a.Size)
	assert.True(t, s.Exists(a.Path))

	// Same millisecond, same name: the stored name must differ
	b, err := s.Save(loc, "laporan.pdf", strings.NewReader("again"))
	require.NoError(t, err)
	assert.NotEqual(t, a.Path, b.Path)

	f, err := s.Open(a.Path)
	require.NoError(t, err)
	defer f.Close()
	content, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))
}

func TestMove_CleansEmptyDirectories(t *testing.T) {
	s := newTestStore(t)
	from := StaffLocation(domain.TypeDaily, "Gubernur", day(t, "2024-01-02"))
	to := StaffLocation(domain.TypeDaily, "", day(t, "2024-02-03"))

	a, err := s.Save(from, "a.pdf", strings.NewReader("x"))
	require.NoError(t, err)

	moved, err := s.Move(a.Path, to)
	require.NoError(t, err)
	assert.Equal(t, "laporan/Daily/No-Pimpinan/2024-02/2024-02-03/1700000000000_a.pdf", moved)
	assert.True(t, s.Exists(moved))
	assert.False(t, s.Exists(a.Path))

	_, err = os.Stat(filepath.Join(s.Root(), "laporan", "Daily", "Gubernur"))
	assert.True(t, os.IsNotExist(err), "emptied owner folder should be removed")
	_, err = os.Stat(filepath.Join(s.Root(), "laporan", "Daily"))
	assert.NoError(t, err, "non-empty type folder stays")

	// Rename puts it back where it was
	require.NoError(t, s.Rename(moved, a.Path))
	assert.True(t, s.Exists(a.Path))
	_, err = os.Stat(filepath.Join(s.Root(), "laporan", "Daily", "No-Pimpinan"))
	assert.True(t, os.IsNotExist(err))
}

func TestRename_RejectsOutsideRoot(t *testing.T) {
	s := newTestStore(t)
	a, err := s.Save(IssueLocation(domain.KindSpecial, day(t, "2024-01-02")), "a.txt", strings.NewReader("x"))
	require.NoError(t, err)
	assert.ErrorIs(t, s.Rename(a.Path, "../escape.txt"), ErrOutsideRoot)
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)
	loc := IssueLocation(domain.KindPriority, day(t, "2024-05-06"))

	a, err := s.Save(loc, "a.jpg", strings.NewReader("x"))
	require.NoError(t, err)
	b, err := s.Save(loc, "b.jpg", strings.NewReader("y"))
	require.NoError(t, err)

	require.NoError(t, s.Remove(a.Path))
	assert.True(t, s.Exists(b.Path), "sibling survives")

	require.NoError(t, s.Remove(b.Path))
	require.NoError(t, s.Remove(b.Path), "removing twice is fine")

	_, err = os.Stat(filepath.Join(s.Root(), "isu"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(s.Root())
	assert.NoError(t, err, "root is never removed")
}

func TestFindStaffFile(t *testing.T) {
	s := newTestStore(t)
	d := day(t, "2024-01-02")

	a, err := s.Save(StaffLocation(domain.TypeWeekly, "Sekda", d), "a.pdf", strings.NewReader("x"))
	require.NoError(t, err)

	stale := "laporan/Weekly/Gubernur/2024-01/2024-01-02/" + filepath.Base(a.Path)
	found, ok := s.FindStaffFile(domain.TypeWeekly, d, stale)
	require.True(t, ok)
	assert.Equal(t, a.Path, found)

	_, ok = s.FindStaffFile(domain.TypeWeekly, day(t, "2024-01-03"), stale)
	assert.False(t, ok)
	_, ok = s.FindStaffFile(domain.TypeDaily, d, stale)
	assert.False(t, ok)
}

func TestMonthDays(t *testing.T) {
	s := newTestStore(t)
	base := StaffOwnerDir(domain.TypeDaily, "")

	for _, d := range []string{"2024-04-10", "2024-04-02", "2024-04-10"} {
		_, err := s.Save(StaffLocation(domain.TypeDaily, "", day(t, d)), "f.txt", strings.NewReader("x"))
		require.NoError(t, err)
	}
	// Empty day folder and a stray folder are ignored
	require.NoError(t, os.MkdirAll(filepath.Join(s.Root(), filepath.FromSlash(base), "2024-04", "2024-04-20"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(s.Root(), filepath.FromSlash(base), "2024-04", "notes"), 0755))

	days, err := s.MonthDays(base, 2024, time.April)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, 2, days[0].Day)
	assert.Equal(t, 10, days[1].Day)
	assert.Len(t, days[1].Files, 2)
	assert.True(t, strings.HasPrefix(days[0].Files[0].Path, base+"/2024-04/2024-04-02/"))

	empty, err := s.MonthDays(base, 2023, time.January)
	require.NoError(t, err)
	assert.Empty(t, empty)

	files, err := s.DayFiles(base, day(t, "2024-04-10"))
	require.NoError(t, err)
	assert.Len(t, files, 2)

	none, err := s.DayFiles(base, day(t, "2024-04-11"))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRangeDays(t *testing.T) {
	s := newTestStore(t)
	base := StaffOwnerDir(domain.TypeDaily, "")

	for _, d := range []string{"2023-12-31", "2024-01-31", "2024-02-01", "2024-03-01"} {
		_, err := s.Save(StaffLocation(domain.TypeDaily, "", day(t, d)), "f.txt", strings.NewReader("x"))
		require.NoError(t, err)
	}
	// A day folder filed under the wrong month is not part of the range
	misfiled := filepath.Join(s.Root(), filepath.FromSlash(base), "2024-02", "2024-01-15")
	require.NoError(t, os.MkdirAll(misfiled, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(misfiled, "x.txt"), []byte("x"), 0644))

	days, err := s.RangeDays(context.Background(), base, "2024-01-01", "2024-02-29")
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2024-01-31", days[0].Date)
	assert.Equal(t, "2024-02-01", days[1].Date)
	assert.Equal(t, base+"/2024-02/2024-02-01/"+days[1].Files[0].Name, days[1].Files[0].Path)

	wide, err := s.RangeDays(context.Background(), base, "0001-01-01", "9999-12-31")
	require.NoError(t, err)
	assert.Len(t, wide, 4)

	missing, err := s.RangeDays(context.Background(), StaffOwnerDir(domain.TypeWeekly, ""), "0001-01-01", "9999-12-31")
	require.NoError(t, err)
	assert.Empty(t, missing)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.RangeDays(ctx, base, "2024-01-01", "2024-12-31")
	assert.ErrorIs(t, err, context.Canceled)
}
