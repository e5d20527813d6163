package export

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pantau/pantau/internal/domain"
)

type dirOpener string

func (d dirOpener) Open(rel string) (*os.File, error) {
	return os.Open(filepath.Join(string(d), filepath.FromSlash(rel)))
}

func TestUniqueNamer(t *testing.T) {
	n := NewUniqueNamer()
	assert.Equal(t, "a.pdf", n.Name("a.pdf"))
	assert.Equal(t, "a (2).pdf", n.Name("a.pdf"))
	assert.Equal(t, "A (3).pdf", n.Name("A.pdf"), "names compare case-insensitively")
	assert.Equal(t, "b", n.Name("b"))
	assert.Equal(t, "b (2)", n.Name("b"))
}

func TestAttachmentEntries(t *testing.T) {
	entries := AttachmentEntries([]domain.Attachment{
		{Name: "foto.jpg", Path: "isu/1_foto.jpg"},
		{Name: "foto.jpg", Path: "isu/2_foto.jpg"},
		{Path: "isu/3_scan.pdf"},
	})
	assert.Equal(t, []Entry{
		{Name: "foto.jpg", Path: "isu/1_foto.jpg"},
		{Name: "foto (2).jpg", Path: "isu/2_foto.jpg"},
		{Name: "3_scan.pdf", Path: "isu/3_scan.pdf"},
	}, entries)
}

func TestWriteZip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "d"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "d", "1_a.txt"), []byte("alpha"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "d", "2_b.txt"), []byte("beta"), 0644))

	var buf bytes.Buffer
	err := WriteZip(&buf, dirOpener(dir), []Entry{
		{Name: "2024-01-02/1_a.txt", Path: "d/1_a.txt"},
		{Name: "2_b.txt", Path: "d/2_b.txt"},
	})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "2024-01-02/1_a.txt", zr.File[0].Name)

	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "beta", string(content))
}

func TestWriteZip_MissingFile(t *testing.T) {
	var buf bytes.Buffer
	err := WriteZip(&buf, dirOpener(t.TempDir()), []Entry{{Name: "x", Path: "nope"}})
	assert.Error(t, err)
	assert.Zero(t, buf.Len(), "nothing is written before the first entry opens")
}

func TestWriteStaffXLSX(t *testing.T) {
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	body := "isi"
	reports := []*domain.StaffReport{
		{Type: domain.TypeMonthly, Date: &d, Title: "Bulanan", Body: &body, LeaderPosition: "Gubernur", CreatedBy: "staff"},
		{Type: domain.TypeDaily, Title: "Tanpa tanggal", Attachment: &domain.Attachment{Name: "a.pdf"}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteStaffXLSX(&buf, reports))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(staffSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Judul", rows[0][5])
	assert.Equal(t, []string{"1", "2024-01-02", "Bulanan", "Gubernur", "", "Bulanan", "isi", "", "staff"}, rows[1])
	assert.Equal(t, "-", rows[2][3])
	assert.Equal(t, "a.pdf", rows[2][7])
}
