// Package export writes downloadable bundles: ZIP archives of stored files
// and spreadsheets of report lists.
package export

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/pantau/pantau/internal/domain"
)

// Opener opens stored files by their relative path.
type Opener interface {
	Open(rel string) (*os.File, error)
}

// Entry is one archive member: Name inside the archive, Path in storage.
type Entry struct {
	Name string
	Path string
}

// WriteZip streams the entries into a ZIP archive written to w. Each entry
// is opened before any of its bytes are written, and nothing reaches w when
// the first entry fails to open.
func WriteZip(w io.Writer, src Opener, entries []Entry) error {
	zw := zip.NewWriter(w)
	for _, e := range entries {
		if err := addFile(zw, src, e); err != nil {
			return err
		}
	}
	return zw.Close()
}

func addFile(zw *zip.Writer, src Opener, e Entry) error {
	f, err := src.Open(e.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", e.Path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = e.Name
	hdr.Method = zip.Deflate

	dst, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, f)
	return err
}

// UniqueNamer hands out archive names, suffixing repeats as "name (2).ext".
type UniqueNamer struct {
	seen map[string]int
}

// NewUniqueNamer creates an empty UniqueNamer.
func NewUniqueNamer() *UniqueNamer {
	return &UniqueNamer{seen: make(map[string]int)}
}

// Name returns name, or a suffixed variant when it was already handed out.
func (u *UniqueNamer) Name(name string) string {
	key := strings.ToLower(name)
	n := u.seen[key]
	u.seen[key] = n + 1
	if n == 0 {
		return name
	}

	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for {
		n++
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		ck := strings.ToLower(candidate)
		if u.seen[ck] == 0 {
			u.seen[ck] = 1
			u.seen[key] = n
			return candidate
		}
	}
}

// AttachmentEntries names each attachment by its original file name,
// making repeated names unique.
func AttachmentEntries(atts []domain.Attachment) []Entry {
	namer := NewUniqueNamer()
	entries := make([]Entry, 0, len(atts))
	for _, a := range atts {
		name := a.Name
		if name == "" {
			name = path.Base(a.Path)
		}
		entries = append(entries, Entry{Name: namer.Name(name), Path: a.Path})
	}
	return entries
}
