package service

import (
	"io"
	"mime/multipart"

	"github.com/pantau/pantau/internal/export"
)

// Upload is a file received with a form.
type Upload struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// UploadFromHeader adapts a multipart file header.
func UploadFromHeader(fh *multipart.FileHeader) Upload {
	return Upload{
		Name: fh.Filename,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// Archive is a ZIP ready to be streamed.
type Archive struct {
	Name    string
	entries []export.Entry
	src     export.Opener
}

// NewArchive creates an archive of entries read from src.
func NewArchive(name string, src export.Opener, entries []export.Entry) *Archive {
	return &Archive{Name: name, entries: entries, src: src}
}

// Len returns the number of files in the archive.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Names lists the entry names in archive order.
func (a *Archive) Names() []string {
	names := make([]string, len(a.entries))
	for i, e := range a.entries {
		names[i] = e.Name
	}
	return names
}

// Write streams the archive to w.
func (a *Archive) Write(w io.Writer) error {
	return export.WriteZip(w, a.src, a.entries)
}
