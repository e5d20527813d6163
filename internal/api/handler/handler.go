// Package handler implements the HTTP endpoints. Page handlers render HTML
// through the web renderer; script endpoints answer JSON.
package handler

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"

	"go.uber.org/zap"

	"github.com/pantau/pantau/internal/api/middleware"
	"github.com/pantau/pantau/internal/api/response"
	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/files"
	"github.com/pantau/pantau/internal/service"
	"github.com/pantau/pantau/internal/session"
	"github.com/pantau/pantau/internal/web"
)

// maxUploadMemory is the part of a multipart body kept in memory; the rest
// spills to temporary files.
const maxUploadMemory = 32 << 20

// Flash kinds understood by the layout.
const (
	flashSuccess = "success"
	flashError   = "error"
)

// Pages holds what every page handler needs to render.
type Pages struct {
	Views    *web.Renderer
	Sessions *session.Manager
	Logger   *zap.Logger
}

// base returns the layout data of r and consumes the pending flash.
func (p Pages) base(r *http.Request, title, nav string) web.Base {
	b := web.Base{
		Title:     title,
		ActiveNav: nav,
		Flash:     p.Sessions.PopFlash(r),
		CSRFToken: middleware.CSRFToken(r),
	}
	if s := session.FromContext(r.Context()); s != nil {
		b.Username = s.Data.Username
	}
	return b
}

// redirect stores a flash message and redirects to target.
func (p Pages) redirect(w http.ResponseWriter, r *http.Request, kind, message, target string) {
	if message != "" {
		p.Sessions.SetFlash(r, kind, message)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

type errorView struct {
	web.Base
	Status  int
	Message string
}

func (p Pages) logInternal(r *http.Request, err error) *domain.DomainError {
	de := response.AsDomainError(err)
	if de.Code == domain.ErrCodeInternalError {
		p.Logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	return de
}

// failJSON answers err as a {success:false} result.
func (p Pages) failJSON(w http.ResponseWriter, r *http.Request, err error) {
	response.Fail(w, p.logInternal(r, err))
}

// fail answers err as JSON for script callers and as the error page
// otherwise. Internal errors are logged.
func (p Pages) fail(w http.ResponseWriter, r *http.Request, err error) {
	de := p.logInternal(r, err)
	if middleware.WantsJSON(r) {
		response.Fail(w, de)
		return
	}
	status := response.Status(de)
	p.Views.Render(w, status, "error", errorView{
		Base:    p.base(r, http.StatusText(status), ""),
		Status:  status,
		Message: de.Message,
	})
}

// validationMessage returns the message of a validation error, or "" for
// any other error.
func validationMessage(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) && de.Code == domain.ErrCodeValidationFailed {
		return de.Message
	}
	return ""
}

// parseMultipart parses an upload form, accepting plain form posts too.
func parseMultipart(r *http.Request) error {
	err := r.ParseMultipartForm(maxUploadMemory)
	if err == nil {
		return nil
	}
	if errors.Is(err, http.ErrNotMultipart) {
		if err := r.ParseForm(); err != nil {
			return domain.NewValidationError([]string{"Form tidak valid."})
		}
		r.MultipartForm = &multipart.Form{Value: r.PostForm}
		return nil
	}
	return domain.NewValidationError([]string{"Form tidak valid."})
}

func attachmentDisposition(name string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}

// serveAttachment streams a stored file as a download named after the
// original upload.
func serveAttachment(w http.ResponseWriter, r *http.Request, store *files.Store, a domain.Attachment) error {
	f, err := store.Open(a.Path)
	if err != nil {
		return domain.NewFileNotFoundError("File tidak ditemukan di server.")
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return domain.NewFileNotFoundError("File tidak ditemukan di server.")
	}
	w.Header().Set("Content-Disposition", attachmentDisposition(a.Name))
	http.ServeContent(w, r, a.Name, info.ModTime(), f)
	return nil
}

// serveArchive streams a ZIP. The 200 status and headers are only sent with
// the first byte of output, so an archive whose first file cannot be opened
// becomes an error response. Later errors can only be logged.
func serveArchive(w http.ResponseWriter, logger *zap.Logger, a *service.Archive) error {
	aw := &archiveWriter{w: w, name: a.Name}
	if err := a.Write(aw); err != nil {
		if !aw.started {
			logger.Warn("archive file missing", zap.String("name", a.Name), zap.Error(err))
			return domain.NewFileNotFoundError("File tidak ditemukan di server.")
		}
		logger.Error("failed to stream archive", zap.String("name", a.Name), zap.Error(err))
	}
	return nil
}

// archiveWriter commits the ZIP response headers on the first write.
type archiveWriter struct {
	w       http.ResponseWriter
	name    string
	started bool
}

func (aw *archiveWriter) Write(p []byte) (int, error) {
	if !aw.started {
		aw.started = true
		aw.w.Header().Set("Content-Type", "application/zip")
		aw.w.Header().Set("Content-Disposition", attachmentDisposition(aw.name))
		aw.w.WriteHeader(http.StatusOK)
	}
	return aw.w.Write(p)
}
