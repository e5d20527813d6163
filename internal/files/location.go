// Package files manages the upload tree: deterministic report directories,
// idempotent directory creation, moves when report metadata changes and
// cleanup of directories left empty.
package files

import (
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/pantau/pantau/internal/domain"
)

// NoLeaderFolder is the owner folder for staff reports filed without a leader.
const NoLeaderFolder = "No-Pimpinan"

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

// Sanitize replaces every character outside [a-zA-Z0-9-_] with an underscore.
func Sanitize(name string) string {
	return unsafeChars.ReplaceAllString(name, "_")
}

// MonthFolder is the YYYY-MM folder name of t.
func MonthFolder(t time.Time) string {
	return t.Format("2006-01")
}

// DayFolder is the YYYY-MM-DD folder name of t.
func DayFolder(t time.Time) string {
	return t.Format(domain.DateLayout)
}

// Location is a report directory: a category base plus the date folders.
type Location struct {
	Base string
	Date time.Time
}

// Dir returns the slash-separated directory relative to the storage root,
// {base}/{YYYY-MM}/{YYYY-MM-DD}.
func (l Location) Dir() string {
	return path.Join(l.Base, MonthFolder(l.Date), DayFolder(l.Date))
}

// MonthDir returns {base}/{YYYY-MM}.
func (l Location) MonthDir() string {
	return path.Join(l.Base, MonthFolder(l.Date))
}

// StaffTypeDir is the folder holding every owner folder of a report type.
func StaffTypeDir(t domain.StaffReportType) string {
	return path.Join("laporan", t.Name())
}

// OwnerFolder maps a leader position to its folder; "" means no leader.
func OwnerFolder(owner string) string {
	if strings.TrimSpace(owner) == "" {
		return NoLeaderFolder
	}
	return Sanitize(owner)
}

// StaffOwnerDir is laporan/{type}/{owner}.
func StaffOwnerDir(t domain.StaffReportType, owner string) string {
	return path.Join(StaffTypeDir(t), OwnerFolder(owner))
}

// StaffLocation places a staff report file. owner is the leader position,
// or "" when the report has no leader.
func StaffLocation(t domain.StaffReportType, owner string, date time.Time) Location {
	return Location{Base: StaffOwnerDir(t, owner), Date: date}
}

// IssueLocation places an issue report attachment. Issue reports have no
// owner, so the kind is the only category.
func IssueLocation(kind domain.IssueKind, date time.Time) Location {
	return Location{Base: path.Join("isu", kind.Slug()), Date: date}
}

// CleanRel normalizes a stored path to be relative to the storage root. It
// accepts legacy values that carry the public "uploads/" prefix, a
// duplicated uploads/prioritas prefix or backslashes.
func CleanRel(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(strings.TrimLeft(p, "/"), "uploads/")
	u := "/uploads/" + p
	for strings.Contains(u, "/uploads/prioritas/uploads/prioritas/") {
		u = strings.ReplaceAll(u, "/uploads/prioritas/uploads/prioritas/", "/uploads/prioritas/")
	}
	return strings.TrimPrefix(u, "/uploads/")
}

// URL returns the public URL of a stored path, always under /uploads/.
func URL(p string) string {
	return "/uploads/" + CleanRel(p)
}
