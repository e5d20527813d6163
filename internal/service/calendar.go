package service

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/export"
	"github.com/pantau/pantau/internal/files"
)

// CalendarFile is a stored file listed on the calendar.
type CalendarFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// CalendarDay is a day of the month holding at least one file.
type CalendarDay struct {
	Day       int            `json:"day"`
	FileCount int            `json:"fileCount"`
	Files     []CalendarFile `json:"files"`
}

// Calendar lists the days of a month that hold files for a report type and
// leader. A nil leader means reports filed without one.
func (s *StaffService) Calendar(ctx context.Context, t domain.StaffReportType, leaderID *int64, year, month int) ([]CalendarDay, error) {
	if month < 1 || month > 12 || year < 1 {
		return []CalendarDay{}, nil
	}
	owner, err := s.owner(ctx, leaderID)
	if err != nil {
		return nil, err
	}

	days, err := s.files.MonthDays(files.StaffOwnerDir(t, owner), year, time.Month(month))
	if err != nil {
		return nil, domain.NewInternalError(err)
	}

	out := make([]CalendarDay, 0, len(days))
	for _, d := range days {
		cd := CalendarDay{Day: d.Day, FileCount: len(d.Files), Files: make([]CalendarFile, 0, len(d.Files))}
		for _, f := range d.Files {
			cd.Files = append(cd.Files, CalendarFile{Name: f.Name, Path: files.URL(f.Path)})
		}
		out = append(out, cd)
	}
	return out, nil
}

// ZipRequest selects the files of one report type and leader to archive.
// Both StartDate and EndDate select a date range; otherwise Day selects a
// single day of Year-Month, and without Day the whole month is archived.
type ZipRequest struct {
	Type      domain.StaffReportType
	LeaderID  *int64
	Year      string
	Month     string
	Day       string
	StartDate string
	EndDate   string
}

// StaffArchive collects the stored files selected by req.
func (s *StaffService) StaffArchive(ctx context.Context, req ZipRequest) (*Archive, error) {
	owner, err := s.owner(ctx, req.LeaderID)
	if err != nil {
		return nil, err
	}
	base := files.StaffOwnerDir(req.Type, owner)
	prefix := req.Type.Name() + "_" + files.OwnerFolder(owner)

	switch {
	case req.StartDate != "" && req.EndDate != "":
		return s.rangeArchive(ctx, base, prefix, req.StartDate, req.EndDate)
	case req.Day != "":
		date, err := domain.ParseDate(joinDate(req.Year, req.Month, req.Day))
		if err != nil {
			return nil, domain.NewValidationError([]string{"Format tanggal tidak valid."})
		}
		entries, err := s.files.DayFiles(base, date)
		if err != nil {
			return nil, domain.NewInternalError(err)
		}
		if len(entries) == 0 {
			return nil, domain.NewFileNotFoundError("Tidak ada file untuk tanggal tersebut.")
		}
		zipEntries := make([]export.Entry, 0, len(entries))
		for _, e := range entries {
			zipEntries = append(zipEntries, export.Entry{Name: e.Name, Path: e.Path})
		}
		return NewArchive(fmt.Sprintf("%s_%s.zip", prefix, files.DayFolder(date)), s.files, zipEntries), nil
	default:
		first, err := domain.ParseDate(joinDate(req.Year, req.Month, "1"))
		if err != nil {
			return nil, domain.NewValidationError([]string{"Format tanggal tidak valid."})
		}
		days, err := s.files.MonthDays(base, first.Year(), first.Month())
		if err != nil {
			return nil, domain.NewInternalError(err)
		}
		var zipEntries []export.Entry
		for _, d := range days {
			for _, f := range d.Files {
				zipEntries = append(zipEntries, export.Entry{Name: path.Join(d.Date, f.Name), Path: f.Path})
			}
		}
		if len(zipEntries) == 0 {
			return nil, domain.NewFileNotFoundError("Tidak ada file untuk bulan tersebut.")
		}
		return NewArchive(fmt.Sprintf("%s_%s.zip", prefix, files.MonthFolder(first)), s.files, zipEntries), nil
	}
}

func (s *StaffService) rangeArchive(ctx context.Context, base, prefix, startDate, endDate string) (*Archive, error) {
	start, err := domain.ParseDate(strings.TrimSpace(startDate))
	if err != nil {
		return nil, domain.NewValidationError([]string{"Format tanggal tidak valid."})
	}
	end, err := domain.ParseDate(strings.TrimSpace(endDate))
	if err != nil {
		return nil, domain.NewValidationError([]string{"Format tanggal tidak valid."})
	}
	if end.Before(start) {
		return nil, domain.NewValidationError([]string{"Tanggal akhir tidak boleh lebih kecil dari tanggal awal."})
	}

	days, err := s.files.RangeDays(ctx, base, files.DayFolder(start), files.DayFolder(end))
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	var zipEntries []export.Entry
	for _, d := range days {
		for _, f := range d.Files {
			zipEntries = append(zipEntries, export.Entry{Name: path.Join(d.Date, f.Name), Path: f.Path})
		}
	}
	if len(zipEntries) == 0 {
		return nil, domain.NewFileNotFoundError("Tidak ada file pada periode tersebut.")
	}
	return NewArchive(fmt.Sprintf("%s_%s_sampai_%s.zip", prefix, files.DayFolder(start), files.DayFolder(end)), s.files, zipEntries), nil
}

// joinDate builds YYYY-MM-DD from form parts that may lack zero padding.
func joinDate(year, month, day string) string {
	y, err1 := strconv.Atoi(strings.TrimSpace(year))
	m, err2 := strconv.Atoi(strings.TrimSpace(month))
	d, err3 := strconv.Atoi(strings.TrimSpace(day))
	if err1 != nil || err2 != nil || err3 != nil {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}
