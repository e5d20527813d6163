package domain

import (
	"fmt"
	"regexp"
	"time"
)

// DateLayout is the storage and form format for report dates.
const DateLayout = "2006-01-02"

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidDateString reports whether s has the YYYY-MM-DD shape.
func ValidDateString(s string) bool {
	return dateRe.MatchString(s)
}

// ParseDate parses a YYYY-MM-DD date in UTC.
func ParseDate(s string) (time.Time, error) {
	if !ValidDateString(s) {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// FormatDate formats t as YYYY-MM-DD; the zero time formats as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// FormatDatePtr is FormatDate for optional dates.
func FormatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatDate(*t)
}

var monthsID = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// FormatDateLong formats t the Indonesian long way, e.g. "02 Januari 2024".
func FormatDateLong(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%02d %s %d", t.Day(), monthsID[t.Month()-1], t.Year())
}
