package domain

import "time"

// StaffReportType is the reporting cadence of a staff report.
type StaffReportType int

const (
	TypeDaily     StaffReportType = 1
	TypeWeekly    StaffReportType = 2
	TypeStatement StaffReportType = 3
	TypeMonthly   StaffReportType = 4
	TypeYearly    StaffReportType = 5
)

// StaffReportTypes lists the types in display order.
var StaffReportTypes = []StaffReportType{TypeDaily, TypeWeekly, TypeStatement, TypeMonthly, TypeYearly}

// UnknownTypeFolder is the folder used for an unrecognised report type.
const UnknownTypeFolder = "Unknown"

// IsValid checks if the type is known.
func (t StaffReportType) IsValid() bool {
	for _, v := range StaffReportTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Name is both the display name and the storage folder of the type.
func (t StaffReportType) Name() string {
	switch t {
	case TypeDaily:
		return "Daily"
	case TypeWeekly:
		return "Weekly"
	case TypeStatement:
		return "Rekap Statement"
	case TypeMonthly:
		return "Bulanan"
	case TypeYearly:
		return "Tahunan"
	}
	return UnknownTypeFolder
}

// StaffReport is a report filed by staff for a leader (laporan staff).
type StaffReport struct {
	ID             int64           `json:"id"`
	Type           StaffReportType `json:"jenis_laporan"`
	LeaderID       *int64          `json:"id_pimpinan,omitempty"`
	LeaderPosition string          `json:"nama_pimpinan,omitempty"`
	MediaTypeID    *int64          `json:"id_jenis,omitempty"`
	MediaTypeName  string          `json:"nama_jenis,omitempty"`
	Date           *time.Time      `json:"tanggal_laporan,omitempty"`
	Title          string          `json:"judul"`
	Body           *string         `json:"isi_laporan,omitempty"`
	Attachment     *Attachment     `json:"file,omitempty"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedBy      *string         `json:"updated_by,omitempty"`
	UpdatedAt      *time.Time      `json:"updated_at,omitempty"`
}

// SameContent reports whether two reports carry the same editable fields.
func (r *StaffReport) SameContent(o *StaffReport) bool {
	return r.Type == o.Type &&
		eqInt64(r.LeaderID, o.LeaderID) &&
		eqInt64(r.MediaTypeID, o.MediaTypeID) &&
		FormatDatePtr(r.Date) == FormatDatePtr(o.Date) &&
		r.Title == o.Title &&
		eqString(r.Body, o.Body)
}

// PlacementChanged reports whether a field that decides the file location changed.
func (r *StaffReport) PlacementChanged(o *StaffReport) bool {
	return r.Type != o.Type ||
		!eqInt64(r.LeaderID, o.LeaderID) ||
		FormatDatePtr(r.Date) != FormatDatePtr(o.Date)
}

func eqInt64(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func eqString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
