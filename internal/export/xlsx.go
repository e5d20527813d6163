package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/pantau/pantau/internal/domain"
)

const staffSheet = "Laporan Staff"

var staffHeader = []interface{}{
	"No", "Tanggal", "Jenis Laporan", "Pimpinan", "Media", "Judul", "Isi Laporan", "File", "Dibuat Oleh",
}

// WriteStaffXLSX writes the reports as a single-sheet workbook to w.
func WriteStaffXLSX(w io.Writer, reports []*domain.StaffReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", staffSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(staffSheet, "A1", &staffHeader); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(staffSheet, 1, 1, bold); err != nil {
		return err
	}

	for i, r := range reports {
		body := ""
		if r.Body != nil {
			body = *r.Body
		}
		file := ""
		if r.Attachment != nil {
			file = r.Attachment.Name
		}
		leader := r.LeaderPosition
		if leader == "" {
			leader = "-"
		}

		row := []interface{}{
			i + 1,
			domain.FormatDatePtr(r.Date),
			r.Type.Name(),
			leader,
			r.MediaTypeName,
			r.Title,
			body,
			file,
			r.CreatedBy,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(staffSheet, cell, &row); err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(staffSheet, "F", "G", 40); err != nil {
		return err
	}
	return f.Write(w)
}
