package domain

import (
	"strings"
	"time"
)

// Agency is a regional government organisation (OPD) that can be named as
// a stakeholder on issue reports.
type Agency struct {
	ID        int64     `json:"id"`
	Name      string    `json:"nama_opd"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedBy int64     `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Leader is a leadership position (kategori pimpinan). Staff reports are
// filed against a leader, and the position text names the upload folder.
type Leader struct {
	ID        int64     `json:"id_pimpinan"`
	Position  string    `json:"jabatan_pimpinan"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedBy int64     `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MediaType classifies the medium a staff report came from.
type MediaType struct {
	ID   int64  `json:"id_jenis"`
	Name string `json:"nama_jenis"`
}

// User is an operator account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// NormalizeName trims a master-data name and reports whether anything is left.
func NormalizeName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	return name, name != ""
}
