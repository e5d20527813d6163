package domain

import (
	"regexp"
	"strings"
	"time"
)

// IssueKind distinguishes the three leadership issue report boards.
type IssueKind int

const (
	KindPriority  IssueKind = 1
	KindSpecial   IssueKind = 2
	KindViralness IssueKind = 3
)

// ValidIssueKinds contains all valid issue kinds.
var ValidIssueKinds = []IssueKind{KindPriority, KindSpecial, KindViralness}

// IsValid checks if the kind is a known issue kind.
func (k IssueKind) IsValid() bool {
	for _, v := range ValidIssueKinds {
		if k == v {
			return true
		}
	}
	return false
}

// Title returns the board title shown in the UI.
func (k IssueKind) Title() string {
	switch k {
	case KindPriority:
		return "Isu Prioritas"
	case KindSpecial:
		return "Isu Khusus"
	case KindViralness:
		return "Viralitas"
	}
	return "Isu"
}

// Slug is the URL segment and storage folder for the kind.
func (k IssueKind) Slug() string {
	switch k {
	case KindPriority:
		return "isu-prioritas"
	case KindSpecial:
		return "isu-khusus"
	case KindViralness:
		return "viralitas"
	}
	return "isu"
}

// MonitoringSlug is the monitoring page segment for the kind.
func (k IssueKind) MonitoringSlug() string {
	switch k {
	case KindPriority:
		return "monitoring-prioritas"
	case KindSpecial:
		return "monitoring-khusus"
	case KindViralness:
		return "monitoring-viralitas"
	}
	return "monitoring"
}

// Attachment is a stored upload. Path is relative to the storage root and
// always uses forward slashes.
type Attachment struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
}

// IssueReport is a leadership issue report (laporan pimpinan).
type IssueReport struct {
	ID             int64        `json:"id"`
	Kind           IssueKind    `json:"jenis_laporan"`
	Title          string       `json:"judul"`
	Date           time.Time    `json:"tanggal_laporan"`
	Body           string       `json:"isi_laporan"`
	Authorities    []string     `json:"kewenangan"`
	StakeholderIDs []int64      `json:"stakeholder_ids"`
	Stakeholders   []Agency     `json:"stakeholders"`
	Links          []string     `json:"links"`
	Attachments    []Attachment `json:"files"`
	CreatedBy      string       `json:"created_by"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedBy      *string      `json:"updated_by,omitempty"`
	UpdatedAt      *time.Time   `json:"updated_at,omitempty"`
}

// StakeholderNames returns the resolved agency names in stored order.
func (r *IssueReport) StakeholderNames() []string {
	names := make([]string, 0, len(r.Stakeholders))
	for _, a := range r.Stakeholders {
		names = append(names, a.Name)
	}
	return names
}

// TotalAttachmentSize sums attachment sizes.
func (r *IssueReport) TotalAttachmentSize() int64 {
	var total int64
	for _, a := range r.Attachments {
		total += a.Size
	}
	return total
}

var schemeRe = regexp.MustCompile(`^https?://`)

// CleanLink trims a link and adds https:// when no http(s) scheme is present.
// Empty input yields "".
func CleanLink(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	if !schemeRe.MatchString(link) {
		link = "https://" + link
	}
	return link
}

// CleanLinks applies CleanLink and drops empty results.
func CleanLinks(links []string) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		if c := CleanLink(l); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// CleanTags trims free-text tags and drops empty ones.
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
