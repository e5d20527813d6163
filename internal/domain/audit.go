package domain

import "time"

// AuditAction represents the type of action recorded in an audit entry.
type AuditAction string

const (
	ActionCreate AuditAction = "create"
	ActionUpdate AuditAction = "update"
	ActionDelete AuditAction = "delete"
	ActionMove   AuditAction = "move"
)

// ValidAuditActions contains all valid audit action values.
var ValidAuditActions = []AuditAction{
	ActionCreate,
	ActionUpdate,
	ActionDelete,
	ActionMove,
}

// IsValid checks if the action is a valid audit action.
func (a AuditAction) IsValid() bool {
	for _, v := range ValidAuditActions {
		if a == v {
			return true
		}
	}
	return false
}

// Audited entity names.
const (
	EntityAgency      = "opd"
	EntityLeader      = "pimpinan"
	EntityIssueReport = "laporan_pimpinan"
	EntityStaffReport = "laporan_staff"
)

// AuditEntry represents a single change in the audit log.
type AuditEntry struct {
	ID        int64       `json:"id"`
	Entity    string      `json:"entity"`
	EntityID  int64       `json:"entity_id"`
	Action    AuditAction `json:"action"`
	Field     *string     `json:"field,omitempty"`
	OldValue  *string     `json:"old_value,omitempty"`
	NewValue  *string     `json:"new_value,omitempty"`
	ChangedAt time.Time   `json:"changed_at"`
	ChangedBy string      `json:"changed_by"`
}

// NewAuditEntry creates a new audit entry with the given parameters.
func NewAuditEntry(entity string, id int64, action AuditAction, changedBy string) AuditEntry {
	return AuditEntry{
		Entity:    entity,
		EntityID:  id,
		Action:    action,
		ChangedAt: time.Now().UTC(),
		ChangedBy: changedBy,
	}
}

// WithField sets the field name for the audit entry.
func (e AuditEntry) WithField(field string) AuditEntry {
	e.Field = &field
	return e
}

// WithOldValue sets the old value for the audit entry.
func (e AuditEntry) WithOldValue(oldValue string) AuditEntry {
	e.OldValue = &oldValue
	return e
}

// WithNewValue sets the new value for the audit entry.
func (e AuditEntry) WithNewValue(newValue string) AuditEntry {
	e.NewValue = &newValue
	return e
}
