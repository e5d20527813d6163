package domain

import (
	"testing"
	"time"
)

func TestAuditAction_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		action AuditAction
		want   bool
	}{
		{"ActionCreate is valid", ActionCreate, true},
		{"ActionUpdate is valid", ActionUpdate, true},
		{"ActionDelete is valid", ActionDelete, true},
		{"ActionMove is valid", ActionMove, true},
		{"empty string is invalid", AuditAction(""), false},
		{"random string is invalid", AuditAction("claim"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.action.IsValid(); got != tt.want {
				t.Errorf("AuditAction.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewAuditEntry(t *testing.T) {
	entry := NewAuditEntry(EntityStaffReport, 42, ActionUpdate, "operator")

	if entry.Entity != EntityStaffReport {
		t.Errorf("Entity = %v, want %v", entry.Entity, EntityStaffReport)
	}
	if entry.EntityID != 42 {
		t.Errorf("EntityID = %v, want 42", entry.EntityID)
	}
	if entry.ChangedBy != "operator" {
		t.Errorf("ChangedBy = %v, want operator", entry.ChangedBy)
	}
	if time.Since(entry.ChangedAt) > time.Second {
		t.Error("ChangedAt should be recent")
	}
	if entry.Field != nil || entry.OldValue != nil || entry.NewValue != nil {
		t.Error("optional fields should be nil")
	}
}

func TestAuditEntry_Builders(t *testing.T) {
	base := NewAuditEntry(EntityAgency, 1, ActionUpdate, "admin")
	entry := base.WithField("nama_opd").WithOldValue("Dinas A").WithNewValue("Dinas B")

	if entry.Field == nil || *entry.Field != "nama_opd" {
		t.Errorf("Field = %v, want nama_opd", entry.Field)
	}
	if entry.OldValue == nil || *entry.OldValue != "Dinas A" {
		t.Errorf("OldValue = %v, want Dinas A", entry.OldValue)
	}
	if entry.NewValue == nil || *entry.NewValue != "Dinas B" {
		t.Errorf("NewValue = %v, want Dinas B", entry.NewValue)
	}
	if base.Field != nil {
		t.Error("builders must not mutate the receiver")
	}
}
