package store

import (
	"path/filepath"
	"testing"
)

func TestOpen_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pantau.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	tables := []string{
		"users", "opd", "kategori_pimpinan", "jenis", "laporan_pimpinan",
		"laporan_kewenangan", "laporan_stakeholder", "laporan_link",
		"laporan_file", "laporan_staff", "audit_log",
	}
	for _, table := range tables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("expected table %s to exist: %v", table, err)
		}
	}

	version, err := CurrentVersion(db)
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version 1, got %d", version)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "pantau.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	applied, err := Migrate(db)
	if err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
	if applied != 0 {
		t.Errorf("expected 0 migrations on second run, got %d", applied)
	}
}

func TestForeignKeysEnabled(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "pantau.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	_, err = db.Exec("INSERT INTO laporan_link (laporan_id, position, url) VALUES (999, 0, 'x')")
	if err == nil {
		t.Error("expected foreign key violation")
	}
}

func TestExtractVersion(t *testing.T) {
	tests := []struct {
		name    string
		want    int
		wantErr bool
	}{
		{"001_initial_schema.sql", 1, false},
		{"12_more.sql", 12, false},
		{"abc_bad.sql", 0, true},
	}
	for _, tt := range tests {
		got, err := extractVersion(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("extractVersion(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("extractVersion(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}
