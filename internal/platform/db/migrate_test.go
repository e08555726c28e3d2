package db

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMigration(t *testing.T, dir, name, sql string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(sql), 0o644); err != nil {
		t.Fatalf("write migration file: %v", err)
	}
}

func TestLoadMigrations_SortsByVersion(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "002_notes.sql", "CREATE TABLE session_note ();")
	writeMigration(t, dir, "001_core.sql", "CREATE TABLE therapy_request ();")
	writeMigration(t, dir, "010_feesplit.sql", "CREATE TABLE fee_split_config ();")

	m := NewMigrator(nil, dir)
	migrations, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}
	versions := []int{migrations[0].Version, migrations[1].Version, migrations[2].Version}
	if versions[0] != 1 || versions[1] != 2 || versions[2] != 10 {
		t.Errorf("unexpected order: %v", versions)
	}
}

func TestLoadMigrations_SkipsNonNumericPrefix(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "001_core.sql", "SELECT 1;")
	writeMigration(t, dir, "README.sql", "not a migration")
	writeMigration(t, dir, "notes.txt", "not sql")

	m := NewMigrator(nil, dir)
	migrations, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(migrations) != 1 {
		t.Errorf("expected 1 migration, got %d", len(migrations))
	}
}

func TestLoadMigrations_MissingDirectory(t *testing.T) {
	m := NewMigrator(nil, "/nonexistent/migrations")
	if _, err := m.LoadMigrations(); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestLoadMigrations_ReadsSQLContent(t *testing.T) {
	dir := t.TempDir()
	sql := "CREATE TABLE session (session_id UUID PRIMARY KEY);"
	writeMigration(t, dir, "001_sessions.sql", sql)

	m := NewMigrator(nil, dir)
	migrations, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if migrations[0].SQL != sql {
		t.Errorf("unexpected SQL content: %q", migrations[0].SQL)
	}
	if migrations[0].Name != "001_sessions.sql" {
		t.Errorf("unexpected name: %s", migrations[0].Name)
	}
}
