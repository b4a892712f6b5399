package db

import (
	"path/filepath"
	"testing"
)

func TestOpenAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.sqlite3")

	database, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	if err := Migrate(database); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	// Migrations are recorded and re-running is a no-op.
	if err := Migrate(database); err != nil {
		t.Fatalf("Migrate rerun: %v", err)
	}

	var n int
	if err := database.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		t.Fatalf("schema missing items table: %v", err)
	}
	if n != 0 {
		t.Errorf("expected empty items table, got %d rows", n)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	database := NewTestDB(t)

	_, err := database.Exec(
		`INSERT INTO active_leases (item_id, holder_id, quantity, lease_until)
		 VALUES (999, 999, 1, CURRENT_TIMESTAMP)`,
	)
	if err == nil {
		t.Error("expected foreign key violation")
	}
}
