package db

import "testing"

func TestOpenInMemoryAppliesSchema(t *testing.T) {
	database, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer database.Close()

	var count int
	if err := database.QueryRow("SELECT COUNT(*) FROM memory_entries").Scan(&count); err != nil {
		t.Fatalf("query memory_entries: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty table, got %d rows", count)
	}
}

func TestOpenCreatesDataDirectory(t *testing.T) {
	path := t.TempDir() + "/nested/memory.db"

	database, err := Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer database.Close()

	if _, err := database.Exec(`INSERT INTO memory_entries (query, response, timestamp) VALUES ('q', 'r', '2026-01-01T00:00:00Z')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
}
