package database

import (
	"path/filepath"
	"testing"
)

func TestOpenMigrates(t *testing.T) {
	db, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"lists", "list_items"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}

	v, err := SchemaVersion(db)
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if v < 1 {
		t.Errorf("version = %d, want >= 1", v)
	}
}

func TestOpenCreatesDirAndReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "shoplist.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO lists (id, created_at) VALUES ('a', CURRENT_TIMESTAMP)`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	var n int
	db.QueryRow(`SELECT COUNT(*) FROM lists`).Scan(&n)
	if n != 1 {
		t.Errorf("lists = %d, want 1", n)
	}
}

func TestQuantityConstraint(t *testing.T) {
	db, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	db.Exec(`INSERT INTO lists (id, created_at) VALUES ('a', CURRENT_TIMESTAMP)`)
	_, err = db.Exec(`INSERT INTO list_items (list_id, item_id, position, name, quantity, observation, paid, price)
		VALUES ('a', 'x', 0, 'Sal', 0, '', 0, 0)`)
	if err == nil {
		t.Error("quantity 0 should violate the check constraint")
	}
}
