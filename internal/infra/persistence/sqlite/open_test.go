package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenCreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "source.db")
	db, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = db.Close() }()
	var fk int
	if err := db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if fk != 1 {
		t.Fatalf("expected foreign keys enabled")
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestWithPragmas(t *testing.T) {
	if got := withPragmas("a.db"); got != "a.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)" {
		t.Fatalf("unexpected dsn %s", got)
	}
	if got := withPragmas("file:a.db?mode=ro"); got != "file:a.db?mode=ro&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)" {
		t.Fatalf("unexpected dsn %s", got)
	}
	if got := withPragmas("a.db?_pragma=journal_mode(wal)"); got != "a.db?_pragma=journal_mode(wal)" {
		t.Fatalf("explicit pragmas must be kept, got %s", got)
	}
}
