package persistence

import (
	"context"
	"path/filepath"
	"testing"
)

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE x = ? AND y IN (?,?)"
	if got := DialectSQLite.Rebind(q); got != q {
		t.Fatalf("sqlite rebind changed query: %s", got)
	}
	want := "SELECT a FROM t WHERE x = $1 AND y IN ($2,$3)"
	if got := DialectPostgres.Rebind(q); got != want {
		t.Fatalf("postgres rebind = %s", got)
	}
}

func TestPlaceholders(t *testing.T) {
	if Placeholders(0) != "" || Placeholders(1) != "?" || Placeholders(3) != "?,?,?" {
		t.Fatalf("unexpected placeholders")
	}
}

func TestOpenDispatch(t *testing.T) {
	ctx := context.Background()
	db, dialect, err := Open(ctx, "sqlite", filepath.Join(t.TempDir(), "src.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() { _ = db.Close() }()
	if dialect != DialectSQLite {
		t.Fatalf("unexpected dialect %s", dialect)
	}
	if _, _, err := Open(ctx, "oracle", "x"); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
