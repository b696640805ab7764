package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	src := "package x\n\nimport (\n\t\"database/sql\"\n\t\"example.com/m/internal/y\"\n)\n\nvar _ = sql.ErrNoRows\nvar _ = y.Z\n"
	if err := os.WriteFile(filepath.Join(dir, "x.go"), []byte(src), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "x_test.go"), []byte("package x\n\nimport \"modernc.org/sqlite\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	viols, err := directImportViolations(dir, StorageImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 {
		t.Fatalf("expected database/sql violation only, got %v", viols)
	}
	viols, _ = directImportViolations(dir, InternalImportForbidden)
	if len(viols) != 1 {
		t.Fatalf("expected internal violation, got %v", viols)
	}
}

func TestDirectImportViolationsMissingDir(t *testing.T) {
	if _, err := directImportViolations(filepath.Join(t.TempDir(), "nope"), InternalImportForbidden); err == nil {
		t.Fatalf("expected error")
	}
}
