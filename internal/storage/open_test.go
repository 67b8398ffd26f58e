package storage

import (
	"path/filepath"
	"testing"

	"github.com/LJTian/SyndicateHub/internal/config"
)

func TestOpenSelectsBackend(t *testing.T) {
	dir := t.TempDir()

	b, err := Open(&config.Config{SeenBackend: "file", SeenFile: filepath.Join(dir, "seen.txt")})
	if err != nil {
		t.Fatalf("Open(file) error: %v", err)
	}
	if b.Name() != "file" {
		t.Fatalf("Name = %q, want file", b.Name())
	}

	b, err = Open(&config.Config{SeenBackend: "sqlite", SQLitePath: filepath.Join(dir, "seen.db")})
	if err != nil {
		t.Fatalf("Open(sqlite) error: %v", err)
	}
	defer b.Close()
	if b.Name() != "sqlite" {
		t.Fatalf("Name = %q, want sqlite", b.Name())
	}

	if _, err := Open(&config.Config{SeenBackend: "tape"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
