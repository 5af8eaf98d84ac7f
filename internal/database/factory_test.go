package database

import (
	"path/filepath"
	"testing"

	"mdx-go/internal/config"
)

func TestNewStoreFromConfig(t *testing.T) {
	t.Run("sqlite with data dir", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewStoreFromConfig(config.DatabaseConfig{Type: "sqlite", DataDir: dir})
		if err != nil {
			t.Fatalf("NewStoreFromConfig() error = %v", err)
		}
		defer store.Close()

		want := filepath.Join(dir, "mdx.db")
		if store.Path() != want {
			t.Errorf("Path() = %q, want %q", store.Path(), want)
		}
	})

	t.Run("sqlite without data dir", func(t *testing.T) {
		_, err := NewStoreFromConfig(config.DatabaseConfig{Type: "sqlite"})
		if err == nil {
			t.Fatal("expected error for missing data_dir")
		}
	})

	t.Run("memory is migrated immediately", func(t *testing.T) {
		store, err := NewStoreFromConfig(config.DatabaseConfig{Type: "memory"})
		if err != nil {
			t.Fatalf("NewStoreFromConfig() error = %v", err)
		}
		defer store.Close()

		if err := store.CheckMigrations(); err != nil {
			t.Errorf("CheckMigrations() error = %v, want up-to-date schema", err)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := NewStoreFromConfig(config.DatabaseConfig{Type: "postgres"})
		if err == nil {
			t.Fatal("expected error for unknown database type")
		}
	})
}
