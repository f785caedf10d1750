package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"kosyak-bot/config"
	"kosyak-bot/core/utils"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := &config.AppConfig{DBPath: filepath.Join(t.TempDir(), "tracker.db")}
	logger := utils.NewLogger()
	db, err := NewDB(cfg, logger)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := ApplyMigrations(context.Background(), db, logger); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return db
}

func mustAddStaff(t *testing.T, staff StaffStore, names ...string) {
	t.Helper()
	ctx := context.Background()
	for _, name := range names {
		if err := staff.AddStaff(ctx, name); err != nil {
			t.Fatalf("add staff %s: %v", name, err)
		}
	}
}
