package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"kosyak-bot/config"
	"kosyak-bot/core/utils"
)

// NewDB opens the single SQLite file backing the tracker. The pool is capped
// at one connection because every handler awaits its store call to completion
// before the next update is dispatched. Timestamps are stored in SQLite's own
// text format so strftime and friends can read them.
func NewDB(cfg *config.AppConfig, logger *utils.Logger) (*sql.DB, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", cfg.DBPath+"?_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.DBPath, err)
	}
	db.SetMaxOpenConns(1)
	pragmas := []string{
		`PRAGMA foreign_keys=ON`,
		`PRAGMA journal_mode=WAL`,
		`PRAGMA busy_timeout=5000`,
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", p, err)
		}
	}
	logger.Printf("store opened at %s", cfg.DBPath)
	return db, nil
}
