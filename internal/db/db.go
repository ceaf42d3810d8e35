package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/styleatelier/atelier/internal/config"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 2

// FileName is the database file created inside the base directory.
const FileName = "atelier.db"

// Init initializes the SQLite database at baseDir/atelier.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.atelier.
func Init(baseDir string) (*sql.DB, error) {
	// Create base directory with restricted permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	exportsDir := filepath.Join(baseDir, "exports")
	if err := os.MkdirAll(exportsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create exports directory: %w", err)
	}
	_ = os.Chmod(exportsDir, 0700)

	// Pragmas in the DSN apply to every pooled connection
	dbPath := filepath.Join(baseDir, FileName)
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: cards and history
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS style_cards (
		  id              TEXT PRIMARY KEY,
		  name            TEXT NOT NULL,
		  segments_json   TEXT NOT NULL,
		  parameters_json TEXT NOT NULL,
		  masking_json    TEXT NOT NULL,
		  tier            TEXT NOT NULL,
		  is_favorite     INTEGER NOT NULL DEFAULT 0,
		  is_pinned       INTEGER NOT NULL DEFAULT 0,
		  usage_count     INTEGER NOT NULL DEFAULT 0,
		  tags_json       TEXT,
		  dominant_color  TEXT NOT NULL,
		  thumbnail_data  TEXT NOT NULL,
		  frame_id        TEXT NOT NULL,
		  genealogy_json  TEXT NOT NULL,
		  created_at      INTEGER NOT NULL,
		  updated_at      INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_style_cards_updated
		ON style_cards(updated_at DESC);

		CREATE INDEX IF NOT EXISTS idx_style_cards_pinned
		ON style_cards(updated_at DESC)
		WHERE is_pinned = 1;

		CREATE INDEX IF NOT EXISTS idx_style_cards_tier
		ON style_cards(tier);

		CREATE TABLE IF NOT EXISTS history_items (
		  id              TEXT PRIMARY KEY,
		  full_command    TEXT NOT NULL,
		  image_url       TEXT NOT NULL,
		  timestamp       INTEGER NOT NULL,
		  related_card_id TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_history_items_timestamp
		ON history_items(timestamp DESC);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Migration 1 -> 2: decks
	if version < 2 {
		schema := `
		CREATE TABLE IF NOT EXISTS decks (
		  id            TEXT PRIMARY KEY,
		  name          TEXT NOT NULL,
		  card_ids_json TEXT NOT NULL,
		  theme_color   TEXT,
		  last_used_at  INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_decks_last_used
		ON decks(last_used_at DESC);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 2 failed: %w", err)
		}
		if err := SetUserVersion(db, 2); err != nil {
			return err
		}
	}

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
