package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// InitSQLite initializes the local SQLite database and creates the schemas
// for the guild record store and the combat history ledger.
func InitSQLite(dbPath string, maxOpenConns int) (*sql.DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	// Create tables
	if err := createSchemas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}

	return db, nil
}

func createSchemas(db *sql.DB) error {
	schemas := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS materials (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			rarity TEXT,
			quantity INTEGER NOT NULL DEFAULT 0,
			description TEXT,
			created_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS equipment (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			rarity TEXT,
			stats TEXT,
			equipped INTEGER NOT NULL DEFAULT 0,
			crafted INTEGER NOT NULL DEFAULT 0,
			created_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS bestiary (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			ghost_name TEXT NOT NULL,
			location_id TEXT,
			encounters INTEGER NOT NULL DEFAULT 0,
			defeats INTEGER NOT NULL DEFAULT 0,
			first_encounter TEXT,
			last_encounter TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS skill_tree (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			skill_id TEXT NOT NULL,
			name TEXT NOT NULL,
			skill_type TEXT NOT NULL,
			level INTEGER NOT NULL DEFAULT 0,
			max_level INTEGER NOT NULL,
			unlocked INTEGER NOT NULL DEFAULT 0,
			description TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS crafting_recipes (
			id TEXT PRIMARY KEY,
			item_name TEXT NOT NULL,
			item_type TEXT NOT NULL,
			rarity TEXT NOT NULL,
			required_materials TEXT NOT NULL,
			stats TEXT,
			description TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS wallet (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE,
			ectos INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			event_type TEXT NOT NULL,
			target_id TEXT NOT NULL,
			payload TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_materials_user_id ON materials(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_equipment_user_id ON equipment(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_bestiary_user_id ON bestiary(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_skill_tree_user_id ON skill_tree(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_events_user_id ON events(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_events_event_type ON events(event_type);`,
	}

	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}
