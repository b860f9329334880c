package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

var DB *sql.DB

// InitDatabase opens the sqlite database at dbPath into DB and creates tables
func InitDatabase(dbPath string) error {
	database, err := Open(dbPath)
	if err != nil {
		return err
	}
	DB = database
	slog.Info("database initialized", "path", dbPath)
	return nil
}

// Open opens (creating if needed) the sqlite database at dbPath and ensures
// the schema exists
func Open(dbPath string) (*sql.DB, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	database, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=1&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := createTables(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return database, nil
}

// createTables creates the scene tables. Looks are stored as JSON documents.
func createTables(database *sql.DB) error {
	createTemplatesTable := `
	CREATE TABLE IF NOT EXISTS scene_templates (
		element_type TEXT PRIMARY KEY,
		look_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		look_json TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := database.Exec(createTemplatesTable); err != nil {
		return fmt.Errorf("failed to create scene_templates table: %w", err)
	}

	createLooksTable := `
	CREATE TABLE IF NOT EXISTS element_looks (
		element_id TEXT PRIMARY KEY,
		element_type TEXT NOT NULL DEFAULT '',
		look_id TEXT NOT NULL,
		look_json TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := database.Exec(createLooksTable); err != nil {
		return fmt.Errorf("failed to create element_looks table: %w", err)
	}

	// Index on element_type for listing looks of one type
	createTypeIndex := `CREATE INDEX IF NOT EXISTS idx_element_looks_type ON element_looks(element_type);`
	if _, err := database.Exec(createTypeIndex); err != nil {
		return fmt.Errorf("failed to create element_type index: %w", err)
	}

	return nil
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
