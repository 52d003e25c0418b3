package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// connPragmas are set on every pooled connection of a file database. Plan
// entries rely on foreign keys for ON DELETE CASCADE, and a writer waiting
// on another writer should block briefly instead of failing with
// SQLITE_BUSY.
var connPragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"journal_mode(WAL)",
}

// OpenDB opens the crop and rotation database at path, creating its
// directory if needed, and applies migrations. An in-memory database lives
// only as long as its single connection, so it is pinned to one.
func OpenDB(path string) (*sql.DB, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	database, err := sql.Open("sqlite", dataSourceName(path))
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	if path == MemoryPath {
		database.SetMaxOpenConns(1)
		if _, err := database.Exec("PRAGMA foreign_keys = ON"); err != nil {
			database.Close()
			return nil, fmt.Errorf("enabling foreign keys: %w", err)
		}
	}

	if err := Migrate(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return database, nil
}

func dataSourceName(path string) string {
	if path == MemoryPath {
		return path
	}
	return path + "?_pragma=" + strings.Join(connPragmas, "&_pragma=")
}
