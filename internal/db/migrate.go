package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Every statement is safe to re-run.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS crops (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		nitrogen_supply REAL NOT NULL DEFAULT 0 CHECK(nitrogen_supply >= 0),
		nitrogen_demand REAL NOT NULL DEFAULT 0 CHECK(nitrogen_demand >= 0),
		no_repeat_years INTEGER NOT NULL DEFAULT 0 CHECK(no_repeat_years >= 0),
		pests           TEXT NOT NULL DEFAULT '[]',
		diseases        TEXT NOT NULL DEFAULT '[]',
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_crops_name ON crops(name COLLATE NOCASE)`,

	`CREATE TABLE IF NOT EXISTS rotations (
		id                       TEXT PRIMARY KEY,
		name                     TEXT NOT NULL,
		field_size               REAL NOT NULL CHECK(field_size > 0),
		number_of_divisions      INTEGER NOT NULL CHECK(number_of_divisions >= 1),
		max_years                INTEGER NOT NULL CHECK(max_years >= 1),
		residual_nitrogen_supply REAL NOT NULL DEFAULT 0,
		owner                    TEXT NOT NULL DEFAULT '',
		status                   TEXT NOT NULL DEFAULT 'active'
		                         CHECK(status IN ('draft','active','archived')),
		version                  INTEGER NOT NULL DEFAULT 1,
		archived_at              TEXT,
		created_at               TEXT NOT NULL,
		updated_at               TEXT NOT NULL
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_rotations_name ON rotations(name COLLATE NOCASE)`,
	`CREATE INDEX IF NOT EXISTS idx_rotations_owner ON rotations(owner)`,

	`CREATE TABLE IF NOT EXISTS plan_entries (
		rotation_id      TEXT NOT NULL REFERENCES rotations(id) ON DELETE CASCADE,
		year             INTEGER NOT NULL CHECK(year >= 1),
		division         INTEGER NOT NULL CHECK(division >= 1),
		crop_id          TEXT NOT NULL REFERENCES crops(id) ON DELETE RESTRICT,
		division_size    REAL NOT NULL CHECK(division_size > 0),
		nitrogen_balance REAL NOT NULL,
		relaxed          INTEGER NOT NULL DEFAULT 0,
		planting_date    TEXT,
		harvesting_date  TEXT,
		PRIMARY KEY (rotation_id, year, division)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_plan_entries_crop ON plan_entries(crop_id)`,
}
