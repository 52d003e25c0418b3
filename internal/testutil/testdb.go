package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/fallow/internal/db"
	"github.com/alexanderramin/fallow/internal/domain"
)

// NewTestDB opens a migrated in-memory database that closes with the test.
// It holds a single connection, so never query it through the *sql.DB
// while a unit of work is open.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()
	return openTestDB(t, db.MemoryPath)
}

// NewFileTestDB opens a migrated database file under t.TempDir. Unlike the
// in-memory database it pools connections, which is what concurrent
// writers need.
func NewFileTestDB(t testing.TB) *sql.DB {
	t.Helper()
	return openTestDB(t, filepath.Join(t.TempDir(), "fallow_test.db"))
}

func openTestDB(t testing.TB, path string) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(path)
	if err != nil {
		t.Fatalf("opening test database %s: %v", path, err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}

// CropCreator is satisfied by both the crop repository and the crop service.
type CropCreator interface {
	Create(ctx context.Context, c *domain.Crop) error
}

// SeedCrops stores crops in order and fails the test on the first error.
func SeedCrops(t testing.TB, store CropCreator, crops ...*domain.Crop) {
	t.Helper()
	for _, c := range crops {
		if err := store.Create(context.Background(), c); err != nil {
			t.Fatalf("seeding crop %q: %v", c.Name, err)
		}
	}
}
