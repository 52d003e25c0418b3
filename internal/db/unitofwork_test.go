package db_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alexanderramin/fallow/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestUoW(t *testing.T) *db.SQLiteUnitOfWork {
	t.Helper()
	database, err := db.OpenDB(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return db.NewSQLiteUnitOfWork(database)
}

func insertCrop(ctx context.Context, tx db.DBTX, id, name string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := tx.ExecContext(ctx,
		`INSERT INTO crops (id, name, nitrogen_supply, nitrogen_demand, no_repeat_years, created_at, updated_at)
		 VALUES (?, ?, 10, 100, 1, ?, ?)`, id, name, now, now)
	return err
}

// cropExists reads through a fresh transaction so it sees committed state only.
func cropExists(uow *db.SQLiteUnitOfWork, id string) bool {
	var found bool
	_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		var name string
		if err := tx.QueryRowContext(ctx, `SELECT name FROM crops WHERE id = ?`, id).Scan(&name); err != nil {
			return nil
		}
		found = true
		return nil
	})
	return found
}

func TestWithinTx_CommitOnSuccess(t *testing.T) {
	uow := openTestUoW(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		return insertCrop(ctx, tx, "c1", "Wheat")
	})
	require.NoError(t, err)
	assert.True(t, cropExists(uow, "c1"), "row should exist after commit")
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	uow := openTestUoW(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := insertCrop(ctx, tx, "c2", "Corn"); err != nil {
			return err
		}
		return fmt.Errorf("deliberate failure")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deliberate failure")
	assert.False(t, cropExists(uow, "c2"), "row should not exist after rollback")
}

func TestWithinTx_RollbackOnPanic(t *testing.T) {
	uow := openTestUoW(t)

	assert.Panics(t, func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_ = insertCrop(ctx, tx, "c3", "Barley")
			panic("boom")
		})
	})
	assert.False(t, cropExists(uow, "c3"), "row should not exist after panic rollback")
}

func TestWithinTx_ConstraintViolationRollsBackEarlierWrites(t *testing.T) {
	uow := openTestUoW(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := insertCrop(ctx, tx, "c4", "Oats"); err != nil {
			return err
		}
		// Crop names are unique regardless of case.
		return insertCrop(ctx, tx, "c5", "OATS")
	})
	require.Error(t, err)
	assert.False(t, cropExists(uow, "c4"))
}
