package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// TxFunc does the writes of one unit of work. Repositories built on tx see
// each other's uncommitted rows.
type TxFunc func(ctx context.Context, tx DBTX) error

// UnitOfWork commits everything fn writes, or nothing. Generating a rotation
// inserts the header and every plan entry through one call; an edit rewrites
// the header version and the recomputed entries the same way, so a failure
// half way leaves the previously stored plan as it was.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

// SQLiteUnitOfWork runs each unit of work in a database/sql transaction.
type SQLiteUnitOfWork struct {
	db *sql.DB
}

func NewSQLiteUnitOfWork(db *sql.DB) *SQLiteUnitOfWork {
	return &SQLiteUnitOfWork{db: db}
}

func (u *SQLiteUnitOfWork) WithinTx(ctx context.Context, fn TxFunc) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	return RunInTx(ctx, tx, tx, fn)
}

// RunInTx calls fn with exec and then commits tx, or rolls it back when fn
// fails or panics. exec is normally tx itself; tests wrap it to inject
// faults at a chosen statement.
func RunInTx(ctx context.Context, tx *sql.Tx, exec DBTX, fn TxFunc) error {
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, exec); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rolling back: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	committed = true
	return nil
}
