package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/alexanderramin/fallow/internal/db"
)

// FailOnNthExecUoW runs units of work in real transactions but makes the
// FailOn-th write statement return Err. Generating a plan issues one write
// for the rotation header and one per entry, so FailOn picks the exact
// entry at which persistence breaks. Reads are never counted.
type FailOnNthExecUoW struct {
	DB     *sql.DB
	FailOn int32
	Err    error

	// Execs counts write statements across every unit of work run so far.
	Execs atomic.Int32
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn db.TxFunc) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	return db.RunInTx(ctx, tx, &faultyExec{DBTX: tx, uow: u}, fn)
}

type faultyExec struct {
	db.DBTX
	uow *FailOnNthExecUoW
}

func (f *faultyExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.uow.Execs.Add(1) == f.uow.FailOn {
		return nil, f.uow.Err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
