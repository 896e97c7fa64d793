package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vietddude/legisync/internal/core/errs"
	"github.com/vietddude/legisync/internal/metrics"
)

// inClauseChunk bounds the number of bind parameters in one IN (...) list.
const inClauseChunk = 500

// UnitOfWork bundles the statements of one store call into a single database
// transaction, ensuring atomicity (all succeed or all fail).
type UnitOfWork struct {
	db *DB
	tx *sqlx.Tx
}

// NewUnitOfWork creates a new unit of work with an active transaction.
func (db *DB) NewUnitOfWork(ctx context.Context) (*UnitOfWork, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &UnitOfWork{db: db, tx: tx}, nil
}

// Commit commits the transaction.
func (u *UnitOfWork) Commit() error {
	if u.tx == nil {
		return errors.New("transaction already completed")
	}
	err := u.tx.Commit()
	u.tx = nil
	return err
}

// Rollback rolls back the transaction. Safe to call multiple times.
func (u *UnitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback()
	u.tx = nil
	return err
}

// exec runs a positional statement written with ? placeholders.
func (u *UnitOfWork) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := u.tx.ExecContext(ctx, u.tx.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// execIn runs a statement with a single "IN (?)" list, chunking large lists.
func (u *UnitOfWork) execIn(ctx context.Context, query string, values []string) (int64, error) {
	var total int64
	for start := 0; start < len(values); start += inClauseChunk {
		end := min(start+inClauseChunk, len(values))
		q, args, err := sqlx.In(query, values[start:end])
		if err != nil {
			return total, err
		}
		n, err := u.exec(ctx, q, args...)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// execEach prepares a named statement once and executes it per row, summing
// rows affected.
func execEach[T any](ctx context.Context, u *UnitOfWork, query string, rows []T) (int64, error) {
	stmt, err := u.tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var total int64
	for i := range rows {
		res, err := stmt.ExecContext(ctx, rows[i])
		if err != nil {
			return total, fmt.Errorf("row %d: %w", i, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// inTx runs fn inside one transaction and classifies any failure under op.
// The batch size metric is recorded under op.
func (db *DB) inTx(ctx context.Context, op string, size int, fn func(u *UnitOfWork) (int64, error)) (int64, error) {
	metrics.DBBatchSize.WithLabelValues(op).Observe(float64(size))

	u, err := db.NewUnitOfWork(ctx)
	if err != nil {
		return 0, classify(op, err)
	}

	n, err := fn(u)
	if err != nil {
		if rbErr := u.Rollback(); rbErr != nil {
			return 0, errs.Store(op, errors.Join(err, fmt.Errorf("rollback: %w", rbErr)))
		}
		return 0, classify(op, err)
	}

	if err := u.Commit(); err != nil {
		return 0, classify(op, fmt.Errorf("commit: %w", err))
	}
	return n, nil
}
