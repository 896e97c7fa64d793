package sqlstore

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/vietddude/legisync/internal/core/errs"
)

// classify maps a driver error onto the error taxonomy. Connection loss,
// timeouts, serialization failures and SQLite lock contention are transient;
// integrity violations are constraint errors; everything else is a store error.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errs.KindOf(err) != errs.KindUnknown {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fromSQLState(op, pgErr.Code, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fromSQLState(op, string(pqErr.Code), err)
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return errs.Transient(op, err)
		case sqlite3.SQLITE_CONSTRAINT:
			return errs.Constraint(op, err)
		}
		return errs.Store(op, err)
	}

	if pgconn.Timeout(err) {
		return errs.Transient(op, err)
	}
	return errs.FromNetwork(op, err)
}

func fromSQLState(op, code string, err error) error {
	switch {
	case strings.HasPrefix(code, "23"):
		return errs.Constraint(op, err)
	case strings.HasPrefix(code, "08"), // connection exception
		code == "40001", // serialization_failure
		code == "40P01", // deadlock_detected
		code == "53300", // too_many_connections
		code == "57P01", // admin_shutdown
		code == "57P03": // cannot_connect_now
		return errs.Transient(op, err)
	}
	return errs.Store(op, err)
}
