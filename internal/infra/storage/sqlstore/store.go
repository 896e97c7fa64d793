// Package sqlstore implements storage.Store over database/sql with sqlx.
// The same SQL runs on PostgreSQL (pgx or lib/pq) and SQLite (modernc).
package sqlstore

import (
	"context"
	"fmt"

	"github.com/vietddude/legisync/internal/infra/storage"
)

// Store implements storage.Store.
type Store struct {
	db *DB
}

var _ storage.Store = (*Store)(nil)

// New creates a store over an open database.
func New(db *DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database.
func (s *Store) DB() *DB { return s.db }

// Counts returns row counts per table.
func (s *Store) Counts(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64, len(storage.Tables))
	for _, table := range storage.Tables {
		var n int64
		// Table names come from a fixed list, never from input.
		if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table); err != nil {
			return nil, classify("store.counts", fmt.Errorf("count %s: %w", table, err))
		}
		out[table] = n
	}
	return out, nil
}

// KnownIDs returns the stored member, bill and roll call identifiers.
func (s *Store) KnownIDs(ctx context.Context) (*storage.KnownIDs, error) {
	const op = "store.known_ids"
	known := storage.NewKnownIDs()

	var members, bills []int64
	if err := s.db.SelectContext(ctx, &members, "SELECT id FROM members"); err != nil {
		return nil, classify(op, err)
	}
	if err := s.db.SelectContext(ctx, &bills, "SELECT id FROM bills"); err != nil {
		return nil, classify(op, err)
	}
	var rollCalls []string
	if err := s.db.SelectContext(ctx, &rollCalls, "SELECT id FROM roll_call_votes"); err != nil {
		return nil, classify(op, err)
	}

	for _, id := range members {
		known.Members[id] = struct{}{}
	}
	for _, id := range bills {
		known.Bills[id] = struct{}{}
	}
	for _, id := range rollCalls {
		known.RollCalls[id] = struct{}{}
	}
	return known, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
