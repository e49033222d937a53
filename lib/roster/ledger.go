// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

package roster

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/pfpacket/boushitsu/lib/sqlitepool"
)

const schema = `
CREATE TABLE IF NOT EXISTS members (
	id        TEXT PRIMARY KEY,
	logged_in INTEGER NOT NULL DEFAULT 0
);
`

// Ledger is the membership login ledger. Safe for concurrent use; all
// state lives in SQLite and every operation is a single atomic
// statement, so a badge tap arriving on the socket path cannot
// interleave half-way with the dispatch loop's bulk logout.
type Ledger struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger
}

// Config holds the parameters for opening a Ledger.
type Config struct {
	// Pool is the SQLite pool backing the ledger. Required. The
	// ledger shares the pool with the identity directory; both
	// create their own tables on first use.
	Pool *sqlitepool.Pool

	// Logger receives operational messages. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// New creates a Ledger and ensures its schema exists.
func New(ctx context.Context, cfg Config) (*Ledger, error) {
	if cfg.Pool == nil {
		return nil, fmt.Errorf("roster: Pool is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := cfg.Pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}
	defer cfg.Pool.Put(conn)

	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return nil, fmt.Errorf("roster: creating schema: %w", err)
	}

	return &Ledger{pool: cfg.Pool, logger: logger}, nil
}

// Toggle flips the login state for id and returns the new state. An
// unseen id is inserted as logged in (first tap is always an
// entrance). The insert-or-flip runs as one statement, so two taps on
// the same id can never race into the same state.
func (l *Ledger) Toggle(ctx context.Context, id string) (bool, error) {
	conn, err := l.pool.Take(ctx)
	if err != nil {
		return false, fmt.Errorf("roster: toggle %s: %w", id, err)
	}
	defer l.pool.Put(conn)

	var loggedIn bool
	err = sqlitex.Execute(conn,
		`INSERT INTO members (id, logged_in) VALUES (?, 1)
		 ON CONFLICT(id) DO UPDATE SET logged_in = 1 - logged_in
		 RETURNING logged_in`,
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				loggedIn = stmt.ColumnInt(0) != 0
				return nil
			},
		})
	if err != nil {
		return false, fmt.Errorf("roster: toggle %s: %w", id, err)
	}

	l.logger.Info("login state toggled", "member_id", id, "logged_in", loggedIn)
	return loggedIn, nil
}

// LogoutAll marks every member as logged out. Called when the room is
// confirmed closed, clearing stale rows left by missed exit scans.
func (l *Ledger) LogoutAll(ctx context.Context) error {
	conn, err := l.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("roster: logout all: %w", err)
	}
	defer l.pool.Put(conn)

	err = sqlitex.Execute(conn, "UPDATE members SET logged_in = 0 WHERE logged_in = 1", nil)
	if err != nil {
		return fmt.Errorf("roster: logout all: %w", err)
	}

	changed := conn.Changes()
	if changed > 0 {
		l.logger.Info("logged out all members", "count", changed)
	}
	return nil
}

// LoggedInIDs returns a snapshot of member IDs currently logged in,
// in insertion order.
func (l *Ledger) LoggedInIDs(ctx context.Context) ([]string, error) {
	conn, err := l.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("roster: listing logged in: %w", err)
	}
	defer l.pool.Put(conn)

	var ids []string
	err = sqlitex.Execute(conn,
		"SELECT id FROM members WHERE logged_in = 1 ORDER BY rowid",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				ids = append(ids, stmt.ColumnText(0))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("roster: listing logged in: %w", err)
	}
	return ids, nil
}
