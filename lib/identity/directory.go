// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/pfpacket/boushitsu/lib/sqlitepool"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id     TEXT PRIMARY KEY,
	handle TEXT NOT NULL
);
`

// memberIDLength is the badge ID length of the reference deployment:
// eight characters read from the badge's identity block.
const memberIDLength = 8

// maskSuffix replaces the tail of an unmapped member ID in resolved
// output.
const maskSuffix = "****"

// ErrInvalidMemberID is returned by Register for IDs that do not
// match the badge format. Callers surface it as a validation failure,
// not a server error.
var ErrInvalidMemberID = errors.New("identity: invalid member ID")

// ValidMemberID reports whether id has the badge format: exactly
// eight ASCII letters or digits.
func ValidMemberID(id string) bool {
	if len(id) != memberIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		default:
			return false
		}
	}
	return true
}

// Redact returns the privacy-preserving form of an unmapped member
// ID: the first four characters followed by the mask suffix. IDs
// shorter than four characters are masked entirely.
func Redact(id string) string {
	if len(id) < 4 {
		return maskSuffix
	}
	return id[:4] + maskSuffix
}

// Directory is the member-ID to handle mapping store.
type Directory struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger
}

// Config holds the parameters for opening a Directory.
type Config struct {
	// Pool is the SQLite pool backing the directory. Required.
	Pool *sqlitepool.Pool

	// Logger receives operational messages. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// New creates a Directory and ensures its schema exists.
func New(ctx context.Context, cfg Config) (*Directory, error) {
	if cfg.Pool == nil {
		return nil, fmt.Errorf("identity: Pool is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := cfg.Pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}
	defer cfg.Pool.Put(conn)

	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return nil, fmt.Errorf("identity: creating schema: %w", err)
	}

	return &Directory{pool: cfg.Pool, logger: logger}, nil
}

// Resolve returns the display form of a member ID: "@handle" when a
// mapping exists, the redacted ID otherwise. Resolve never fails;
// storage errors are logged and fall back to the redacted form, which
// is always safe to show.
func (d *Directory) Resolve(ctx context.Context, id string) string {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		d.logger.Error("resolve fell back to redacted ID", "member_id", Redact(id), "error", err)
		return Redact(id)
	}
	defer d.pool.Put(conn)

	display := Redact(id)
	err = sqlitex.Execute(conn,
		"SELECT handle FROM accounts WHERE id = ?",
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				display = "@" + stmt.ColumnText(0)
				return nil
			},
		})
	if err != nil {
		d.logger.Error("resolve fell back to redacted ID", "member_id", Redact(id), "error", err)
		return Redact(id)
	}
	return display
}

// Register inserts or overwrites the mapping for id. The ID must have
// the badge format; otherwise Register returns an error wrapping
// [ErrInvalidMemberID]. Last write wins.
func (d *Directory) Register(ctx context.Context, id, handle string) error {
	if !ValidMemberID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidMemberID, id)
	}

	conn, err := d.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("identity: register %s: %w", Redact(id), err)
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO accounts (id, handle) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET handle = excluded.handle`,
		&sqlitex.ExecOptions{Args: []any{id, handle}})
	if err != nil {
		return fmt.Errorf("identity: register %s: %w", Redact(id), err)
	}

	d.logger.Info("account registered", "member_id", Redact(id), "handle", handle)
	return nil
}

// Unregister removes the mapping for id. Removing a mapping that does
// not exist is a no-op success.
func (d *Directory) Unregister(ctx context.Context, id string) error {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("identity: unregister %s: %w", Redact(id), err)
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"DELETE FROM accounts WHERE id = ?",
		&sqlitex.ExecOptions{Args: []any{id}})
	if err != nil {
		return fmt.Errorf("identity: unregister %s: %w", Redact(id), err)
	}

	if conn.Changes() > 0 {
		d.logger.Info("account unregistered", "member_id", Redact(id))
	}
	return nil
}

// All returns the full ID-to-handle mapping. Used only by the
// privileged account.getAll command.
func (d *Directory) All(ctx context.Context) (map[string]string, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("identity: listing accounts: %w", err)
	}
	defer d.pool.Put(conn)

	accounts := make(map[string]string)
	err = sqlitex.Execute(conn,
		"SELECT id, handle FROM accounts",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				accounts[stmt.ColumnText(0)] = stmt.ColumnText(1)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("identity: listing accounts: %w", err)
	}
	return accounts, nil
}

// IsMember reports whether handle is registered to any member ID.
// Backs the member-only command authorization policy.
func (d *Directory) IsMember(ctx context.Context, handle string) (bool, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return false, fmt.Errorf("identity: membership check: %w", err)
	}
	defer d.pool.Put(conn)

	found := false
	err = sqlitex.Execute(conn,
		"SELECT 1 FROM accounts WHERE handle = ? LIMIT 1",
		&sqlitex.ExecOptions{
			Args: []any{handle},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				return nil
			},
		})
	if err != nil {
		return false, fmt.Errorf("identity: membership check: %w", err)
	}
	return found, nil
}
