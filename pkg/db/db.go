// Package db provides SQLite utilities shared by the skill store:
// connection setup with WAL pragmas and a timestamp-versioned
// migration runner.
package db

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// DefaultDBPath returns the default path for the skill database.
func DefaultDBPath() (string, error) {
	if basePath := os.Getenv("AGENTSKILLS_BASE_PATH"); basePath != "" {
		return filepath.Join(basePath, "skills.db"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, ".agentskills", "skills.db"), nil
}

// Open opens or creates the SQLite database at dbPath, creating parent
// directories as needed, and applies the store's pragmas.
func Open(ctx context.Context, dbPath string) (*sqlx.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	conn, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if err := Configure(ctx, conn); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to configure database")
	}
	return conn, nil
}

// Configure applies the WAL pragmas. The pool is pinned to a single
// connection first so every session-scoped pragma lands on the one
// connection all queries will use.
func Configure(ctx context.Context, conn *sqlx.DB) error {
	conn.SetMaxIdleConns(1)
	conn.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=1000",
		"PRAGMA temp_store=memory",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to execute %q", stmt)
		}
	}

	mode, err := journalMode(ctx, conn)
	if err != nil {
		return err
	}
	if mode != "wal" {
		return errors.Errorf("WAL mode not enabled, journal_mode is %s", mode)
	}
	return nil
}

func journalMode(ctx context.Context, conn *sqlx.DB) (string, error) {
	var mode string
	if err := conn.QueryRowxContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		return "", errors.Wrap(err, "failed to query journal mode")
	}
	return strings.ToLower(mode), nil
}

// RunMigrations opens the database at dbPath and applies the provided
// migrations. This should be called once at CLI startup.
func RunMigrations(ctx context.Context, dbPath string, migrations []Migration) error {
	conn, err := Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	return NewMigrationRunner(conn).Run(ctx, migrations)
}

// GetMigrationStatus returns the versions applied to the database at dbPath
// in ascending order.
func GetMigrationStatus(ctx context.Context, dbPath string) ([]int64, error) {
	conn, err := Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return NewMigrationRunner(conn).GetAppliedVersions(ctx)
}

// RollbackMigration rolls back the most recently applied migration on the
// database at dbPath.
func RollbackMigration(ctx context.Context, dbPath string, migrations []Migration) error {
	conn, err := Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	return NewMigrationRunner(conn).Rollback(ctx, migrations)
}

// VerifyConfiguration reports whether the connection carries the pragmas
// Configure is supposed to set.
func VerifyConfiguration(conn *sqlx.DB) error {
	mode, err := journalMode(context.Background(), conn)
	if err != nil {
		return err
	}
	if mode != "wal" {
		return errors.Errorf("expected WAL mode, got %s", mode)
	}

	checks := []struct {
		pragma string
		want   string
		label  string
	}{
		{"PRAGMA synchronous", "1", "synchronous NORMAL"},
		{"PRAGMA foreign_keys", "1", "foreign keys ON"},
	}
	for _, c := range checks {
		var got string
		if err := conn.Get(&got, c.pragma); err != nil {
			return errors.Wrapf(err, "failed to query %s", c.pragma)
		}
		if got != c.want {
			return errors.Errorf("expected %s, got %s", c.label, got)
		}
	}
	return nil
}
