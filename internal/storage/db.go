package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB is the sqlite handle shared by the document-backed repositories.
type DB struct {
	sql    *sql.DB
	logger *slog.Logger
}

// migrations are applied in order; the index+1 is the schema version.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		key TEXT PRIMARY KEY,
		body TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`,
}

// Open creates the parent directory, opens dbPath and brings the schema up to date.
func Open(ctx context.Context, dbPath string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer.
	conn.SetMaxOpenConns(1)

	db := &DB{sql: conn, logger: logger}
	if err := db.migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// SchemaVersion reports how many migrations have been applied.
func (d *DB) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := d.sql.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&version); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

func (d *DB) migrate(ctx context.Context) error {
	if _, err := d.sql.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		return fmt.Errorf("enable wal: %w", err)
	}
	current, err := d.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	for i := current; i < len(migrations); i++ {
		if _, err := d.sql.ExecContext(ctx, migrations[i]); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := d.sql.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d;`, i+1)); err != nil {
			return fmt.Errorf("record schema version %d: %w", i+1, err)
		}
		d.logger.Info("sqlite schema migrated", "version", i+1)
	}
	return nil
}
