package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/micro-ha/wol-server/internal/pkg/utils"
)

// GetDocument returns the stored body; ok=false when key has never been written.
func (d *DB) GetDocument(ctx context.Context, key string) ([]byte, bool, error) {
	var body string
	err := d.sql.QueryRowContext(ctx, `SELECT body FROM documents WHERE key = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(body), true, nil
}

// PutDocument replaces the body stored under key in a single statement.
func (d *DB) PutDocument(ctx context.Context, key string, body []byte) error {
	_, err := d.sql.ExecContext(ctx, `
		INSERT INTO documents (key, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			body=excluded.body,
			updated_at=excluded.updated_at`,
		key, string(body), utils.NowUTC().Format(time.RFC3339Nano))
	return err
}
