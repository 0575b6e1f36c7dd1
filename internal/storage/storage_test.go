package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

func TestDocumentRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, err := Open(ctx, filepath.Join(t.TempDir(), "nested", "wol.db"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer repo.Close()

	if _, ok, err := repo.GetDocument(ctx, "devices"); err != nil || ok {
		t.Fatalf("expected missing document, got ok=%v err=%v", ok, err)
	}

	if err := repo.PutDocument(ctx, "devices", []byte(`[1]`)); err != nil {
		t.Fatalf("PutDocument failed: %v", err)
	}
	if err := repo.PutDocument(ctx, "devices", []byte(`[1,2]`)); err != nil {
		t.Fatalf("PutDocument overwrite failed: %v", err)
	}

	body, ok, err := repo.GetDocument(ctx, "devices")
	if err != nil || !ok {
		t.Fatalf("GetDocument failed: ok=%v err=%v", ok, err)
	}
	if string(body) != `[1,2]` {
		t.Fatalf("unexpected body %s", body)
	}

	var updatedAt string
	if err := repo.sql.QueryRowContext(ctx, `SELECT updated_at FROM documents WHERE key = ?`, "devices").Scan(&updatedAt); err != nil {
		t.Fatalf("read updated_at: %v", err)
	}
	if _, err := time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		t.Fatalf("updated_at %q is not RFC3339: %v", updatedAt, err)
	}
}

func TestMigrationsRunOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "wol.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	first, err := Open(ctx, path, logger)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := first.PutDocument(ctx, "devices", []byte(`[]`)); err != nil {
		t.Fatalf("PutDocument failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second, err := Open(ctx, path, logger)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()
	version, err := second.SchemaVersion(ctx)
	if err != nil || version != len(migrations) {
		t.Fatalf("expected schema version %d, got %d (%v)", len(migrations), version, err)
	}
	if _, ok, err := second.GetDocument(ctx, "devices"); err != nil || !ok {
		t.Fatalf("document lost across reopen: ok=%v err=%v", ok, err)
	}
}
