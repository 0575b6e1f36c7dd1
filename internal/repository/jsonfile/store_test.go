package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	devicedomain "github.com/micro-ha/wol-server/internal/domain/device"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "devices.json"))
	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %#v", got)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "devices.json")
	store := New(path)
	ctx := context.Background()

	created := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	in := []devicedomain.Device{
		{ID: "1", MACAddress: "AA:BB:CC:DD:EE:FF", Name: "Device (AA:BB:CC:DD:EE:FF)", Tags: []string{}, CreatedAt: created},
	}
	if err := store.Save(ctx, in); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(string(raw)), "[") || !strings.Contains(string(raw), `"macAddress": "AA:BB:CC:DD:EE:FF"`) {
		t.Fatalf("unexpected file content: %s", raw)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "1" || !got[0].CreatedAt.Equal(created) {
		t.Fatalf("unexpected round trip %+v", got)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, got %d entries", len(entries))
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := New(path).Load(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}
