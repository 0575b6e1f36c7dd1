// Package jsonfile persists the device registry as a single JSON array on disk.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	devicedomain "github.com/micro-ha/wol-server/internal/domain/device"
)

type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Load treats a missing or empty file as an empty registry.
func (s *Store) Load(ctx context.Context) ([]devicedomain.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []devicedomain.Device{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return []devicedomain.Device{}, nil
	}
	var devices []devicedomain.Device
	if err := json.Unmarshal(data, &devices); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if devices == nil {
		devices = []devicedomain.Device{}
	}
	return devices, nil
}

// Save writes to a temp file in the same directory and renames it over the target.
func (s *Store) Save(ctx context.Context, devices []devicedomain.Device) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if devices == nil {
		devices = []devicedomain.Device{}
	}
	data, err := json.MarshalIndent(devices, "", "  ")
	if err != nil {
		return fmt.Errorf("encode devices: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".devices-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
