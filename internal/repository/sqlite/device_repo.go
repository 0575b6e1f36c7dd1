package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	devicedomain "github.com/micro-ha/wol-server/internal/domain/device"
	"github.com/micro-ha/wol-server/internal/storage"
)

const devicesKey = "devices"

// DeviceStore keeps the registry as one JSON document row.
type DeviceStore struct {
	db *storage.DB
}

// NewDeviceStore creates sqlite-backed device store.
func NewDeviceStore(db *storage.DB) *DeviceStore {
	return &DeviceStore{db: db}
}

// Load returns an empty collection before the first save.
func (r *DeviceStore) Load(ctx context.Context) ([]devicedomain.Device, error) {
	body, ok, err := r.db.GetDocument(ctx, devicesKey)
	if err != nil {
		return nil, fmt.Errorf("load devices: %w", err)
	}
	if !ok {
		return []devicedomain.Device{}, nil
	}
	var devices []devicedomain.Device
	if err := json.Unmarshal(body, &devices); err != nil {
		return nil, fmt.Errorf("decode devices: %w", err)
	}
	if devices == nil {
		devices = []devicedomain.Device{}
	}
	return devices, nil
}

// Save replaces the whole collection.
func (r *DeviceStore) Save(ctx context.Context, devices []devicedomain.Device) error {
	if devices == nil {
		devices = []devicedomain.Device{}
	}
	body, err := json.Marshal(devices)
	if err != nil {
		return fmt.Errorf("encode devices: %w", err)
	}
	if err := r.db.PutDocument(ctx, devicesKey, body); err != nil {
		return fmt.Errorf("save devices: %w", err)
	}
	return nil
}
