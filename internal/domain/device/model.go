package device

import "github.com/micro-ha/wol-server/internal/model"

// Device is the persisted registry record.
type Device = model.Device

// Input is the add/upsert payload.
type Input = model.DeviceInput

// Patch is the partial update payload.
type Patch = model.DevicePatch

// EventType names registry notifications.
type EventType string

const (
	EventDeviceCreated EventType = "device.created"
	EventDeviceUpdated EventType = "device.updated"
	EventDeviceDeleted EventType = "device.deleted"
)

// Notifier receives registry changes after they are durable.
type Notifier interface {
	DeviceChanged(kind EventType, d Device)
}
