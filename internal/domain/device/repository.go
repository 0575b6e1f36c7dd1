package device

import "context"

// Store persists the whole device collection as one document.
type Store interface {
	Load(ctx context.Context) ([]Device, error)
	Save(ctx context.Context, devices []Device) error
}
