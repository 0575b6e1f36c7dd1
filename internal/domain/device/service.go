package device

import "context"

// Service exposes registry use-cases used by HTTP, wake and discovery layers.
type Service interface {
	List(ctx context.Context) ([]Device, error)
	Get(ctx context.Context, id string) (Device, error)
	Upsert(ctx context.Context, in Input) (Device, error)
	Update(ctx context.Context, id string, patch Patch) (Device, error)
	Delete(ctx context.Context, id string) error
	FindByMAC(ctx context.Context, mac string) (Device, bool, error)
}
