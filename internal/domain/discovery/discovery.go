package discovery

import (
	"context"
	"fmt"

	"github.com/micro-ha/wol-server/internal/model"
)

// UnsupportedPlatformError is returned on hosts without a known neighbour-table tool.
type UnsupportedPlatformError struct {
	OS string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("Network scanning not supported on %s", e.OS)
}

// ScanFailedError means every scan strategy failed.
type ScanFailedError struct {
	Err error
}

func (e *ScanFailedError) Error() string {
	return fmt.Sprintf("network scan failed: %v", e.Err)
}

func (e *ScanFailedError) Unwrap() error { return e.Err }

// Candidate is a host seen on the LAN.
type Candidate = model.Candidate

// Service returns the current set of LAN candidates.
type Service interface {
	Scan(ctx context.Context) ([]Candidate, error)
}
