package device

import "errors"

var (
	// ErrDeviceNotFound indicates no registered device with the requested id.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrDuplicateMAC indicates a patch would give two devices the same MAC.
	ErrDuplicateMAC = errors.New("mac address already registered to another device")
)
