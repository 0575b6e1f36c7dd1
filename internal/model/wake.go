package model

import (
	"net"
	"strings"
)

const (
	DefaultBroadcastAddress = "255.255.255.255"
	DefaultWakePort         = 9
)

// WakeDefaults are the global broadcast target used when neither request nor device override it.
type WakeDefaults struct {
	BroadcastAddress string
	Port             int
}

func DefaultWakeDefaults() WakeDefaults {
	return WakeDefaults{BroadcastAddress: DefaultBroadcastAddress, Port: DefaultWakePort}
}

func (w WakeDefaults) Normalize() WakeDefaults {
	defaults := DefaultWakeDefaults()
	if strings.TrimSpace(w.BroadcastAddress) == "" {
		w.BroadcastAddress = defaults.BroadcastAddress
	}
	if w.Port <= 0 || w.Port > 65535 {
		w.Port = defaults.Port
	}
	return w
}

// WakeRequest is the payload of both wake endpoints. Empty fields fall back to defaults.
type WakeRequest struct {
	MACAddress       string  `json:"macAddress"`
	BroadcastAddress *string `json:"broadcastAddress"`
	Port             *int    `json:"port"`
}

// WakeResult echoes what was sent.
type WakeResult struct {
	Message          string `json:"message"`
	MACAddress       string `json:"macAddress"`
	BroadcastAddress string `json:"broadcastAddress"`
	Port             int    `json:"port"`
}

// WakeTarget is a fully resolved destination for one magic packet.
type WakeTarget struct {
	MACAddress       string
	BroadcastAddress string
	Port             int
}

// Validate checks the MAC, the IPv4 broadcast literal and the port range.
func (t WakeTarget) Validate() error {
	if err := ValidateMAC(t.MACAddress); err != nil {
		return err
	}
	ip := net.ParseIP(strings.TrimSpace(t.BroadcastAddress))
	if ip == nil || ip.To4() == nil {
		return &ValidationError{Field: "broadcastAddress", Reason: "broadcastAddress must be an IPv4 address"}
	}
	if t.Port < 1 || t.Port > 65535 {
		return &ValidationError{Field: "port", Reason: "port must be between 1 and 65535"}
	}
	return nil
}

// Resolve layers an optional override pair over fallback values.
func Resolve(broadcast *string, port *int, fallback WakeDefaults) (string, int) {
	addr := fallback.BroadcastAddress
	if broadcast != nil && strings.TrimSpace(*broadcast) != "" {
		addr = strings.TrimSpace(*broadcast)
	}
	p := fallback.Port
	if port != nil {
		p = *port
	}
	return addr, p
}
