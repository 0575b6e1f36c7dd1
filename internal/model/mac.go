package model

import (
	"net"
	"regexp"
	"strings"
)

var macPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}([0-9A-Fa-f]{2})$`)

// ValidateMAC accepts six colon- or hyphen-separated two-digit hex octets.
// Surrounding whitespace is rejected.
func ValidateMAC(mac string) error {
	if mac == "" {
		return &ValidationError{Field: "macAddress", Reason: "MAC address is required"}
	}
	if !macPattern.MatchString(mac) {
		return &ValidationError{Field: "macAddress", Reason: "Invalid MAC address format"}
	}
	return nil
}

// ParseMAC validates mac and returns its six octets.
func ParseMAC(mac string) (net.HardwareAddr, error) {
	if err := ValidateMAC(mac); err != nil {
		return nil, err
	}
	hw, err := net.ParseMAC(mac)
	if err != nil || len(hw) != 6 {
		return nil, &ValidationError{Field: "macAddress", Reason: "Invalid MAC address format"}
	}
	return hw, nil
}

// ColonMAC rewrites hyphen separators to colons and keeps the caller's case.
func ColonMAC(mac string) string {
	return strings.ReplaceAll(mac, "-", ":")
}

// MACKey is the case-folded form used for uniqueness and lookups.
func MACKey(mac string) string {
	return strings.ToLower(ColonMAC(strings.TrimSpace(mac)))
}
