package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Device is a registered LAN host that can be woken.
type Device struct {
	ID               string    `json:"id"`
	MACAddress       string    `json:"macAddress"`
	Name             string    `json:"name"`
	IPAddress        *string   `json:"ipAddress"`
	Tags             []string  `json:"tags"`
	IsOnline         bool      `json:"isOnline"`
	BroadcastAddress *string   `json:"broadcastAddress,omitempty"`
	Port             *int      `json:"port,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Clone returns a deep copy so callers never share slices or pointers with the registry.
func (d Device) Clone() Device {
	out := d
	out.IPAddress = cloneString(d.IPAddress)
	out.BroadcastAddress = cloneString(d.BroadcastAddress)
	out.Port = cloneInt(d.Port)
	out.Tags = append([]string{}, d.Tags...)
	return out
}

// Candidate is a host seen by a network scan. It is never persisted.
type Candidate struct {
	IPAddress     string `json:"ipAddress"`
	MACAddress    string `json:"macAddress"`
	Name          string `json:"name"`
	IsOnline      bool   `json:"isOnline"`
	Vendor        string `json:"vendor,omitempty"`
	KnownDeviceID string `json:"knownDeviceId,omitempty"`
	// Subnet and BroadcastAddress come from the local interface whose network contains IPAddress.
	Subnet           string `json:"subnet,omitempty"`
	BroadcastAddress string `json:"broadcastAddress,omitempty"`
}

// NewCandidate builds a discovery row with the synthesized display name.
func NewCandidate(ip, mac string) Candidate {
	return Candidate{
		IPAddress:  ip,
		MACAddress: mac,
		Name:       "Device (" + ip + ")",
		IsOnline:   true,
	}
}

// DeviceInput is the "add device" payload; MAC is the merge key.
type DeviceInput struct {
	MACAddress       string   `json:"macAddress"`
	Name             string   `json:"name"`
	IPAddress        *string  `json:"ipAddress"`
	Tags             []string `json:"tags"`
	BroadcastAddress *string  `json:"broadcastAddress"`
	Port             *int     `json:"port"`
}

// DevicePatch carries only the fields present in a PATCH body.
type DevicePatch struct {
	ID               *string          `json:"id"`
	MACAddress       *string          `json:"macAddress"`
	Name             *string          `json:"name"`
	IPAddress        Nullable[string] `json:"ipAddress"`
	Tags             *[]string        `json:"tags"`
	IsOnline         *bool            `json:"isOnline"`
	BroadcastAddress Nullable[string] `json:"broadcastAddress"`
	Port             Nullable[int]    `json:"port"`
}

// Nullable distinguishes an absent JSON field from an explicit null.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if strings.TrimSpace(string(data)) == "null" {
		n.Value = nil
		return nil
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	n.Value = &value
	return nil
}

// DefaultDeviceName is used when a device is added without a name.
func DefaultDeviceName(mac string) string {
	return "Device (" + mac + ")"
}

// NormalizeTags trims, drops empty values and collapses duplicates keeping first occurrence.
func NormalizeTags(tags ...[]string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, group := range tags {
		for _, tag := range group {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	i := *v
	return &i
}
