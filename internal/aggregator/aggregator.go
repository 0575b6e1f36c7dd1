package aggregator

import (
	"strings"

	"github.com/micro-ha/wol-server/internal/model"
	"github.com/micro-ha/wol-server/internal/oui"
)

type OUILookup interface {
	Lookup(mac string) string
}

type SubnetMatcher interface {
	Match(ip string) string
	Broadcast(ip string) string
}

type Aggregator struct {
	subnetMatcher SubnetMatcher
	ouiLookup     OUILookup
}

func New(matcher SubnetMatcher, ouiLookup OUILookup) *Aggregator {
	return &Aggregator{subnetMatcher: matcher, ouiLookup: ouiLookup}
}

// Annotate collapses repeated MACs (first sighting wins) and decorates each candidate.
// known maps case-folded MAC to registered device id; it is only read.
func (a *Aggregator) Annotate(candidates []model.Candidate, known map[string]string) []model.Candidate {
	out := make([]model.Candidate, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		key := model.MACKey(c.MACAddress)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if strings.TrimSpace(c.Vendor) == "" && a.ouiLookup != nil {
			if vendor := a.ouiLookup.Lookup(c.MACAddress); vendor != oui.Unknown {
				c.Vendor = vendor
			}
		}
		if id, ok := known[key]; ok {
			c.KnownDeviceID = id
		}
		if a.subnetMatcher != nil {
			c.Subnet = a.subnetMatcher.Match(c.IPAddress)
			c.BroadcastAddress = a.subnetMatcher.Broadcast(c.IPAddress)
		}
		out = append(out, c)
	}
	return out
}

// KnownIndex builds the MAC to id map consumed by Annotate.
func KnownIndex(devices []model.Device) map[string]string {
	out := make(map[string]string, len(devices))
	for _, d := range devices {
		out[model.MACKey(d.MACAddress)] = d.ID
	}
	return out
}
