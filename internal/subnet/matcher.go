// Package subnet matches candidate IPs against the host's IPv4 networks.
package subnet

import (
	"net"
	"strings"
)

type network struct {
	cidr   string
	prefix int
	net    *net.IPNet
}

type Matcher struct {
	networks []network
}

func New() *Matcher {
	return &Matcher{}
}

// FromInterfaces builds a matcher from the IPv4 addresses of local interfaces.
func FromInterfaces() (*Matcher, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}
	cidrs := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.To4() == nil || ipNet.IP.IsLoopback() {
			continue
		}
		cidrs = append(cidrs, ipNet.String())
	}
	return New().WithCIDRs(cidrs), nil
}

func (m *Matcher) WithCIDRs(cidrs []string) *Matcher {
	nets := make([]network, 0, len(cidrs))
	for _, raw := range cidrs {
		cidr := strings.TrimSpace(raw)
		if cidr == "" {
			continue
		}
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil || ipNet.IP.To4() == nil {
			continue
		}
		prefix, _ := ipNet.Mask.Size()
		nets = append(nets, network{cidr: ipNet.String(), prefix: prefix, net: ipNet})
	}
	return &Matcher{networks: nets}
}

// Match returns the network CIDR (host bits cleared) of the longest matching network.
func (m *Matcher) Match(ipStr string) string {
	best := m.best(ipStr)
	if best == nil {
		return ""
	}
	return best.cidr
}

// Broadcast returns the directed broadcast address of the longest matching network.
func (m *Matcher) Broadcast(ipStr string) string {
	best := m.best(ipStr)
	if best == nil {
		return ""
	}
	base := best.net.IP.To4()
	mask := net.IP(best.net.Mask).To4()
	if base == nil || mask == nil {
		return ""
	}
	out := make(net.IP, 4)
	for i := range out {
		out[i] = base[i] | ^mask[i]
	}
	return out.String()
}

func (m *Matcher) best(ipStr string) *network {
	if m == nil {
		return nil
	}
	ip := net.ParseIP(strings.TrimSpace(ipStr))
	if ip == nil {
		return nil
	}
	bestPrefix := -1
	var best *network
	for i := range m.networks {
		n := &m.networks[i]
		if n.net.Contains(ip) && n.prefix > bestPrefix {
			bestPrefix = n.prefix
			best = n
		}
	}
	return best
}
