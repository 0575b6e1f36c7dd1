// Package arp turns arp-scan and arp -a output into discovery candidates.
package arp

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/micro-ha/wol-server/internal/model"
)

// Each token is capture group 1, fenced by characters that cannot extend it.
var (
	ipv4Token    = regexp.MustCompile(`(?:^|[^\d.])((?:\d{1,3}\.){3}\d{1,3})(?:[^\d.]|$)`)
	scanMACToken = regexp.MustCompile(`(?:^|[^0-9A-Fa-f:])((?:[0-9A-Fa-f]{2}:){5}[0-9A-Fa-f]{2})(?:[^0-9A-Fa-f:]|$)`)
	// macOS prints octets without leading zeros, Linux and Windows print two digits.
	tableMACToken = regexp.MustCompile(`(?:^|[^0-9A-Fa-f:-])((?:[0-9A-Fa-f]{1,2}[:-]){5}[0-9A-Fa-f]{1,2})(?:[^0-9A-Fa-f:-]|$)`)
)

// ParseARPScan parses arp-scan output. Lines without an IPv4 token followed by a MAC are ignored.
func ParseARPScan(text string) []model.Candidate {
	out := make([]model.Candidate, 0)
	for _, line := range strings.Split(text, "\n") {
		ip, rest, ok := firstIPv4(line)
		if !ok {
			continue
		}
		start, end, found := findToken(scanMACToken, rest, 0)
		if !found {
			continue
		}
		candidate := model.NewCandidate(ip, strings.ToLower(rest[start:end]))
		candidate.Vendor = vendorColumn(rest[end:])
		out = append(out, candidate)
	}
	return out
}

// ParseARPTable parses `arp -a` style output, normalizing MACs to lower-case colon form.
func ParseARPTable(text string) []model.Candidate {
	out := make([]model.Candidate, 0)
	for _, line := range strings.Split(text, "\n") {
		ip, rest, ok := firstIPv4(line)
		if !ok {
			continue
		}
		start, end, found := findToken(tableMACToken, rest, 0)
		if !found {
			continue
		}
		mac, ok := normalizeMAC(rest[start:end])
		if !ok {
			continue
		}
		out = append(out, model.NewCandidate(ip, mac))
	}
	return out
}

func firstIPv4(line string) (string, string, bool) {
	from := 0
	for {
		start, end, found := findToken(ipv4Token, line, from)
		if !found {
			return "", "", false
		}
		token := line[start:end]
		if ip := net.ParseIP(token); ip != nil && ip.To4() != nil {
			return token, line[end:], true
		}
		from = end
	}
}

// findToken returns the bounds of group 1 of the first match in s[from:].
func findToken(re *regexp.Regexp, s string, from int) (int, int, bool) {
	loc := re.FindStringSubmatchIndex(s[from:])
	if loc == nil {
		return 0, 0, false
	}
	return from + loc[2], from + loc[3], true
}

func normalizeMAC(token string) (string, bool) {
	parts := strings.FieldsFunc(token, func(r rune) bool { return r == ':' || r == '-' })
	if len(parts) != 6 {
		return "", false
	}
	octets := make([]string, 0, 6)
	for _, part := range parts {
		v, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return "", false
		}
		octets = append(octets, fmt.Sprintf("%02x", v))
	}
	return strings.Join(octets, ":"), true
}

func vendorColumn(rest string) string {
	vendor := strings.TrimSpace(rest)
	switch vendor {
	case "(Unknown)", "(Unknown: locally administered)":
		return ""
	}
	return vendor
}
