// Package oui maps the first three MAC octets to a manufacturer name.
package oui

import (
	_ "embed"
	"encoding/json"
	"strconv"
	"strings"
)

//go:embed data/oui.json
var embeddedDB []byte

const Unknown = "Unknown"

type DB struct {
	vendors map[string]string
}

func LoadEmbedded() (*DB, error) {
	return Load(embeddedDB)
}

func Load(data []byte) (*DB, error) {
	m := map[string]string{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	normalized := make(map[string]string, len(m))
	for k, v := range m {
		normalized[normalizePrefix(k)] = strings.TrimSpace(v)
	}
	return &DB{vendors: normalized}, nil
}

// Lookup returns Unknown for unlisted and locally administered addresses.
func (db *DB) Lookup(mac string) string {
	if db == nil {
		return Unknown
	}
	prefix := normalizePrefix(mac)
	if len(prefix) < 6 || locallyAdministered(prefix) {
		return Unknown
	}
	if vendor, ok := db.vendors[prefix]; ok && vendor != "" {
		return vendor
	}
	return Unknown
}

func (db *DB) Len() int {
	if db == nil {
		return 0
	}
	return len(db.vendors)
}

// locallyAdministered reports whether the U/L bit of the first octet is set.
func locallyAdministered(prefix string) bool {
	first, err := strconv.ParseUint(prefix[:2], 16, 8)
	return err == nil && first&0x02 != 0
}

func normalizePrefix(v string) string {
	replacer := strings.NewReplacer(":", "", "-", "", ".", "")
	v = strings.ToUpper(strings.TrimSpace(replacer.Replace(v)))
	if len(v) >= 6 {
		return v[:6]
	}
	return v
}
