package boundary

import (
	"strings"
)

// missingSentinel is the null marker used by Natural Earth property tables.
const missingSentinel = "-99"

// Identity is the canonical country identity of a boundary feature.
// Empty strings mean the value is unknown.
type Identity struct {
	ISO3 string `json:"iso3"`
	ISO2 string `json:"iso2,omitempty"`
	Name string `json:"name"`
}

// Candidate property keys, tried in order.
var (
	iso3Keys = []string{
		"ISO_A3", "iso_a3", "ISO3", "iso3", "ISO_A3_EH", "iso_a3_eh",
		"ADM0_A3", "adm0_a3", "SOV_A3", "sov_a3", "GU_A3", "gu_a3", "id",
	}
	iso2Keys = []string{
		"ISO_A2", "iso_a2", "ISO2", "iso2", "ISO_A2_EH", "iso_a2_eh", "WB_A2", "wb_a2",
	}
	nameKeys = []string{
		"NAME", "name", "ADMIN", "admin", "NAME_LONG", "name_long",
		"NAME_EN", "name_en", "SOVEREIGNT", "sovereignt",
	}
)

// Extract normalizes a feature property bag into an Identity. It never panics;
// unusable values are skipped and the next candidate key is tried.
func Extract(props map[string]any) Identity {
	return Identity{
		ISO3: lookupCode(props, iso3Keys, 3),
		ISO2: lookupCode(props, iso2Keys, 2),
		Name: lookupString(props, nameKeys),
	}
}

// ExtractISO3 returns the uppercased ISO-3 code, or "" when none is usable.
func ExtractISO3(props map[string]any) string {
	return lookupCode(props, iso3Keys, 3)
}

// ExtractISO2 returns the uppercased ISO-2 code, or "" when none is usable.
func ExtractISO2(props map[string]any) string {
	return lookupCode(props, iso2Keys, 2)
}

func lookupCode(props map[string]any, keys []string, length int) string {
	for _, k := range keys {
		s, ok := stringProp(props, k)
		if !ok || s == missingSentinel {
			continue
		}
		if code, ok := NormalizeCode(s, length); ok {
			return code
		}
	}
	return ""
}

func lookupString(props map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := stringProp(props, k); ok && s != missingSentinel {
			return s
		}
	}
	return ""
}

func stringProp(props map[string]any, key string) (string, bool) {
	if props == nil {
		return "", false
	}
	v, ok := props[key].(string)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// NormalizeCode uppercases s and reports whether it is exactly length ASCII letters.
func NormalizeCode(s string, length int) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != length {
		return "", false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return "", false
		}
	}
	return s, true
}
