package parser

import (
	"regexp"
	"strings"
)

// DefaultColumn is the key used when a header normalizes to nothing.
const DefaultColumn = "col"

// keyRules are applied in order to the lowercased header text.
var keyRules = [][2]string{
	{"s.no", "serial"},
	{"s. no", "serial"},
	{"sl.no", "serial"},
	{"sl. no", "serial"},
	{"launch vehicle/mission", "launch_vehicle_mission"},
	{"launch vehicle", "launch_vehicle"},
	{"date of launch", "date"},
	{"date of lauch", "date"},
	{"date of mission", "date"},
	{"orbit type", "orbit"},
	{"name of satellite", "name"},
	{"satellite", "name"},
	{"spacecraft", "name"},
}

var nonKeyRun = regexp.MustCompile(`[^a-z0-9_]+`)

// NormalizeKey maps raw header text to a canonical snake_case key, e.g.
// "Date of Launch" -> "date" and "Launch Vehicle/Mission" -> "launch_vehicle_mission".
func NormalizeKey(raw string) string {
	s := strings.ToLower(NormalizeSpace(raw))
	for _, rule := range keyRules {
		s = strings.ReplaceAll(s, rule[0], rule[1])
	}
	s = strings.Trim(nonKeyRun.ReplaceAllString(s, "_"), "_")
	if s == "" {
		return DefaultColumn
	}
	return s
}

// NormalizeKeys normalizes every entry of raw into a set.
func NormalizeKeys(raw []string) map[string]struct{} {
	out := make(map[string]struct{}, len(raw))
	for _, k := range raw {
		out[NormalizeKey(k)] = struct{}{}
	}
	return out
}
