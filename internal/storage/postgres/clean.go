package postgres

import (
	"regexp"
	"strings"

	"github.com/JakeFAU/isro-crawler/internal/record"
)

var (
	artifactPattern = regexp.MustCompile(`(?i)UpArrowDownArrow`)
	artifactSuffix  = regexp.MustCompile(`(?i)_uparrowdownarrow$`)
)

var keyRenames = map[string]string{
	"serial":            "sl_no",
	"s_no":              "sl_no",
	"sl_no_":            "sl_no",
	"date":              "launch_date",
	"name_of_satellite": "name",
	"spacecraft":        "name",
	"satellite":         "name",
}

// IsHeaderArtifact reports whether v is sort-arrow residue copied from a table header.
func IsHeaderArtifact(v string) bool {
	return strings.Contains(v, "⇅") || artifactPattern.MatchString(v)
}

func hasArtifact(r record.Record, key string) bool {
	if v, ok := r.Get(key); ok {
		return IsHeaderArtifact(v)
	}
	for _, item := range r.List(key) {
		if IsHeaderArtifact(item) {
			return true
		}
	}
	return false
}

// CleanRecord drops header artifacts, renames legacy keys, and splits a combined
// "vehicle/mission" column into launch_vehicle and mission.
func CleanRecord(in record.Record) record.Record {
	var out record.Record
	for _, k := range in.Keys() {
		if hasArtifact(in, k) {
			continue
		}
		nk := k
		if renamed, ok := keyRenames[nk]; ok {
			nk = renamed
		}
		nk = artifactSuffix.ReplaceAllString(nk, "")
		if list := in.List(k); list != nil {
			out.SetList(nk, list)
			continue
		}
		out.Set(nk, in.String(k))
	}

	lvm := out.String("launch_vehicle_mission")
	if lvm != "" && (out.String("launch_vehicle") == "" || out.String("mission") == "") {
		if vehicle, mission, ok := strings.Cut(lvm, "/"); ok {
			if out.String("launch_vehicle") == "" {
				out.Set("launch_vehicle", strings.TrimSpace(vehicle))
			}
			if out.String("mission") == "" {
				out.Set("mission", strings.TrimSpace(mission))
			}
		}
	}
	return out
}

// CleanRecords cleans every record and drops the ones left empty.
func CleanRecords(in []record.Record) []record.Record {
	out := make([]record.Record, 0, len(in))
	for _, r := range in {
		cleaned := CleanRecord(r)
		if cleaned.Len() == 0 {
			continue
		}
		out = append(out, cleaned)
	}
	return out
}
