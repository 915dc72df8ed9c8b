// Package normalize contains the pure text and timestamp transforms applied to
// upstream records before they are published to the datacollector API.
//
// Address handling follows the conventions of the upstream alert feed: region
// strings repeat administrative tokens ("서울특별시 서울특별시 종로구") and use
// the marker token "전체" for "entire region", neither of which the destination
// accepts. All transforms here are idempotent.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"collector/internal/types"
)

// entireRegionMarker is the upstream token meaning "whole region"; it is
// stripped from location strings before publishing.
const entireRegionMarker = "전체"

// CollapseRepeatedTokens collapses any run of a repeated whitespace-delimited
// token into a single occurrence and normalizes separating whitespace to a
// single space: "Seoul Seoul Gu" becomes "Seoul Gu".
func CollapseRepeatedTokens(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}

	out := fields[:1]
	for _, f := range fields[1:] {
		if f != out[len(out)-1] {
			out = append(out, f)
		}
	}
	return strings.Join(out, " ")
}

// CleanRegion normalizes a single location string: the "entire region" marker
// is removed, repeated tokens are collapsed, and surrounding whitespace is
// trimmed. An input consisting only of the marker normalizes to "".
func CleanRegion(s string) string {
	s = strings.ReplaceAll(s, entireRegionMarker, "")
	return CollapseRepeatedTokens(s)
}

// SplitLocations expands a comma-separated multi-region string into cleaned
// individual locations. Entries that normalize to "" are dropped unless every
// entry does, in which case a single empty location is returned so the record
// itself is not lost.
func SplitLocations(s string) []string {
	parts := strings.Split(s, ",")
	locations := make([]string, 0, len(parts))
	for _, part := range parts {
		if cleaned := CleanRegion(part); cleaned != "" {
			locations = append(locations, cleaned)
		}
	}
	if len(locations) == 0 {
		return []string{""}
	}
	return locations
}

// relativeLayout is the "MM-DD HH:MM" form shown on the news page.
const relativeLayout = "2006-01-02 15:04"

// RelativeToISO converts the news page's year-less "MM-DD HH:MM" timestamp to
// the collector's ISO-8601 form by injecting the year of now: "03-15 14:30"
// with now in 2024 becomes "2024-03-15T14:30:00".
func RelativeToISO(raw string, now time.Time) (string, error) {
	t, err := ParseRelative(raw, now)
	if err != nil {
		return "", err
	}
	return types.FormatCollectorTime(t), nil
}

// ParseRelative parses the news page's "MM-DD HH:MM" timestamp into a
// time.Time in the year of now.
func ParseRelative(raw string, now time.Time) (time.Time, error) {
	t, err := time.Parse(relativeLayout, fmt.Sprintf("%d-%s", now.Year(), strings.TrimSpace(raw)))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing relative timestamp %q: %w", raw, err)
	}
	return t, nil
}

// AlertTimeToISO converts the disaster API's CRT_DT timestamp
// ("2006/01/02 15:04:05") to the collector's ISO-8601 form.
func AlertTimeToISO(raw string) (string, error) {
	t, err := time.Parse(types.SafetyDataTimeLayout, strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parsing alert timestamp %q: %w", raw, err)
	}
	return types.FormatCollectorTime(t), nil
}
