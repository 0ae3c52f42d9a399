package soma

import (
	"strings"
)

// AllLocations is the selector sentinel that bypasses the location check.
const AllLocations = "all"

// LocationSelector selects records by effective soma location. It
// matches a single region, a set of regions, or everything when built
// from the "all" sentinel.
type LocationSelector struct {
	locations []string
	all       bool
}

// NewLocationSelector builds a selector from one or more location
// names. The "all" sentinel (case-insensitive) anywhere in the list
// selects every location.
func NewLocationSelector(locations ...string) LocationSelector {
	sel := LocationSelector{}
	for _, loc := range locations {
		loc = strings.TrimSpace(loc)
		if loc == "" {
			continue
		}
		if strings.EqualFold(loc, AllLocations) {
			sel.all = true
			continue
		}
		sel.locations = append(sel.locations, loc)
	}
	return sel
}

// IsAll reports whether the selector bypasses the location check.
func (s LocationSelector) IsAll() bool {
	return s.all
}

// Matches reports whether the given effective location is selected.
// Matching is a case-insensitive exact comparison.
func (s LocationSelector) Matches(location string) bool {
	if s.all {
		return true
	}
	for _, want := range s.locations {
		if strings.EqualFold(location, want) {
			return true
		}
	}
	return false
}

// Display returns the human-readable form used in titles and summaries.
func (s LocationSelector) Display() string {
	if s.all {
		return "ALL_LOCATIONS"
	}
	return strings.ToUpper(strings.Join(s.locations, "-"))
}

// FileTag returns the form embedded in output filenames.
func (s LocationSelector) FileTag() string {
	if s.all {
		return "ALL"
	}
	return strings.ToUpper(strings.Join(s.locations, "-"))
}

// Filter applies the location selector and the optional HIVE-only
// filter. Order is preserved; an empty result is a valid outcome the
// caller reports, not an error.
func Filter(records []Record, selector LocationSelector, hiveOnly bool) []Record {
	filtered := make([]Record, 0, len(records))
	for _, record := range records {
		if !selector.Matches(record.EffectiveLocation()) {
			continue
		}
		if hiveOnly && !record.HIVEMarked {
			continue
		}
		filtered = append(filtered, record)
	}
	return filtered
}
