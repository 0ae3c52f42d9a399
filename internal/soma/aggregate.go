package soma

import (
	"sort"
)

// SampleAggregate is one row of the aggregate table: the status
// distribution and metadata for a single sample.
type SampleAggregate struct {
	SampleID     string
	StatusCounts map[string]int
	Genotype     string
	Registered   TriState
	RecordCount  int
}

// Aggregate groups records by sample ID, in order of first appearance,
// and computes per-sample status counts and metadata. Status strings
// are counted verbatim to preserve traceability to the source data.
// Identical input always yields identical output.
func Aggregate(records []Record) []SampleAggregate {
	byID := make(map[string]*SampleAggregate)
	order := make([]string, 0)

	for _, record := range records {
		agg, ok := byID[record.SampleID]
		if !ok {
			agg = &SampleAggregate{
				SampleID:     record.SampleID,
				StatusCounts: make(map[string]int),
				Registered:   TriUnknown,
			}
			byID[record.SampleID] = agg
			order = append(order, record.SampleID)
		}

		if record.Status != "" {
			agg.StatusCounts[record.Status]++
		}
		if agg.Genotype == "" && record.Genotype != "" {
			agg.Genotype = record.Genotype
		}
		agg.Registered = mergeRegistered(agg.Registered, record.Registered)
		agg.RecordCount++
	}

	aggregates := make([]SampleAggregate, 0, len(order))
	for _, sampleID := range order {
		aggregates = append(aggregates, *byID[sampleID])
	}
	return aggregates
}

// NoStatusCount returns how many of the sample's records carried a
// blank status. These records are in RecordCount but not in
// StatusCounts, so report and chart sinks account for them separately.
func (a SampleAggregate) NoStatusCount() int {
	counted := 0
	for _, n := range a.StatusCounts {
		counted += n
	}
	return a.RecordCount - counted
}

// mergeRegistered folds a record's registration state into the
// sample's: any registered record marks the sample registered; an
// explicit "no" beats unknown.
func mergeRegistered(current, next TriState) TriState {
	if current == TriTrue || next == TriTrue {
		return TriTrue
	}
	if current == TriFalse || next == TriFalse {
		return TriFalse
	}
	return TriUnknown
}

// StatusOrder returns the status column order for reports and charts
// built from the given aggregates: the canonical named statuses first
// (those observed), then any other observed status alphabetically.
// The ordering is deterministic for a given result set.
func StatusOrder(aggregates []SampleAggregate) []string {
	observed := make(map[string]bool)
	for _, agg := range aggregates {
		for status := range agg.StatusCounts {
			observed[status] = true
		}
	}

	order := make([]string, 0, len(observed))
	for _, status := range CanonicalStatuses {
		if observed[status] {
			order = append(order, status)
			delete(observed, status)
		}
	}

	extra := make([]string, 0, len(observed))
	for status := range observed {
		extra = append(extra, status)
	}
	sort.Strings(extra)
	return append(order, extra...)
}

// TotalRecords sums the record counts across aggregates.
func TotalRecords(aggregates []SampleAggregate) int {
	total := 0
	for _, agg := range aggregates {
		total += agg.RecordCount
	}
	return total
}

// AvailableLocations counts records per effective location, used to
// suggest alternatives when a query matches nothing.
func AvailableLocations(records []Record) map[string]int {
	locations := make(map[string]int)
	for _, record := range records {
		if loc := record.EffectiveLocation(); loc != "" {
			locations[loc]++
		}
	}
	return locations
}
