package soma

import (
	"strings"

	"somacli/internal/smartsheet"
)

// Sheet column titles for the neuron reconstruction sheet.
const (
	ColumnID             = "ID"
	ColumnCCFLocation    = "CCF Soma Compartment"
	ColumnManualLocation = "Manual Estimated Soma Compartment"
	ColumnStatus         = "Status 1"
	ColumnGenotype       = "Genotype"
	ColumnRegistered     = "Registered?"
)

// Named reconstruction statuses. The status taxonomy is open: values
// outside this set pass through the pipeline verbatim.
const (
	StatusCompleted     = "Completed"
	StatusPendingReview = "Pending Review"
	StatusInProgress    = "In Progress"
	StatusHold          = "Hold"
	StatusUntraceable   = "Untraceable"
	StatusIncomplete    = "Incomplete"
)

// CanonicalStatuses is the fixed ordering of the named statuses used
// for report columns and chart segments.
var CanonicalStatuses = []string{
	StatusCompleted,
	StatusPendingReview,
	StatusInProgress,
	StatusHold,
	StatusUntraceable,
	StatusIncomplete,
}

// TriState is a three-valued boolean for source cells that may be
// blank or unparseable.
type TriState int

const (
	TriUnknown TriState = iota
	TriFalse
	TriTrue
)

// String renders the tri-state the way reports display it.
func (t TriState) String() string {
	switch t {
	case TriTrue:
		return "Yes"
	case TriFalse:
		return "No"
	default:
		return "Unknown"
	}
}

// Record is one reconstructed-neuron entry, normalized from a sheet row.
type Record struct {
	CellID         string
	SampleID       string
	CCFLocation    string
	ManualLocation string
	Status         string
	Genotype       string
	Registered     TriState
	HIVEMarked     bool
}

// EffectiveLocation resolves the record's anatomical region. The
// manual annotation takes precedence over the CCF value; it is assumed
// more accurate.
func (r Record) EffectiveLocation() string {
	if r.ManualLocation != "" {
		return r.ManualLocation
	}
	return r.CCFLocation
}

// ParseRecord normalizes a raw sheet row into a Record. hiveColumn is
// the title resolved by HiveColumn; empty means the sheet has no HIVE
// column and every record parses as unmarked. The second return value
// is false when the row has no usable cell identifier; such rows are
// dropped by the caller, never fatal to the run.
func ParseRecord(row smartsheet.Row, hiveColumn string) (Record, bool) {
	cellID := strings.TrimSpace(row[ColumnID])
	if cellID == "" {
		return Record{}, false
	}

	return Record{
		CellID:         cellID,
		SampleID:       extractSampleID(cellID),
		CCFLocation:    strings.TrimSpace(row[ColumnCCFLocation]),
		ManualLocation: strings.TrimSpace(row[ColumnManualLocation]),
		Status:         strings.TrimSpace(row[ColumnStatus]),
		Genotype:       strings.TrimSpace(row[ColumnGenotype]),
		Registered:     parseTriState(row[ColumnRegistered]),
		HIVEMarked:     parseBool(row[hiveColumn]),
	}, true
}

// ParseRecords normalizes a batch of rows, returning the records and
// the number of rows dropped for lacking a cell identifier.
func ParseRecords(rows []smartsheet.Row, hiveColumn string) ([]Record, int) {
	records := make([]Record, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		record, ok := ParseRecord(row, hiveColumn)
		if !ok {
			dropped++
			continue
		}
		records = append(records, record)
	}
	return records, dropped
}

// extractSampleID takes the identifier prefix before the separator,
// e.g. "N030-657676" -> "N030". Identifiers without a separator are
// kept whole.
func extractSampleID(cellID string) string {
	if idx := strings.Index(cellID, "-"); idx > 0 {
		return cellID[:idx]
	}
	return cellID
}

// HiveColumn resolves the HIVE marker column from the sheet's column
// titles in sheet order. The title is not fixed across sheet
// revisions; the first column mentioning HIVE wins, so a sheet that
// also carries a "HIVE Notes" column always resolves the same way.
// Returns "" when no column qualifies.
func HiveColumn(titles []string) string {
	for _, title := range titles {
		if strings.Contains(strings.ToLower(title), "hive") {
			return title
		}
	}
	return ""
}

// parseBool coerces boolean-like cell text. Unrecognized or missing
// values map to false; this never errors.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "checked":
		return true
	default:
		return false
	}
}

// parseTriState coerces boolean-like cell text into a three-valued
// result. Blank or unrecognized values are Unknown, never an error.
func parseTriState(s string) TriState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "checked":
		return TriTrue
	case "false", "no", "n", "0", "unchecked":
		return TriFalse
	default:
		return TriUnknown
	}
}
