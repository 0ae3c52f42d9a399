// Package soma implements the core analysis pipeline for neuron
// reconstruction data: normalizing raw sheet rows into records,
// filtering by soma location and HIVE marker, and aggregating status
// distributions per sample.
//
// The pipeline is a linear sequence:
//
//	records, dropped := soma.ParseRecords(sheet.ToRows(), soma.HiveColumn(sheet.ColumnTitles()))
//	filtered := soma.Filter(records, soma.NewLocationSelector("LC"), true)
//	aggregates := soma.Aggregate(filtered)
//
// Aggregates are consumed by the exporter and chart packages. The
// status taxonomy is open: the six named statuses are ordered first in
// outputs, anything else the sheet contains is carried through
// verbatim.
package soma
