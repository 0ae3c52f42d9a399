// Package exporter serializes aggregate tables to report files.
//
// Two formats are supported: CSV (the default, with a UTF-8 BOM so
// Excel opens it correctly) and XLSX via excelize. Both share the same
// column layout: Sample_ID, one column per status observed across the
// result set in canonical order (zero-filled), a No_Status column when
// any sample has blank-status records, Genotype, Registered and
// Total_Neurons. The status columns always sum to Total_Neurons.
//
// Output filenames follow the
// <prefix>_<LOCATION>[_HIVE]_<TIMESTAMP>.<ext> convention; see
// Filename.
package exporter
