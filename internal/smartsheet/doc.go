// Package smartsheet is a minimal client for the Smartsheet REST API,
// covering just the read operations the analysis pipeline needs:
// listing sheets and fetching a sheet's columns and rows. Cell values
// are flattened to title-keyed text rows, with the service's display
// value taking precedence over the raw typed value.
//
// Requests are rate limited client-side and carry the bearer token
// from configuration. API errors propagate to the caller unmodified;
// the pipeline is a short-lived batch job and does not retry.
package smartsheet
