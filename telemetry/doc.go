// Package telemetry records search queries and result clicks. Query log
// rows are written synchronously so the row exists before the response is
// returned; per-entry counter updates run on a worker pool so a slow
// counter write cannot stretch the search response path.
package telemetry
