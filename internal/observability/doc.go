// Package observability provides event logging, focus metrics, and the
// session-finished notification for focal. Events are persisted as
// structured JSON Lines (JSONL) and metrics are derived on demand from
// the event log.
package observability
