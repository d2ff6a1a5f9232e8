// Package audit projects persisted decision history into read models.
//
// Every processed event leaves exactly one Decision row; this package turns
// those rows into the per-user audit feed, exposes the raw activity trail
// (events, send requests, suppressions), and resolves single events. It is
// read-only: all writes happen in the processing pipeline.
package audit
