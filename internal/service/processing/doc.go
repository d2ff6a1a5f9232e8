// Package processing implements the event decision pipeline.
//
// One ProcessEvent call ingests a lifecycle event, evaluates the rule
// catalog against it, applies the suppression gate, performs the resulting
// side effect (send request plus provider delivery, or a suppression row),
// and records a decision audit row. All writes and the provider call share
// a single transaction: an event is either fully decided or not recorded
// at all.
//
// The service depends on the Store/Tx contracts in repository.go and never
// imports database/sql directly.
package processing
