// Package gatekeeper implements the suppression gate.
//
// After a rule matches, the gate decides whether the send actually goes
// out or is withheld because the user already received the template. It
// is the single source of truth for send-frequency policy: once_ever
// blocks any repeat of a template, once_per_calendar_day blocks repeats
// within the triggering event's UTC calendar day. Alerts are operational
// signals and bypass the gate entirely.
//
// The service layer contains pure business logic and depends on the
// SendHistory interface defined in repository.go. It never imports
// net/http or database/sql directly.
package gatekeeper
