package audit

import "errors"

// Sentinel errors for the audit service layer.
var (
	ErrEventNotFound = errors.New("event not found")
)
