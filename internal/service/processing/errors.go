package processing

import "errors"

// Sentinel errors for the processing service layer.
var (
	ErrInvalidEvent = errors.New("invalid event")
)
