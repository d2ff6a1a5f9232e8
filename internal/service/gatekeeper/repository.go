package gatekeeper

import (
	"context"
	"time"
)

// SendHistory answers whether a user already received a template. Both
// probes must run in the same transaction as the decision being made, so
// that rows written earlier in the transaction are visible.
type SendHistory interface {
	// ExistsForUserAndTemplate reports whether any send request was ever
	// recorded for the user and template.
	ExistsForUserAndTemplate(ctx context.Context, userID, templateName string) (bool, error)

	// ExistsInDaySoFar reports whether a send request exists strictly
	// inside the UTC calendar day of at, before at itself.
	ExistsInDaySoFar(ctx context.Context, userID, templateName string, at time.Time) (bool, error)
}
