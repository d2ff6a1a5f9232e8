// Package provider delivers the messages the decision pipeline allows.
//
// The processor hands every allowed send (and every alert) to a Provider
// inside the decision transaction: a send failure aborts the transaction,
// so implementations must return an error only when the message truly did
// not go out.
package provider

import (
	"context"

	"github.com/ignite/messaging-engine/internal/domain"
)

// Message is a fully decided send: the template to deliver, the channel to
// deliver it on, and the context needed to render and address it.
type Message struct {
	UserID       string
	TemplateName string
	Channel      domain.Channel
	Reason       string
	Traits       *domain.UserTraits
	Properties   map[string]any
}

// Provider delivers decision messages.
type Provider interface {
	Send(ctx context.Context, msg Message) error
}
