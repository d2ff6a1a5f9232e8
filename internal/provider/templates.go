package provider

import (
	"fmt"
	"log"
	"sync"

	"github.com/osteele/liquid"
)

// Templates renders message bodies from the template catalog using Liquid.
// The built-in catalog covers the canonical lifecycle templates; Register
// lets deployments extend or override it.
type Templates struct {
	engine *liquid.Engine

	mu      sync.RWMutex
	sources map[string]string
}

// NewTemplates creates the template renderer with the built-in catalog.
func NewTemplates() *Templates {
	engine := liquid.NewEngine()

	// {{ first_name | default: "Friend" }}
	engine.RegisterFilter("default", func(value any, defaultVal string) any {
		if value == nil {
			return defaultVal
		}
		if s := fmt.Sprintf("%v", value); s == "" || s == "<nil>" {
			return defaultVal
		}
		return value
	})

	return &Templates{
		engine: engine,
		sources: map[string]string{
			"WELCOME_EMAIL":           "Welcome aboard! We're so excited to have you with us.",
			"BANK_LINK_SUCCESS_EMAIL": "You've just linked your bank account? Then you're almost ready to pay your rent!",
			"INSUFFICIENT_FUNDS_EMAIL": "It looks like your payment didn't go through due to a low balance. " +
				"Just a quick top-up should do the trick!",
			"HIGH_RISK_ALERT": "We've noticed a few unsuccessful payment attempts and want to make sure your account is secure.",
		},
	}
}

// Register adds or replaces a template source.
func (t *Templates) Register(name, source string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources[name] = source
}

// Render produces the message text for a template. Unknown templates render
// a visible placeholder rather than failing the send; render errors fall
// back to the raw source.
func (t *Templates) Render(msg Message) string {
	t.mu.RLock()
	src, ok := t.sources[msg.TemplateName]
	t.mu.RUnlock()
	if !ok {
		return fmt.Sprintf("[Missing template text for %s]", msg.TemplateName)
	}

	bindings := liquid.Bindings{"user_id": msg.UserID}
	for k, v := range msg.Properties {
		bindings[k] = v
	}
	if msg.Traits != nil {
		if msg.Traits.Email != nil {
			bindings["email"] = *msg.Traits.Email
		}
		if msg.Traits.Country != nil {
			bindings["country"] = *msg.Traits.Country
		}
		if msg.Traits.MarketingOptIn != nil {
			bindings["marketing_opt_in"] = *msg.Traits.MarketingOptIn
		}
		if msg.Traits.RiskSegment != nil {
			bindings["risk_segment"] = *msg.Traits.RiskSegment
		}
	}

	out, err := t.engine.ParseAndRenderString(src, bindings)
	if err != nil {
		log.Printf("[Templates] Render failed for %s: %v", msg.TemplateName, err)
		return src
	}
	return out
}
