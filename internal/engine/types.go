package engine

import (
	"gopkg.in/yaml.v3"

	"github.com/ignite/messaging-engine/internal/domain"
)

// Operator is a comparison operator usable in a field condition.
type Operator string

const (
	OpEquals Operator = "equals"
	OpGTE    Operator = "gte"
)

// Rule is one declarative (trigger, conditions, action, suppression) tuple
// from the catalog document. Rules are immutable after load.
type Rule struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Enabled     *bool           `yaml:"enabled"` // nil means true
	Trigger     Trigger         `yaml:"trigger"`
	Conditions  RuleConditions  `yaml:"conditions"`
	Action      RuleAction      `yaml:"action"`
	Suppression RuleSuppression `yaml:"suppression"`
}

// IsEnabled resolves the enabled flag with its default of true.
func (r Rule) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// Trigger names the event type a rule fires on.
type Trigger struct {
	EventType string `yaml:"event_type"`
}

// RuleConditions wraps the ordered condition list. Only the "all" combinator
// exists: every condition must hold.
type RuleConditions struct {
	All []Condition `yaml:"all"`
}

// Condition is a tagged variant: exactly one of the field triple or
// PriorEvent is set. Carrying both, or neither, is a validation error;
// at evaluation time a malformed condition is simply false.
type Condition struct {
	Field    string   `yaml:"field"`
	Operator Operator `yaml:"operator"`
	Value    any      `yaml:"value"`

	PriorEvent *PriorEventCondition `yaml:"prior_event"`

	// Key presence, recorded at parse time. "value: null" in the document is
	// present; an absent key is not. The distinction matters for validation
	// and for picking the condition variant.
	hasField bool
	hasValue bool
}

// UnmarshalYAML decodes a condition and records which keys the document
// actually carried.
func (c *Condition) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Field      string               `yaml:"field"`
		Operator   Operator             `yaml:"operator"`
		Value      any                  `yaml:"value"`
		PriorEvent *PriorEventCondition `yaml:"prior_event"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	c.Field = raw.Field
	c.Operator = raw.Operator
	c.Value = raw.Value
	c.PriorEvent = raw.PriorEvent

	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			switch node.Content[i].Value {
			case "field":
				c.hasField = true
			case "value":
				c.hasValue = true
			}
		}
	}
	return nil
}

// PriorEventCondition holds when the user has an event of the given type
// whose timestamp is within Hours of the triggering event's timestamp.
type PriorEventCondition struct {
	EventType string `yaml:"event_type"`
	Hours     int    `yaml:"hours"`
}

// RuleAction is what a matched rule asks for.
type RuleAction struct {
	Type           domain.ActionType `yaml:"type"`
	TemplateName   string            `yaml:"template_name"`
	DeliveryMethod domain.Channel    `yaml:"delivery_method"`
}

// RuleSuppression declares the send-frequency guarantee for the action's
// template. An omitted block defaults to mode "none".
type RuleSuppression struct {
	Mode domain.SuppressionMode `yaml:"mode"`
}

// RuleDecision is the evaluator's verdict for one event. It is a value, not
// a persisted row; the processor folds it into the Decision audit artifact.
type RuleDecision struct {
	ActionType      domain.ActionType
	TemplateName    string
	DeliveryMethod  domain.Channel
	SuppressionMode domain.SuppressionMode
	MatchedRule     *string
	Reason          string
}
