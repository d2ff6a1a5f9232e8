package engine

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/ignite/messaging-engine/internal/domain"
)

// PriorEventLookup is the narrow repository view the evaluator needs for
// prior_event conditions. Implementations return (nil, nil) when the user
// has no event of the given type. The lookup must run inside the caller's
// transaction so the just-persisted triggering event is visible.
type PriorEventLookup interface {
	GetLatestByUserAndType(ctx context.Context, userID, eventType string) (*domain.Event, error)
}

// Evaluator walks the catalog in document order and returns the decision of
// the first rule that matches. It is stateless apart from the frozen catalog
// and safe for concurrent use.
type Evaluator struct {
	catalog *Catalog
}

// NewEvaluator creates an evaluator over a validated catalog.
func NewEvaluator(catalog *Catalog) *Evaluator {
	return &Evaluator{catalog: catalog}
}

// Evaluate finds the first enabled rule whose trigger and conditions match
// the event. Rules listed later are never consulted once a match is found.
// Only repository failures produce an error; malformed conditions and
// unknown operators make the condition false and evaluation continues.
func (e *Evaluator) Evaluate(ctx context.Context, events PriorEventLookup, ev *domain.Event, traits *domain.UserTraits) (RuleDecision, error) {
	for i := range e.catalog.Rules {
		r := &e.catalog.Rules[i]
		matched, err := e.ruleMatches(ctx, events, r, ev, traits)
		if err != nil {
			return RuleDecision{}, err
		}
		if matched {
			name := r.Name
			return RuleDecision{
				ActionType:      r.Action.Type,
				TemplateName:    r.Action.TemplateName,
				DeliveryMethod:  r.Action.DeliveryMethod,
				SuppressionMode: r.Suppression.Mode,
				MatchedRule:     &name,
				Reason:          "Matched rule: " + name,
			}, nil
		}
	}

	return RuleDecision{
		ActionType: domain.ActionNone,
		Reason:     "No matching rule",
	}, nil
}

func (e *Evaluator) ruleMatches(ctx context.Context, events PriorEventLookup, r *Rule, ev *domain.Event, traits *domain.UserTraits) (bool, error) {
	if !r.IsEnabled() {
		return false, nil
	}
	if r.Trigger.EventType != ev.EventType {
		return false, nil
	}

	// An empty condition list is vacuously true: the trigger alone decides.
	for i := range r.Conditions.All {
		holds, err := e.conditionHolds(ctx, events, &r.Conditions.All[i], ev, traits)
		if err != nil {
			return false, err
		}
		if !holds {
			return false, nil
		}
	}
	return true, nil
}

func (e *Evaluator) conditionHolds(ctx context.Context, events PriorEventLookup, c *Condition, ev *domain.Event, traits *domain.UserTraits) (bool, error) {
	switch {
	case c.hasField:
		return fieldConditionHolds(c, ev, traits), nil
	case c.PriorEvent != nil:
		return priorEventHolds(ctx, events, c.PriorEvent, ev)
	default:
		// Unknown condition shape. Treated as false, not as a fault.
		return false, nil
	}
}

func fieldConditionHolds(c *Condition, ev *domain.Event, traits *domain.UserTraits) bool {
	actual := resolveField(c.Field, ev, traits)

	switch c.Operator {
	case OpEquals:
		return valuesEqual(actual, c.Value)
	case OpGTE:
		return actual != nil && valueGTE(actual, c.Value)
	default:
		return false
	}
}

func priorEventHolds(ctx context.Context, events PriorEventLookup, pc *PriorEventCondition, ev *domain.Event) (bool, error) {
	prior, err := events.GetLatestByUserAndType(ctx, ev.UserID, pc.EventType)
	if err != nil {
		return false, fmt.Errorf("prior event lookup: %w", err)
	}
	if prior == nil {
		return false, nil
	}

	// Inclusive at exactly Hours elapsed. The latest event of the type is
	// used regardless of which side of the triggering event it falls on.
	diff := ev.EventTimestamp.Sub(prior.EventTimestamp)
	return diff <= time.Duration(pc.Hours)*time.Hour, nil
}

// resolveField walks a dotted path into the event record, the per-event
// traits, or the properties map. Anything missing resolves to nil.
func resolveField(path string, ev *domain.Event, traits *domain.UserTraits) any {
	if name, ok := strings.CutPrefix(path, "event."); ok {
		return eventAttr(ev, name)
	}
	if name, ok := strings.CutPrefix(path, "user_traits."); ok {
		if traits == nil {
			return nil
		}
		return traitAttr(traits, name)
	}
	if key, ok := strings.CutPrefix(path, "properties."); ok {
		return ev.Properties[key]
	}
	return nil
}

func eventAttr(ev *domain.Event, name string) any {
	switch name {
	case "id":
		return ev.ID
	case "user_id":
		return ev.UserID
	case "event_type":
		return ev.EventType
	case "event_timestamp":
		return ev.EventTimestamp
	}
	return nil
}

func traitAttr(t *domain.UserTraits, name string) any {
	switch name {
	case "email":
		if t.Email != nil {
			return *t.Email
		}
	case "country":
		if t.Country != nil {
			return *t.Country
		}
	case "marketing_opt_in":
		if t.MarketingOptIn != nil {
			return *t.MarketingOptIn
		}
	case "risk_segment":
		if t.RiskSegment != nil {
			return *t.RiskSegment
		}
	}
	return nil
}

// valuesEqual compares across the scalar types YAML and JSON decoding
// produce. Numbers compare numerically regardless of concrete type, so a
// rule value of 3 equals a JSON property of 3.0. A nil actual never equals
// a non-nil expected.
func valuesEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	if af, ok := toFloat(actual); ok {
		ef, ok := toFloat(expected)
		return ok && af == ef
	}
	switch a := actual.(type) {
	case string:
		e, ok := expected.(string)
		return ok && a == e
	case bool:
		e, ok := expected.(bool)
		return ok && a == e
	}
	return reflect.DeepEqual(actual, expected)
}

// valueGTE orders numbers numerically and strings lexicographically.
// Incomparable pairs are false.
func valueGTE(actual, expected any) bool {
	if af, ok := toFloat(actual); ok {
		ef, ok := toFloat(expected)
		return ok && af >= ef
	}
	if as, ok := actual.(string); ok {
		es, ok := expected.(string)
		return ok && as >= es
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
