package engine

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gopkg.in/yaml.v3"

	"github.com/ignite/messaging-engine/internal/domain"
)

// Catalog is the immutable, validated rule set loaded at startup. It is
// shared read-only across request handlers and never reloaded.
type Catalog struct {
	Rules []Rule
}

// ValidationError aggregates every problem found in a catalog document so an
// operator can fix the whole file in one pass instead of replaying the
// load-fail loop once per mistake.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid rule catalog:")
	for _, p := range e.Problems {
		b.WriteString("\n- ")
		b.WriteString(p)
	}
	return b.String()
}

// LoadCatalog reads, parses, and validates the rule document at path.
// The path is a local file, or an s3://bucket/key URI fetched with the
// default AWS credential chain. Any failure here is fatal to startup.
func LoadCatalog(ctx context.Context, path string) (*Catalog, error) {
	data, err := readDocument(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read rule catalog %s: %w", path, err)
	}
	cat, err := ParseCatalog(data)
	if err != nil {
		return nil, err
	}
	log.Printf("[Catalog] Loaded %d rules from %s", len(cat.Rules), path)
	return cat, nil
}

// ParseCatalog parses a YAML rule document and validates it. The returned
// error is a *ValidationError when the document parsed but the rules are
// invalid.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rule catalog: %w", err)
	}

	cat := &Catalog{Rules: doc.Rules}
	if err := cat.validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

func readDocument(ctx context.Context, path string) ([]byte, error) {
	if bucket, key, ok := splitS3Path(path); ok {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		client := s3.NewFromConfig(cfg)
		out, err := client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, fmt.Errorf("getting object from S3: %w", err)
		}
		defer out.Body.Close()
		return io.ReadAll(out.Body)
	}
	return os.ReadFile(path)
}

// splitS3Path splits "s3://bucket/key/parts" into (bucket, key/parts, true).
func splitS3Path(path string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(path, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// validate checks every rule and collects ALL problems before failing.
func (c *Catalog) validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Rules == nil {
		add("rules: required list")
	}

	seen := make(map[string]bool, len(c.Rules))
	for i := range c.Rules {
		r := &c.Rules[i]
		path := fmt.Sprintf("rules[%d]", i)

		if strings.TrimSpace(r.Name) == "" {
			add("%s.name: required non-empty string", path)
		} else if seen[r.Name] {
			add("%s.name: duplicate rule name %q", path, r.Name)
		} else {
			seen[r.Name] = true
		}

		if strings.TrimSpace(r.Trigger.EventType) == "" {
			add("%s.trigger.event_type: required non-empty string", path)
		}

		for j := range r.Conditions.All {
			validateCondition(&r.Conditions.All[j], fmt.Sprintf("%s.conditions.all[%d]", path, j), add)
		}

		validateAction(&r.Action, path, add)

		// An omitted suppression block means "no guarantee".
		if r.Suppression.Mode == "" {
			r.Suppression.Mode = domain.SuppressNone
		} else if !r.Suppression.Mode.Valid() {
			add("%s.suppression.mode: must be one of [none once_ever once_per_calendar_day]", path)
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func validateCondition(c *Condition, path string, add func(string, ...any)) {
	if c.hasField && c.PriorEvent != nil {
		add("%s: must contain only one of 'field' or 'prior_event'", path)
		return
	}

	if c.hasField {
		if strings.TrimSpace(c.Field) == "" {
			add("%s.field: required non-empty string", path)
		} else if !strings.HasPrefix(c.Field, "properties.") && !strings.HasPrefix(c.Field, "user_traits.") {
			add("%s.field: must start with 'properties.' or 'user_traits.'", path)
		}
		if c.Operator != OpEquals && c.Operator != OpGTE {
			add("%s.operator: must be one of [equals gte]", path)
		}
		if !c.hasValue {
			add("%s.value: required", path)
		}
		return
	}

	if c.PriorEvent != nil {
		if strings.TrimSpace(c.PriorEvent.EventType) == "" {
			add("%s.prior_event.event_type: required non-empty string", path)
		}
		if c.PriorEvent.Hours <= 0 {
			add("%s.prior_event.hours: required positive int", path)
		}
		return
	}

	add("%s: must contain 'field' or 'prior_event'", path)
}

func validateAction(a *RuleAction, path string, add func(string, ...any)) {
	if a.Type != domain.ActionSend && a.Type != domain.ActionAlert {
		add("%s.action.type: must be one of [alert send]", path)
	}
	if strings.TrimSpace(a.TemplateName) == "" {
		add("%s.action.template_name: required non-empty string", path)
	}
	if !a.DeliveryMethod.Valid() {
		add("%s.action.delivery_method: must be one of [email internal sms]", path)
	}
	if a.Type == domain.ActionAlert && a.DeliveryMethod != domain.ChannelInternal {
		add("%s.action.delivery_method: must be 'internal' when action.type is 'alert'", path)
	}
}
