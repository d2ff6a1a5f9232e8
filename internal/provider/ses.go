package provider

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/ignite/messaging-engine/internal/domain"
)

// SESConfig carries the AWS settings for the SES provider. Static keys are
// optional; when absent the default credential chain applies.
type SESConfig struct {
	Region           string
	AccessKey        string
	SecretKey        string
	FromAddress      string
	ConfigurationSet string
}

// SES delivers email-channel messages through AWS SES v2. SMS and internal
// messages fall through to the fallback provider, since SES covers email
// only.
type SES struct {
	client    *sesv2.Client
	from      string
	configSet string
	templates *Templates
	fallback  Provider
}

// NewSES creates the SES provider.
func NewSES(ctx context.Context, cfg SESConfig, templates *Templates, fallback Provider) (*SES, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &SES{
		client:    sesv2.NewFromConfig(awsCfg),
		from:      cfg.FromAddress,
		configSet: cfg.ConfigurationSet,
		templates: templates,
		fallback:  fallback,
	}, nil
}

func (p *SES) Send(ctx context.Context, msg Message) error {
	if msg.Channel != domain.ChannelEmail {
		return p.fallback.Send(ctx, msg)
	}

	var to string
	if msg.Traits != nil && msg.Traits.Email != nil {
		to = *msg.Traits.Email
	}
	if to == "" {
		return fmt.Errorf("send via ses: no email address for user %s", msg.UserID)
	}
	if p.client == nil {
		return fmt.Errorf("send via ses: client not initialized")
	}

	text := p.templates.Render(msg)
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(p.from),
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.TemplateName), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(text), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
	if p.configSet != "" {
		input.ConfigurationSetName = aws.String(p.configSet)
	}

	if _, err := p.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("send via ses: %w", err)
	}
	return nil
}
