package pushsvc

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"

	"github.com/trezcool/coaching/core"
	"github.com/trezcool/coaching/core/notification"
)

// snsClient is the part of *sns.Client used by the provider.
type snsClient interface {
	CreatePlatformEndpoint(ctx context.Context, params *sns.CreatePlatformEndpointInput, optFns ...func(*sns.Options)) (*sns.CreatePlatformEndpointOutput, error)
	GetEndpointAttributes(ctx context.Context, params *sns.GetEndpointAttributesInput, optFns ...func(*sns.Options)) (*sns.GetEndpointAttributesOutput, error)
	SetEndpointAttributes(ctx context.Context, params *sns.SetEndpointAttributesInput, optFns ...func(*sns.Options)) (*sns.SetEndpointAttributesOutput, error)
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type snsProvider struct {
	client      snsClient
	platformArn string
	logger      core.Logger
}

var (
	_ notification.Provider  = (*snsProvider)(nil)
	_ notification.Registrar = (*snsProvider)(nil)
)

// NewSNSProvider returns a provider pushing through an AWS SNS platform application (FCM/GCM).
func NewSNSProvider(ctx context.Context, region, platformArn string, logger core.Logger) (*snsProvider, error) {
	if platformArn == "" {
		return nil, errors.Wrap(notification.ErrProviderNotConfigured, "SNS platform application ARN not set")
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, errors.Wrap(notification.ErrProviderNotConfigured, "loading aws config: "+err.Error())
	}
	return &snsProvider{
		client:      sns.NewFromConfig(cfg),
		platformArn: platformArn,
		logger:      logger,
	}, nil
}

func (p *snsProvider) payload(msg notification.Message) (string, error) {
	gcm, err := json.Marshal(map[string]interface{}{
		"notification": map[string]string{
			"title":        msg.Title,
			"body":         msg.Body,
			"click_action": msg.ClickAction,
		},
		"data": msg.Data,
	})
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(map[string]string{
		"default": msg.Body,
		"GCM":     string(gcm),
	})
	return string(raw), err
}

// Send publishes to each token's platform endpoint (created on the fly; creation is idempotent per token).
func (p *snsProvider) Send(ctx context.Context, msg notification.Message, tokens []string) ([]error, error) {
	payload, err := p.payload(msg)
	if err != nil {
		return nil, errors.Wrap(err, "encoding sns message")
	}

	results := make([]error, len(tokens))
	for i, token := range tokens {
		out, err := p.client.CreatePlatformEndpoint(ctx, &sns.CreatePlatformEndpointInput{
			PlatformApplicationArn: aws.String(p.platformArn),
			Token:                  aws.String(token),
		})
		if err != nil {
			results[i] = classifyEndpointError(err)
			continue
		}
		_, err = p.client.Publish(ctx, &sns.PublishInput{
			MessageStructure: aws.String("json"),
			Message:          aws.String(payload),
			TargetArn:        out.EndpointArn,
		})
		if err != nil {
			results[i] = classifyPublishError(err)
		}
	}
	return results, nil
}

// RegisterToken re-enables the token's platform endpoint: SNS disables endpoints whose token was rejected once,
// and creating the endpoint again returns the same disabled ARN.
func (p *snsProvider) RegisterToken(ctx context.Context, token string) error {
	out, err := p.client.CreatePlatformEndpoint(ctx, &sns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(p.platformArn),
		Token:                  aws.String(token),
	})
	if err != nil {
		return errors.Wrap(err, "creating platform endpoint")
	}
	attrs, err := p.client.GetEndpointAttributes(ctx, &sns.GetEndpointAttributesInput{EndpointArn: out.EndpointArn})
	if err != nil {
		return errors.Wrap(err, "getting endpoint attributes")
	}
	if attrs.Attributes["Enabled"] == "true" && attrs.Attributes["Token"] == token {
		return nil
	}
	_, err = p.client.SetEndpointAttributes(ctx, &sns.SetEndpointAttributesInput{
		EndpointArn: out.EndpointArn,
		Attributes:  map[string]string{"Enabled": "true", "Token": token},
	})
	if err != nil {
		return errors.Wrap(err, "enabling platform endpoint")
	}
	p.logger.Info("re-enabled SNS platform endpoint", map[string]interface{}{"endpoint_arn": aws.ToString(out.EndpointArn)})
	return nil
}

// classifyEndpointError marks tokens SNS refuses to create an endpoint for as invalid; anything else is transient.
func classifyEndpointError(err error) error {
	var invalid *types.InvalidParameterException
	if errors.As(err, &invalid) || snsErrorCode(err) == "InvalidParameter" {
		return notification.NewInvalidTokenError(err)
	}
	return err
}

// classifyPublishError marks disabled endpoints as invalid. InvalidParameter is about the message
// (eg. too long) at this stage, so it leaves the token untouched.
func classifyPublishError(err error) error {
	var disabled *types.EndpointDisabledException
	if errors.As(err, &disabled) || snsErrorCode(err) == "EndpointDisabled" {
		return notification.NewInvalidTokenError(err)
	}
	return err
}

func snsErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
