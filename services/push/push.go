// Package pushsvc implements notification.Provider for the supported push backends.
package pushsvc

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/coaching/core"
	"github.com/trezcool/coaching/core/notification"
)

const (
	ProviderConsole = "console"
	ProviderFCM     = "fcm"
	ProviderSNS     = "sns"
)

// New returns the provider selected by conf.Push.Provider.
// A nil provider is returned (with no error) when push is disabled with an empty provider name;
// dispatching then reports notification.ErrProviderNotConfigured.
func New(ctx context.Context, conf *core.Config, logger core.Logger) (notification.Provider, error) {
	switch conf.Push.Provider {
	case "", "none":
		logger.Warn("push notifications are disabled")
		return nil, nil
	case ProviderConsole:
		return NewConsoleProvider(logger), nil
	case ProviderFCM:
		return NewFCMProvider(conf.Push.CredentialsFile, logger), nil
	case ProviderSNS:
		p, err := NewSNSProvider(ctx, conf.Push.AWSRegion, conf.Push.SNSPlatformArn, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, errors.Errorf("unknown push provider %q", conf.Push.Provider)
	}
}
