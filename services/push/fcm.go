package pushsvc

import (
	"context"
	"strings"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/trezcool/coaching/core"
	"github.com/trezcool/coaching/core/notification"
)

// fcmClient is the part of *messaging.Client used by the provider.
type fcmClient interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

type fcmProvider struct {
	credentialsFile string
	logger          core.Logger

	mu     sync.Mutex
	client fcmClient
}

var _ notification.Provider = (*fcmProvider)(nil)

// NewFCMProvider returns a Firebase Cloud Messaging provider.
// The Firebase app is initialized lazily, on first send; when credentialsFile is empty,
// Application Default Credentials are used.
func NewFCMProvider(credentialsFile string, logger core.Logger) *fcmProvider {
	return &fcmProvider{credentialsFile: credentialsFile, logger: logger}
}

// getClient initializes the Firebase app once it succeeds; failures are retried on the next send.
func (p *fcmProvider) getClient(ctx context.Context) (fcmClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	var opts []option.ClientOption
	if p.credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(p.credentialsFile))
	}
	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, errors.Wrap(notification.ErrProviderNotConfigured, "initializing firebase app: "+err.Error())
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, errors.Wrap(notification.ErrProviderNotConfigured, "initializing firebase messaging: "+err.Error())
	}
	p.logger.Info("Firebase Admin SDK initialized.")
	p.client = client
	return p.client, nil
}

func (p *fcmProvider) Send(ctx context.Context, msg notification.Message, tokens []string) ([]error, error) {
	client, err := p.getClient(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens: tokens,
		Data:   msg.Data,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "sending multicast message")
	}
	return fcmResults(resp, len(tokens)), nil
}

func fcmResults(resp *messaging.BatchResponse, n int) []error {
	results := make([]error, n)
	for i := range results {
		if resp == nil || i >= len(resp.Responses) || resp.Responses[i] == nil {
			results[i] = errors.New("missing fcm response")
			continue
		}
		res := resp.Responses[i]
		if res.Success {
			continue
		}
		if isInvalidFCMToken(res.Error) {
			results[i] = notification.NewInvalidTokenError(res.Error)
		} else {
			results[i] = res.Error
		}
	}
	return results
}

// isInvalidFCMToken reports whether FCM rejected the token itself (unregistered or malformed).
// INVALID_ARGUMENT is also returned for messages FCM refuses whatever the token (eg. too big):
// those leave the token untouched.
func isInvalidFCMToken(err error) bool {
	if messaging.IsUnregistered(err) {
		return true
	}
	return messaging.IsInvalidArgument(err) && strings.Contains(strings.ToLower(err.Error()), "registration token")
}
