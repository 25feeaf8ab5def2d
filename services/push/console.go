package pushsvc

import (
	"context"
	"fmt"
	"sync"

	"github.com/trezcool/coaching/core"
	"github.com/trezcool/coaching/core/notification"
)

// SentNotification is a message delivered by the console provider.
type SentNotification struct {
	Message notification.Message
	Tokens  []string
}

type consoleProvider struct {
	logger core.Logger

	mu   sync.Mutex
	sent []SentNotification
}

var _ notification.Provider = (*consoleProvider)(nil)

// NewConsoleProvider returns a provider that logs notifications instead of pushing them; every token succeeds.
func NewConsoleProvider(logger core.Logger) *consoleProvider {
	return &consoleProvider{logger: logger}
}

func (p *consoleProvider) Send(_ context.Context, msg notification.Message, tokens []string) ([]error, error) {
	p.logger.Info(fmt.Sprintf("[push] %q: %q -> %d device(s)", msg.Title, msg.Body, len(tokens)), msg.Data)

	p.mu.Lock()
	p.sent = append(p.sent, SentNotification{Message: msg, Tokens: append([]string(nil), tokens...)})
	p.mu.Unlock()

	return make([]error, len(tokens)), nil
}

// Sent returns the notifications delivered so far.
func (p *consoleProvider) Sent() []SentNotification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]SentNotification(nil), p.sent...)
}
