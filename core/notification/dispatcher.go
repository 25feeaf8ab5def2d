package notification

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/coaching/core"
)

// DefaultBatchSize is the FCM multicast limit.
const DefaultBatchSize = 500

type (
	// Provider is a push-messaging API.
	Provider interface {
		// Send delivers msg to every token. Results are positional: results[i] is the outcome for tokens[i],
		// nil meaning delivered. A returned error means the whole batch failed.
		Send(ctx context.Context, msg Message, tokens []string) (results []error, err error)
	}

	// Registrar is implemented by providers keeping per-token state (eg. SNS platform endpoints);
	// they are told whenever a client (re-)registers its token.
	Registrar interface {
		RegisterToken(ctx context.Context, token string) error
	}

	// Dispatcher delivers messages to all active devices of a set of users.
	Dispatcher struct {
		repo      Repository
		provider  Provider
		batchSize int
		logger    core.Logger
	}
)

func NewDispatcher(repo Repository, provider Provider, batchSize int, logger core.Logger) *Dispatcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Dispatcher{
		repo:      repo,
		provider:  provider,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Dispatch sends msg to every active device token of userIDs.
// It never fails: failures are logged and reflected in the Report.
// Tokens reported invalid by the provider are deactivated right away.
func (d *Dispatcher) Dispatch(ctx context.Context, userIDs []string, msg Message) Report {
	var report Report

	if d.provider == nil {
		report.Err = ErrProviderNotConfigured
		d.logger.Error("dispatching notification: provider missing", report.Err)
		return report
	}
	// rejected for every token: never reaches the provider, so no token gets deactivated
	if err := msg.CheckPayload(); err != nil {
		report.Err = err
		d.logger.Error("dispatching notification: "+err.Error(), err)
		return report
	}

	tokens, err := d.repo.ActiveTokens(ctx, uniqueIDs(userIDs))
	if err != nil {
		report.Err = errors.Wrap(err, "querying active tokens")
		d.logger.Error("dispatching notification: "+report.Err.Error(), report.Err)
		return report
	}
	tokens = uniqueIDs(tokens)
	report.Tokens = len(tokens)
	if report.Tokens == 0 {
		d.logger.Warn(fmt.Sprintf("no active tokens found for users: %v", userIDs))
		return report
	}

	payload := msg.payload()
	for start := 0; start < len(tokens); start += d.batchSize {
		end := start + d.batchSize
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[start:end]

		results, err := d.provider.Send(ctx, payload, batch)
		if err != nil {
			if errors.Is(err, ErrProviderNotConfigured) {
				report.Err = err
				d.logger.Error("dispatching notification: "+err.Error(), err)
				return report
			}
			report.Attempted += len(batch)
			report.Failed += len(batch)
			d.logger.Error(fmt.Sprintf("sending notification batch of %d tokens: %v", len(batch), err), err)
			continue
		}
		report.Attempted += len(batch)
		d.handleBatchResults(ctx, batch, results, &report)
	}

	d.logger.Info(fmt.Sprintf("sent %d/%d notifications (%d failed, %d tokens deactivated)",
		report.Succeeded, report.Attempted, report.Failed, report.Deactivated))
	return report
}

func (d *Dispatcher) handleBatchResults(ctx context.Context, batch []string, results []error, report *Report) {
	invalid := make([]string, 0)
	for i, token := range batch {
		var resErr error
		if i < len(results) {
			resErr = results[i]
		} else {
			resErr = errors.New("missing delivery result")
		}

		switch {
		case resErr == nil:
			report.Succeeded++
		case IsInvalidToken(resErr):
			report.Failed++
			invalid = append(invalid, token)
		default:
			report.Failed++
			d.logger.Warn(fmt.Sprintf("delivering notification: %v", resErr), resErr)
		}
	}

	if len(invalid) == 0 {
		return
	}
	n, err := d.repo.DeactivateTokens(ctx, invalid...)
	if err != nil {
		d.logger.Error(fmt.Sprintf("deactivating %d invalid tokens: %v", len(invalid), err), err)
		return
	}
	report.Deactivated += n
	d.logger.Info(fmt.Sprintf("deactivated %d invalid tokens", n))
}

// uniqueIDs drops blanks and duplicates, keeping the first occurrence order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	uniq := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	return uniq
}

// registerToken forwards a (re-)registered token to the provider, when it keeps per-token state.
func (d *Dispatcher) registerToken(ctx context.Context, token string) {
	reg, ok := d.provider.(Registrar)
	if !ok {
		return
	}
	if err := reg.RegisterToken(ctx, token); err != nil {
		d.logger.Warn(fmt.Sprintf("registering token with provider: %v", err), err)
	}
}
