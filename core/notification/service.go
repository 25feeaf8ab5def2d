package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/coaching/core"
	"github.com/trezcool/coaching/core/student"
)

type (
	Repository interface {
		// UpsertToken creates the token or, when it already exists (tokens are unique), hands it over to tok.UserID & reactivates it.
		UpsertToken(ctx context.Context, tok DeviceToken) (DeviceToken, bool, error)
		// ActiveTokens returns the distinct active tokens of the given users.
		ActiveTokens(ctx context.Context, userIDs []string) ([]string, error)
		DeactivateTokens(ctx context.Context, tokens ...string) (int, error)
		DeactivateUserTokens(ctx context.Context, userID string, updatedAt time.Time) (int, error)
		DeleteInactiveTokens(ctx context.Context, updatedBefore time.Time) (int, error)
		DeleteUnusedTokens(ctx context.Context, lastUsedBefore time.Time) (int, error)
	}

	Service interface {
		RegisterToken(ctx context.Context, userID string, nt NewDeviceToken) (DeviceToken, bool, error)
		Logout(ctx context.Context, userID string) (int, error)
		CleanupTokens(ctx context.Context, filter CleanupFilter) (inactive, stale int, err error)
		Dispatch(ctx context.Context, userIDs []string, msg Message) Report
		NotifyBatchStudents(ctx context.Context, batchIDs []string, msg Message) Report
		NotifyAllStudents(ctx context.Context, msg Message) Report
	}

	service struct {
		repo       Repository
		dispatcher *Dispatcher
		stdSvc     student.Service
		logger     core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, dispatcher *Dispatcher, stdSvc student.Service, logger core.Logger) Service {
	return &service{
		repo:       repo,
		dispatcher: dispatcher,
		stdSvc:     stdSvc,
		logger:     logger,
	}
}

func (svc *service) RegisterToken(ctx context.Context, userID string, nt NewDeviceToken) (DeviceToken, bool, error) {
	now := core.NowFunc().UTC()
	tok := DeviceToken{
		ID:         uuid.New().String(),
		UserID:     userID,
		Token:      nt.Token,
		DeviceID:   nt.DeviceID,
		DeviceType: nt.DeviceType,
		Browser:    nt.Browser,
		IsActive:   true,
		LastUsedAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	tok, created, err := svc.repo.UpsertToken(ctx, tok)
	if err != nil {
		return DeviceToken{}, false, errors.Wrap(err, "saving device token")
	}
	svc.dispatcher.registerToken(ctx, tok.Token)
	return tok, created, nil
}

// Logout deactivates all tokens of the user so that shared devices stop receiving their notifications.
func (svc *service) Logout(ctx context.Context, userID string) (int, error) {
	n, err := svc.repo.DeactivateUserTokens(ctx, userID, core.NowFunc().UTC())
	if err != nil {
		return 0, errors.Wrap(err, "deactivating user tokens")
	}
	svc.logger.Info("deactivated device tokens on logout", map[string]interface{}{"user_id": userID, "count": n})
	return n, nil
}

func (svc *service) CleanupTokens(ctx context.Context, filter CleanupFilter) (int, int, error) {
	inactive, err := svc.repo.DeleteInactiveTokens(ctx, filter.InactiveBefore)
	if err != nil {
		return 0, 0, errors.Wrap(err, "deleting inactive tokens")
	}
	stale, err := svc.repo.DeleteUnusedTokens(ctx, filter.UnusedBefore)
	if err != nil {
		return inactive, 0, errors.Wrap(err, "deleting stale tokens")
	}
	return inactive, stale, nil
}

func (svc *service) Dispatch(ctx context.Context, userIDs []string, msg Message) Report {
	return svc.dispatcher.Dispatch(ctx, userIDs, msg)
}

func (svc *service) NotifyBatchStudents(ctx context.Context, batchIDs []string, msg Message) Report {
	if len(batchIDs) == 0 {
		return Report{}
	}
	return svc.notifyStudents(ctx, &student.QueryFilter{BatchIDs: batchIDs}, msg)
}

func (svc *service) NotifyAllStudents(ctx context.Context, msg Message) Report {
	return svc.notifyStudents(ctx, nil, msg)
}

func (svc *service) notifyStudents(ctx context.Context, filter *student.QueryFilter, msg Message) Report {
	students, err := svc.stdSvc.Query(ctx, filter)
	if err != nil {
		err = errors.Wrap(err, "querying students")
		svc.logger.Error("notifying students: "+err.Error(), err)
		return Report{Err: err}
	}
	userIDs := make([]string, 0, len(students))
	for _, std := range students {
		userIDs = append(userIDs, std.UserID)
	}
	return svc.dispatcher.Dispatch(ctx, userIDs, msg)
}
