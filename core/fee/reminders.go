package fee

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/coaching/core"
	"github.com/trezcool/coaching/core/notification"
	"github.com/trezcool/coaching/core/student"
)

// Notifier delivers a notification to the devices of some users.
type Notifier interface {
	Dispatch(ctx context.Context, userIDs []string, msg notification.Message) notification.Report
}

// ReminderScheduler notifies every student whose fee is due.
// It runs once per call; recurrence is left to the caller (cron, admin command).
type ReminderScheduler struct {
	feeSvc   Service
	stdSvc   student.Service
	notifier Notifier
	message  notification.Message
	logger   core.Logger
}

func NewReminderScheduler(
	feeSvc Service,
	stdSvc student.Service,
	notifier Notifier,
	message notification.Message,
	logger core.Logger,
) *ReminderScheduler {
	return &ReminderScheduler{
		feeSvc:   feeSvc,
		stdSvc:   stdSvc,
		notifier: notifier,
		message:  message,
		logger:   logger,
	}
}

// Run evaluates all students on `today` and sends one reminder to each student whose fee is due.
// It returns the number of students for whom delivery was attempted; it never fails.
// Bad student records are logged and skipped.
func (rs *ReminderScheduler) Run(ctx context.Context, today time.Time) int {
	today = core.Date(today)
	students, err := rs.stdSvc.Query(ctx, nil)
	if err != nil {
		rs.logger.Error(fmt.Sprintf("fee reminders: querying students: %v", err), err)
		return 0
	}

	var sent int
	for _, std := range students {
		if std.ID == "" || std.UserID == "" || std.JoinDate.IsZero() {
			rs.logger.Warn("fee reminders: skipping incomplete student record", map[string]interface{}{"student_id": std.ID})
			continue
		}

		ev, err := rs.feeSvc.Refresh(ctx, std, today)
		if err != nil {
			rs.logger.Error(fmt.Sprintf("fee reminders: evaluating student %s: %v", std.ID, err), err)
			if ev.Status == "" {
				continue
			}
		}
		if !ev.Due {
			continue
		}

		if report := rs.notifier.Dispatch(ctx, []string{std.UserID}, rs.message); report.Sent() {
			sent++
		}
	}

	rs.logger.Info(fmt.Sprintf("successfully sent %d fee reminders", sent))
	return sent
}
