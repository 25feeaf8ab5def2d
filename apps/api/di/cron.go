package di

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/coaching/core"
	"github.com/trezcool/coaching/core/fee"
)

// cronLogger adapts core.Logger to cron.Logger.
type cronLogger struct {
	logger core.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(fmt.Sprintf("cron: %s: %v", msg, err), append([]interface{}{err}, keysAndValues...)...)
}

// newCron schedules the fee reminders; the returned cron is not started.
// A run still in progress when the next one is due is skipped.
func newCron(conf *core.Config, reminders *fee.ReminderScheduler, logger core.Logger) (*cron.Cron, error) {
	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if conf.Fees.ReminderSchedule == "" {
		return c, nil
	}
	_, err := c.AddFunc(conf.Fees.ReminderSchedule, func() {
		reminders.Run(context.Background(), core.Today())
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scheduling fee reminders %q", conf.Fees.ReminderSchedule)
	}
	logger.Info(fmt.Sprintf("fee reminders scheduled: %q", conf.Fees.ReminderSchedule))
	return c, nil
}
