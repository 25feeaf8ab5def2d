package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/trezcool/coaching/core"
	"github.com/trezcool/coaching/core/fee"
	"github.com/trezcool/coaching/core/notification"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf      *core.Config
	db        *sql.DB
	logger    core.Logger
	notifSvc  notification.Service
	reminders *fee.ReminderScheduler
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS...]           - run a goose migration command (up, down, status, ...)")
	fmt.Println("  sendfeereminders [-date YYYY-MM-DD] - notify every student whose fee is due")
	fmt.Println("  cleanuptokens                       - delete inactive (30d) & unused (90d) device tokens")
	fmt.Println("  testnotification -user USER_ID      - send a test push notification to a user's devices")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	remindersCmd := flag.NewFlagSet("sendfeereminders", flag.ContinueOnError)
	remindersDate := remindersCmd.String("date", "", "Evaluate fees as of this date (YYYY-MM-DD). Defaults to today.")

	cleanupCmd := flag.NewFlagSet("cleanuptokens", flag.ContinueOnError)

	testNotifCmd := flag.NewFlagSet("testnotification", flag.ContinueOnError)
	testNotifUser := testNotifCmd.String("user", "", "The ID of the user to notify.")
	testNotifTitle := testNotifCmd.String("title", "Test Notification", "The notification title.")
	testNotifBody := testNotifCmd.String("body", "This is a test notification.", "The notification body.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "sendfeereminders":
		if err := remindersCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		today := core.Today()
		if *remindersDate != "" {
			d, err := core.ParseDate(*remindersDate)
			if err != nil {
				remindersCmd.Usage()
				return errHelp
			}
			today = d
		}
		return cli.sendFeeReminders(ctx, today)
	case "cleanuptokens":
		if err := cleanupCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.cleanupTokens(ctx, core.NowFunc().UTC())
	case "testnotification":
		if err := testNotifCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *testNotifUser == "" {
			testNotifCmd.Usage()
			return errHelp
		}
		return cli.testNotification(ctx, *testNotifUser, *testNotifTitle, *testNotifBody)
	default:
		cli.printUsage()
		return errHelp
	}
}

// sendFeeReminders never fails on delivery problems; they are logged by the scheduler.
func (cli *commandLine) sendFeeReminders(ctx context.Context, today time.Time) error {
	sent := cli.reminders.Run(ctx, today)
	fmt.Printf("Successfully sent %d fee reminders\n", sent)
	return nil
}

func (cli *commandLine) cleanupTokens(ctx context.Context, now time.Time) error {
	inactive, stale, err := cli.notifSvc.CleanupTokens(ctx, notification.CleanupFilter{
		InactiveBefore: now.Add(-cli.conf.Tokens.InactiveRetention),
		UnusedBefore:   now.Add(-cli.conf.Tokens.StaleRetention),
	})
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d inactive tokens\n", inactive)
	fmt.Printf("Deleted %d stale tokens\n", stale)
	return nil
}

func (cli *commandLine) testNotification(ctx context.Context, userID, title, body string) error {
	report := cli.notifSvc.Dispatch(ctx, []string{userID}, notification.Message{
		Title: title,
		Body:  body,
		Data:  map[string]string{"type": "test"},
	})
	if report.Err != nil {
		return report.Err
	}
	if !report.Sent() {
		return fmt.Errorf("no active device tokens for user %q", userID)
	}
	fmt.Printf("Test notification sent: %d/%d delivered, %d tokens deactivated\n",
		report.Succeeded, report.Attempted, report.Deactivated)
	return nil
}
