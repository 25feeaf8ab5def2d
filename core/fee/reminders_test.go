package fee_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coaching/core/fee"
	"github.com/trezcool/coaching/core/notification"
	"github.com/trezcool/coaching/core/student"
	logsvc "github.com/trezcool/coaching/services/logger"
	inmemdb "github.com/trezcool/coaching/storage/database/inmem"
	"github.com/trezcool/coaching/tests"
)

var reminder = notification.Message{Title: "Fee Payment Reminder", Body: "Your monthly fee is due.", ClickAction: "/fees/history/"}

func TestReminderScheduler_Run(t *testing.T) {
	db := inmemdb.Open()
	logger := logsvc.NewDiscardLogger()
	stdRepo := inmemdb.NewStudentRepository(db)
	feeRepo := inmemdb.NewPaymentRepository(db)
	tokenRepo := inmemdb.NewTokenRepository(db)
	stdSvc := student.NewService(stdRepo)
	feeSvc := fee.NewService(feeRepo, stdSvc, nil, logger)

	provider := &testutil.FakeProvider{
		Results: map[string]error{"tok-late-2": notification.NewInvalidTokenError(errors.New("unregistered"))},
	}
	dispatcher := notification.NewDispatcher(tokenRepo, provider, 0, logger)
	scheduler := fee.NewReminderScheduler(feeSvc, stdSvc, dispatcher, reminder, logger)

	today := testutil.Day("2024-03-10")

	fresh := testutil.CreateStudent(t, stdRepo, "u-fresh", "Fresh", "", testutil.Day("2024-03-01"))
	never := testutil.CreateStudent(t, stdRepo, "u-never", "Never", "", testutil.Day("2024-01-01"))
	late := testutil.CreateStudent(t, stdRepo, "u-late", "Late", "", testutil.Day("2024-01-01"))
	paid := testutil.CreateStudent(t, stdRepo, "u-paid", "Paid", "", testutil.Day("2024-01-01"))
	silent := testutil.CreateStudent(t, stdRepo, "u-silent", "No Devices", "", testutil.Day("2024-01-01"))
	testutil.CreateStudent(t, stdRepo, "", "Incomplete", "", testutil.Day("2024-01-01"))

	testutil.CreatePayment(t, feeRepo, late, 100, testutil.Day("2024-02-01"))
	testutil.CreatePayment(t, feeRepo, paid, 100, testutil.Day("2024-03-01"))

	testutil.CreateToken(t, tokenRepo, fresh.UserID, "tok-fresh")
	testutil.CreateToken(t, tokenRepo, never.UserID, "tok-never")
	testutil.CreateToken(t, tokenRepo, late.UserID, "tok-late-1")
	testutil.CreateToken(t, tokenRepo, late.UserID, "tok-late-2")
	testutil.CreateToken(t, tokenRepo, paid.UserID, "tok-paid")

	sent := scheduler.Run(context.Background(), today)
	assert.Equal(t, 2, sent, "never & late were reminded, silent has no device")
	assert.ElementsMatch(t, []string{"tok-never", "tok-late-1", "tok-late-2"}, provider.Sent())
	assert.Equal(t, reminder.Title, provider.Message.Data["title"])
	assert.Equal(t, reminder.ClickAction, provider.Message.Data["url"])

	// fee status cache refreshed
	for id, want := range map[string]student.FeeStatus{
		fresh.ID:  student.FeeStatusPending,
		never.ID:  student.FeeStatusPending,
		late.ID:   student.FeeStatusPending,
		paid.ID:   student.FeeStatusPaid,
		silent.ID: student.FeeStatusPending,
	} {
		std, err := stdSvc.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, want, std.FeeStatus, std.Name)
	}

	// the unregistered token is not targeted anymore
	provider.Batches = nil
	sent = scheduler.Run(context.Background(), today)
	assert.Equal(t, 2, sent)
	assert.ElementsMatch(t, []string{"tok-never", "tok-late-1"}, provider.Sent())
}

func TestReminderScheduler_Run_providerNotConfigured(t *testing.T) {
	db := inmemdb.Open()
	logger := logsvc.NewDiscardLogger()
	stdRepo := inmemdb.NewStudentRepository(db)
	tokenRepo := inmemdb.NewTokenRepository(db)
	stdSvc := student.NewService(stdRepo)
	feeSvc := fee.NewService(inmemdb.NewPaymentRepository(db), stdSvc, nil, logger)

	never := testutil.CreateStudent(t, stdRepo, "u-never", "Never", "", testutil.Day("2024-01-01"))
	testutil.CreateToken(t, tokenRepo, never.UserID, "tok-never")

	dispatcher := notification.NewDispatcher(tokenRepo, nil, 0, logger)
	scheduler := fee.NewReminderScheduler(feeSvc, stdSvc, dispatcher, reminder, logger)
	assert.Equal(t, 0, scheduler.Run(context.Background(), testutil.Day("2024-03-10")))
}
