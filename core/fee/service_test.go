package fee_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coaching/core"
	"github.com/trezcool/coaching/core/fee"
	"github.com/trezcool/coaching/core/student"
	emailsvc "github.com/trezcool/coaching/services/email"
	logsvc "github.com/trezcool/coaching/services/logger"
	inmemdb "github.com/trezcool/coaching/storage/database/inmem"
	"github.com/trezcool/coaching/tests"
)

type env struct {
	stdRepo student.Repository
	feeRepo fee.Repository
	stdSvc  student.Service
	feeSvc  fee.Service
}

func setup(t *testing.T) env {
	t.Helper()
	db := inmemdb.Open()
	logger := logsvc.NewDiscardLogger()
	e := env{
		stdRepo: inmemdb.NewStudentRepository(db),
		feeRepo: inmemdb.NewPaymentRepository(db),
	}
	e.stdSvc = student.NewService(e.stdRepo)
	e.feeSvc = fee.NewService(e.feeRepo, e.stdSvc, emailsvc.NewConsoleServiceMock(core.NewTestConfig(), logger), logger)
	emailsvc.ResetSentMessages()
	return e
}

func TestService_RecordPayment(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	testutil.SetToday(t, testutil.Day("2024-02-20"))

	std := testutil.CreateStudent(t, e.stdRepo, "u-1", "Amani", "b-1", testutil.Day("2024-01-01"), "amani@test.cd")

	p, err := e.feeSvc.RecordPayment(ctx, fee.NewPayment{StudentID: std.ID, Amount: "1500.50", Date: "2024-02-01", TransactionID: "TX-1"})
	require.NoError(t, err)
	assert.Equal(t, fee.Amount(150050), p.Amount)
	assert.True(t, p.Date.Equal(testutil.Day("2024-02-01")))
	assert.Equal(t, "TX-1", p.TransactionID)

	got, err := e.feeSvc.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	refreshed, err := e.stdSvc.Get(ctx, std.ID)
	require.NoError(t, err)
	assert.Equal(t, student.FeeStatusPaid, refreshed.FeeStatus)

	require.Len(t, emailsvc.SentMessages, 1)
	receipt := emailsvc.SentMessages[0]
	assert.Equal(t, "amani@test.cd", receipt.To[0].Address)
	assert.True(t, strings.Contains(receipt.TextContent, "1500.50"))
	assert.True(t, strings.Contains(receipt.TextContent, "2024-03-02"), "receipt should carry the next due date")
}

func TestService_RecordPayment_defaultsToToday(t *testing.T) {
	e := setup(t)
	testutil.SetToday(t, testutil.Day("2024-05-10"))

	std := testutil.CreateStudent(t, e.stdRepo, "u-1", "Amani", "", testutil.Day("2024-01-01"))
	p, err := e.feeSvc.RecordPayment(context.Background(), fee.NewPayment{StudentID: std.ID, Amount: "100"})
	require.NoError(t, err)
	assert.True(t, p.Date.Equal(testutil.Day("2024-05-10")))
	assert.Empty(t, emailsvc.SentMessages, "no email address, no receipt")
}

func TestService_RecordPayment_errors(t *testing.T) {
	e := setup(t)
	std := testutil.CreateStudent(t, e.stdRepo, "u-1", "Amani", "", testutil.Day("2024-01-01"))

	tests := []struct {
		name string
		np   fee.NewPayment
	}{
		{name: "unknown student", np: fee.NewPayment{StudentID: "2b1d1f3e-6a7b-4c33-9e4c-111111111111", Amount: "10"}},
		{name: "amount too large", np: fee.NewPayment{StudentID: std.ID, Amount: "200000000000000000"}},
		{name: "zero amount", np: fee.NewPayment{StudentID: std.ID, Amount: "0"}},
		{name: "negative amount", np: fee.NewPayment{StudentID: std.ID, Amount: "-10"}},
		{name: "malformed amount", np: fee.NewPayment{StudentID: std.ID, Amount: "ten"}},
		{name: "malformed date", np: fee.NewPayment{StudentID: std.ID, Amount: "10", Date: "01/02/2024"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.feeSvc.RecordPayment(context.Background(), tt.np)
			assert.Error(t, err)
		})
	}

	payments, err := e.feeSvc.ListPayments(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestNewPayment_Validate(t *testing.T) {
	e := setup(t)
	validate, _ := testutil.NewValidator()
	std := testutil.CreateStudent(t, e.stdRepo, "u-1", "Amani", "", testutil.Day("2024-01-01"))

	tests := []struct {
		name    string
		np      fee.NewPayment
		wantErr bool
	}{
		{name: "valid", np: fee.NewPayment{StudentID: std.ID, Amount: "1500", Date: "2024-02-01"}},
		{name: "valid upper-case id", np: fee.NewPayment{StudentID: strings.ToUpper(std.ID), Amount: "1500.5"}},
		{name: "missing amount", np: fee.NewPayment{StudentID: std.ID}, wantErr: true},
		{name: "too many decimals", np: fee.NewPayment{StudentID: std.ID, Amount: "1.234"}, wantErr: true},
		{name: "amount too large", np: fee.NewPayment{StudentID: std.ID, Amount: "200000000000000000"}, wantErr: true},
		{name: "zero amount", np: fee.NewPayment{StudentID: std.ID, Amount: "0.00"}, wantErr: true},
		{name: "bad date", np: fee.NewPayment{StudentID: std.ID, Amount: "1", Date: "2024-13-01"}, wantErr: true},
		{name: "bad student id", np: fee.NewPayment{StudentID: "lol", Amount: "1"}, wantErr: true},
		{name: "unknown student", np: fee.NewPayment{StudentID: "2b1d1f3e-6a7b-4c33-9e4c-111111111111", Amount: "1"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.np.Validate(context.Background(), validate, e.stdSvc)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_ListPayments(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	a := testutil.CreateStudent(t, e.stdRepo, "u-a", "A", "", testutil.Day("2024-01-01"))
	b := testutil.CreateStudent(t, e.stdRepo, "u-b", "B", "", testutil.Day("2024-01-01"))
	p1 := testutil.CreatePayment(t, e.feeRepo, a, 100, testutil.Day("2024-02-01"))
	p2 := testutil.CreatePayment(t, e.feeRepo, a, 100, testutil.Day("2024-03-01"))
	p3 := testutil.CreatePayment(t, e.feeRepo, b, 100, testutil.Day("2024-02-15"))

	all, err := e.feeSvc.ListPayments(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{p2.ID, p3.ID, p1.ID}, paymentIDs(all))

	mine, err := e.feeSvc.ListPayments(ctx, &fee.PaymentFilter{StudentID: a.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{p2.ID, p1.ID}, paymentIDs(mine))

	_, err = e.feeSvc.GetPayment(ctx, "not-a-uuid")
	assert.Equal(t, fee.ErrPaymentNotFound, err)
}

func TestService_Overview(t *testing.T) {
	e := setup(t)
	today := testutil.Day("2024-03-10")

	fresh := testutil.CreateStudent(t, e.stdRepo, "u-1", "A Fresh", "", testutil.Day("2024-03-01"))
	never := testutil.CreateStudent(t, e.stdRepo, "u-2", "B Never", "", testutil.Day("2024-01-01"))
	late := testutil.CreateStudent(t, e.stdRepo, "u-3", "C Late", "", testutil.Day("2024-01-01"))
	testutil.CreatePayment(t, e.feeRepo, late, 100, testutil.Day("2024-01-20"))
	testutil.CreatePayment(t, e.feeRepo, late, 100, testutil.Day("2024-02-01"))

	rows, err := e.feeSvc.Overview(context.Background(), today)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	byID := make(map[string]fee.StudentFeeStatus)
	for _, r := range rows {
		byID[r.Student.ID] = r
	}
	assert.Equal(t, fee.StatusNewStudent, byID[fresh.ID].Status)
	assert.Nil(t, byID[fresh.ID].LastPaymentDate)
	assert.Equal(t, fee.StatusNeverPaid, byID[never.ID].Status)
	assert.True(t, byID[never.ID].Due)
	assert.Equal(t, "Overdue (38 days)", byID[late.ID].Status)
	require.NotNil(t, byID[late.ID].LastPaymentDate)
	assert.True(t, byID[late.ID].LastPaymentDate.Equal(testutil.Day("2024-02-01")))
}

func paymentIDs(payments []fee.Payment) []string {
	ids := make([]string, 0, len(payments))
	for _, p := range payments {
		ids = append(ids, p.ID)
	}
	return ids
}
