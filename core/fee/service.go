package fee

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/coaching/core"
	"github.com/trezcool/coaching/core/student"
)

var (
	// errors
	ErrPaymentNotFound = errors.New("payment not found")
)

type (
	// Repository is the payment ledger; payments are never updated nor deleted.
	Repository interface {
		CreatePayment(ctx context.Context, p Payment) (Payment, error)
		GetPayment(ctx context.Context, id string) (Payment, error)
		// QueryPayments returns payments newest first.
		QueryPayments(ctx context.Context, filter *PaymentFilter) ([]Payment, error)
		// LastPayment returns ErrPaymentNotFound when the student never paid.
		LastPayment(ctx context.Context, studentID string) (Payment, error)
		// LastPaymentDates maps student IDs to the date of their latest payment.
		LastPaymentDates(ctx context.Context) (map[string]time.Time, error)
	}

	Service interface {
		RecordPayment(ctx context.Context, np NewPayment) (Payment, error)
		GetPayment(ctx context.Context, id string) (Payment, error)
		ListPayments(ctx context.Context, filter *PaymentFilter) ([]Payment, error)
		// Refresh evaluates the student and updates its cached fee status when stale.
		Refresh(ctx context.Context, std student.Student, today time.Time) (Evaluation, error)
		Overview(ctx context.Context, today time.Time) ([]StudentFeeStatus, error)
	}

	service struct {
		repo    Repository
		stdSvc  student.Service
		mailSvc core.EmailService
		logger  core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, stdSvc student.Service, mailSvc core.EmailService, logger core.Logger) Service {
	return &service{
		repo:    repo,
		stdSvc:  stdSvc,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

func (svc *service) RecordPayment(ctx context.Context, np NewPayment) (Payment, error) {
	std, err := svc.stdSvc.Get(ctx, np.StudentID)
	if err != nil {
		return Payment{}, errors.Wrap(err, "finding student")
	}
	amount, err := ParseAmount(np.Amount)
	if err != nil || amount <= 0 {
		return Payment{}, core.NewValidationError(errInvalidAmount, core.FieldError{Field: "amount", Error: errInvalidAmount.Error()})
	}
	date := core.Today()
	if np.Date != "" {
		if date, err = core.ParseDate(np.Date); err != nil {
			return Payment{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: "invalid date, expected YYYY-MM-DD"})
		}
	}

	p, err := svc.repo.CreatePayment(ctx, Payment{
		ID:            uuid.New().String(),
		StudentID:     std.ID,
		Amount:        amount,
		Date:          date,
		TransactionID: np.TransactionID,
		Remarks:       np.Remarks,
		CreatedAt:     core.NowFunc().UTC(),
	})
	if err != nil {
		return Payment{}, errors.Wrap(err, "creating payment")
	}

	// the payment is recorded: cache refresh & receipt failures are only logged
	ev, err := svc.Refresh(ctx, std, core.Today())
	if err != nil {
		svc.logger.Error(fmt.Sprintf("refreshing fee status: %v", err), err)
	}
	svc.sendReceipt(std, p, ev)
	return p, nil
}

func (svc *service) GetPayment(ctx context.Context, id string) (Payment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Payment{}, ErrPaymentNotFound
	}
	return svc.repo.GetPayment(ctx, id)
}

func (svc *service) ListPayments(ctx context.Context, filter *PaymentFilter) ([]Payment, error) {
	return svc.repo.QueryPayments(ctx, filter)
}

func (svc *service) Refresh(ctx context.Context, std student.Student, today time.Time) (Evaluation, error) {
	var payments []Payment
	last, err := svc.repo.LastPayment(ctx, std.ID)
	switch errors.Cause(err) {
	case nil:
		payments = []Payment{last}
	case ErrPaymentNotFound:
	default:
		return Evaluation{}, errors.Wrap(err, "finding last payment")
	}

	ev := Evaluate(std, payments, today)
	if status := ev.FeeStatus(); status != std.FeeStatus {
		if err = svc.stdSvc.SetFeeStatus(ctx, std.ID, status); err != nil {
			return ev, errors.Wrap(err, "updating fee status")
		}
	}
	return ev, nil
}

func (svc *service) Overview(ctx context.Context, today time.Time) ([]StudentFeeStatus, error) {
	students, err := svc.stdSvc.Query(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	lastDates, err := svc.repo.LastPaymentDates(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying last payment dates")
	}

	rows := make([]StudentFeeStatus, 0, len(students))
	for _, std := range students {
		row := StudentFeeStatus{Student: std}
		var payments []Payment
		if d, ok := lastDates[std.ID]; ok {
			d := d
			row.LastPaymentDate = &d
			payments = []Payment{{StudentID: std.ID, Date: d}}
		}
		row.Evaluation = Evaluate(std, payments, today)
		rows = append(rows, row)
	}
	return rows, nil
}

type receiptData struct {
	StudentName   string
	ReceiptNo     string
	Amount        string
	Date          string
	TransactionID string
	Remarks       string
	NextDueDate   string
}

func (svc *service) sendReceipt(std student.Student, p Payment, ev Evaluation) {
	if std.Email == "" || svc.mailSvc == nil {
		return
	}
	nextDue := ev.DueDate
	if nextDue.IsZero() {
		nextDue = dueFrom(p.Date)
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: std.Name, Address: std.Email}},
		Subject:      "Fee payment receipt",
		TemplateName: "payment_receipt",
		TemplateData: receiptData{
			StudentName:   std.Name,
			ReceiptNo:     p.ID,
			Amount:        p.Amount.String(),
			Date:          p.Date.Format(core.DateLayout),
			TransactionID: p.TransactionID,
			Remarks:       p.Remarks,
			NextDueDate:   nextDue.Format(core.DateLayout),
		},
	})
}
