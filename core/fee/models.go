package fee

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/coaching/core"
	"github.com/trezcool/coaching/core/student"
)

// Payment is an entry of the append-only payment ledger.
type Payment struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"student_id"`
	Amount        Amount    `json:"amount"`
	Date          time.Time `json:"date"` // calendar date, UTC midnight
	TransactionID string    `json:"transaction_id,omitempty"`
	Remarks       string    `json:"remarks,omitempty"`
	CreatedAt     time.Time `json:"created_at"` // UTC
}

// Amount is a money amount in minor units (eg. cents).
type Amount int64

func (a Amount) String() string {
	sign := ""
	if a < 0 {
		sign = "-"
		a = -a
	}
	return fmt.Sprintf("%s%d.%02d", sign, a/100, a%100)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(a.String())), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	amt, err := ParseAmount(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*a = amt
	return nil
}

var errInvalidAmount = errors.New("invalid amount")

// ParseAmount parses a decimal amount with at most 2 decimal places ("1500", "1500.5", "1500.50").
func ParseAmount(s string) (Amount, error) {
	s = core.CleanString(s)
	if s == "" {
		return 0, errInvalidAmount
	}
	units, cents := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		units, cents = s[:i], s[i+1:]
	}
	if len(cents) > 2 || units == "" {
		return 0, errInvalidAmount
	}
	for len(cents) < 2 {
		cents += "0"
	}
	neg := strings.HasPrefix(units, "-")
	u, err := strconv.ParseInt(strings.TrimPrefix(units, "-"), 10, 64)
	if err != nil || u < 0 {
		return 0, errInvalidAmount
	}
	c, err := strconv.ParseInt(cents, 10, 64)
	if err != nil || c < 0 {
		return 0, errInvalidAmount
	}
	if u > (math.MaxInt64-c)/100 {
		return 0, errInvalidAmount
	}
	amt := u*100 + c
	if neg {
		amt = -amt
	}
	return Amount(amt), nil
}

// NewPayment contains information needed to record a Payment.
type NewPayment struct {
	StudentID     string `json:"student_id" validate:"required,uuid"`
	Amount        string `json:"amount" validate:"required,amount"`
	Date          string `json:"date" validate:"omitempty,date"` // YYYY-MM-DD; defaults to today
	TransactionID string `json:"transaction_id" validate:"omitempty,max=100"`
	Remarks       string `json:"remarks"`
}

func (np *NewPayment) Validate(ctx context.Context, validate *validator.Validate, stdSvc student.Service) error {
	np.StudentID = core.CleanString(np.StudentID, true /* lower */)
	np.Amount = core.CleanString(np.Amount)
	np.TransactionID = core.CleanString(np.TransactionID)
	np.Remarks = core.CleanString(np.Remarks)

	if err := validate.Struct(np); err != nil {
		return err
	}
	if _, err := stdSvc.Get(ctx, np.StudentID); err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
		}
		return errors.Wrap(err, "finding student")
	}
	return nil
}

type PaymentFilter struct {
	StudentID string
}

// StudentFeeStatus is one row of the fee overview.
type StudentFeeStatus struct {
	Student         student.Student `json:"student"`
	LastPaymentDate *time.Time      `json:"last_payment_date"`
	Evaluation
}
