package student

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coaching/core"
)

type FeeStatus string

const (
	FeeStatusPaid    FeeStatus = "Paid"
	FeeStatusPending FeeStatus = "Pending"
)

func (s FeeStatus) IsValid() bool { return s == FeeStatusPaid || s == FeeStatusPending }

// Student is a registered student profile.
// FeeStatus is a cached flag; the source of truth is derived from JoinDate and the payment ledger.
type Student struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	BatchID   string    `json:"batch_id,omitempty"`
	JoinDate  time.Time `json:"join_date"` // calendar date, UTC midnight
	FeeStatus FeeStatus `json:"fee_status"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewStudent contains information needed to register a new Student.
type NewStudent struct {
	UserID   string `json:"user_id" validate:"required,notblank,max=64"`
	Name     string `json:"name" validate:"required,notblank,max=255"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,max=15"`
	BatchID  string `json:"batch_id" validate:"omitempty,max=64"`
	JoinDate string `json:"join_date" validate:"omitempty,date"` // YYYY-MM-DD; defaults to today
}

func (ns *NewStudent) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	ns.UserID = core.CleanString(ns.UserID)
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Phone = core.CleanString(ns.Phone)
	ns.BatchID = core.CleanString(ns.BatchID)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, ns.UserID)
}

type GetFilter struct {
	ID     string
	UserID string
}

type QueryFilter struct {
	BatchIDs  []string  `query:"batch"`
	FeeStatus FeeStatus `query:"fee_status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf == nil || (len(qf.BatchIDs) == 0 && qf.FeeStatus == "")
}
