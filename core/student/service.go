package student

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/coaching/core"
)

var (
	// errors
	ErrNotFound   = errors.New("student not found")
	ErrUserExists = errors.New("a student profile already exists for this user")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, std Student) (Student, error)
		GetStudent(ctx context.Context, filter GetFilter) (Student, error)
		// QueryStudents applies AND operation on available QueryFilter fields; nil returns all students.
		QueryStudents(ctx context.Context, filter *QueryFilter) ([]Student, error)
		SetFeeStatus(ctx context.Context, id string, status FeeStatus, updatedAt time.Time) error
	}

	Service interface {
		CheckUniqueness(ctx context.Context, userID string) error
		Register(ctx context.Context, ns NewStudent) (Student, error)
		Get(ctx context.Context, id string) (Student, error)
		GetByUserID(ctx context.Context, userID string) (Student, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Student, error)
		SetFeeStatus(ctx context.Context, id string, status FeeStatus) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckUniqueness(ctx context.Context, userID string) error {
	_, err := svc.repo.GetStudent(ctx, GetFilter{UserID: userID})
	switch errors.Cause(err) {
	case nil:
		return core.NewValidationError(ErrUserExists, core.FieldError{Field: "user_id", Error: ErrUserExists.Error()})
	case ErrNotFound:
		return nil
	default:
		return errors.Wrap(err, "checking student uniqueness")
	}
}

func (svc *service) Register(ctx context.Context, ns NewStudent) (Student, error) {
	joinDate := core.Today()
	if ns.JoinDate != "" {
		d, err := core.ParseDate(ns.JoinDate)
		if err != nil {
			return Student{}, core.NewValidationError(err, core.FieldError{Field: "join_date", Error: "invalid date, expected YYYY-MM-DD"})
		}
		joinDate = d
	}

	now := core.NowFunc().UTC()
	std := Student{
		ID:        uuid.New().String(),
		UserID:    ns.UserID,
		Name:      ns.Name,
		Email:     ns.Email,
		Phone:     ns.Phone,
		BatchID:   ns.BatchID,
		JoinDate:  joinDate,
		FeeStatus: FeeStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	std, err := svc.repo.CreateStudent(ctx, std)
	return std, errors.Wrap(err, "creating student")
}

func (svc *service) Get(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, GetFilter{ID: id})
}

func (svc *service) GetByUserID(ctx context.Context, userID string) (Student, error) {
	return svc.repo.GetStudent(ctx, GetFilter{UserID: userID})
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, filter)
}

func (svc *service) SetFeeStatus(ctx context.Context, id string, status FeeStatus) error {
	if !status.IsValid() {
		return core.NewValidationError(nil, core.FieldError{Field: "fee_status", Error: "must be one of Paid or Pending"})
	}
	return svc.repo.SetFeeStatus(ctx, id, status, core.NowFunc().UTC())
}
