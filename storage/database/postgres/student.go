// Package pgrepos implements the repositories on Postgres with sqlx.
package pgrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/coaching/core/student"
)

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02" // eg. malformed uuid
)

type studentRow struct {
	ID        string      `db:"id"`
	UserID    string      `db:"user_id"`
	Name      string      `db:"name"`
	Email     null.String `db:"email"`
	Phone     null.String `db:"phone"`
	BatchID   null.String `db:"batch_id"`
	JoinDate  time.Time   `db:"join_date"`
	FeeStatus string      `db:"fee_status"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (r studentRow) toStudent() student.Student {
	return student.Student{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		Email:     r.Email.String,
		Phone:     r.Phone.String,
		BatchID:   r.BatchID.String,
		JoinDate:  r.JoinDate.UTC(),
		FeeStatus: student.FeeStatus(r.FeeStatus),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}

const studentColumns = `"id", "user_id", "name", "email", "phone", "batch_id", "join_date", "fee_status", "created_at", "updated_at"`

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	q := `INSERT INTO "student" (` + studentColumns + `)
		VALUES (:id, :user_id, :name, :email, :phone, :batch_id, :join_date, :fee_status, :created_at, :updated_at)`
	row := studentRow{
		ID:        std.ID,
		UserID:    std.UserID,
		Name:      std.Name,
		Email:     nullString(std.Email),
		Phone:     nullString(std.Phone),
		BatchID:   nullString(std.BatchID),
		JoinDate:  std.JoinDate,
		FeeStatus: string(std.FeeStatus),
		CreatedAt: std.CreatedAt,
		UpdatedAt: std.UpdatedAt,
	}
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return student.Student{}, student.ErrUserExists
		}
		return student.Student{}, wrapErr(err, "inserting student")
	}
	return row.toStudent(), nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, filter student.GetFilter) (student.Student, error) {
	var (
		where string
		arg   string
	)
	switch {
	case filter.ID != "":
		where, arg = `"id" = $1`, filter.ID
	case filter.UserID != "":
		where, arg = `"user_id" = $1`, filter.UserID
	default:
		return student.Student{}, student.ErrNotFound
	}

	var row studentRow
	err := repo.db.GetContext(ctx, &row, `SELECT `+studentColumns+` FROM "student" WHERE `+where, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return student.Student{}, student.ErrNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == invalidTextRepresentation {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, wrapErr(err, "selecting student")
	}
	return row.toStudent(), nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter) ([]student.Student, error) {
	var (
		conds []string
		args  []interface{}
	)
	if !filter.IsEmpty() {
		if len(filter.BatchIDs) > 0 {
			args = append(args, pq.Array(filter.BatchIDs))
			conds = append(conds, `"batch_id" = ANY($1)`)
		}
		if filter.FeeStatus != "" {
			args = append(args, string(filter.FeeStatus))
			conds = append(conds, `"fee_status" = $`+strconv.Itoa(len(args)))
		}
	}

	q := `SELECT ` + studentColumns + ` FROM "student"`
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY "name", "id"`

	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, wrapErr(err, "selecting students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.toStudent())
	}
	return students, nil
}

func (repo *studentRepository) SetFeeStatus(ctx context.Context, id string, status student.FeeStatus, updatedAt time.Time) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE "student" SET "fee_status" = $1, "updated_at" = $2 WHERE "id" = $3`,
		string(status), updatedAt, id)
	if err != nil {
		return wrapErr(err, "updating student fee status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr(err, "updating student fee status")
	}
	if n == 0 {
		return student.ErrNotFound
	}
	return nil
}
