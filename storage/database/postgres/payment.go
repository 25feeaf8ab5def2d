package pgrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/coaching/core/fee"
)

type paymentRow struct {
	ID            string      `db:"id"`
	StudentID     string      `db:"student_id"`
	Amount        int64       `db:"amount"`
	Date          time.Time   `db:"date"`
	TransactionID null.String `db:"transaction_id"`
	Remarks       null.String `db:"remarks"`
	CreatedAt     time.Time   `db:"created_at"`
}

func (r paymentRow) toPayment() fee.Payment {
	return fee.Payment{
		ID:            r.ID,
		StudentID:     r.StudentID,
		Amount:        fee.Amount(r.Amount),
		Date:          r.Date.UTC(),
		TransactionID: r.TransactionID.String,
		Remarks:       r.Remarks.String,
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

const paymentColumns = `"id", "student_id", "amount", "date", "transaction_id", "remarks", "created_at"`

// newest first; same-day payments by recording order
const paymentOrdering = ` ORDER BY "date" DESC, "created_at" DESC`

type paymentRepository struct {
	db *sqlx.DB
}

var _ fee.Repository = (*paymentRepository)(nil)

func NewPaymentRepository(db *sqlx.DB) *paymentRepository {
	return &paymentRepository{db: db}
}

func (repo *paymentRepository) CreatePayment(ctx context.Context, p fee.Payment) (fee.Payment, error) {
	q := `INSERT INTO "fee_payment" (` + paymentColumns + `)
		VALUES (:id, :student_id, :amount, :date, :transaction_id, :remarks, :created_at)`
	row := paymentRow{
		ID:            p.ID,
		StudentID:     p.StudentID,
		Amount:        int64(p.Amount),
		Date:          p.Date,
		TransactionID: nullString(p.TransactionID),
		Remarks:       nullString(p.Remarks),
		CreatedAt:     p.CreatedAt,
	}
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return fee.Payment{}, wrapErr(err, "inserting payment")
	}
	return row.toPayment(), nil
}

func (repo *paymentRepository) GetPayment(ctx context.Context, id string) (fee.Payment, error) {
	var row paymentRow
	err := repo.db.GetContext(ctx, &row, `SELECT `+paymentColumns+` FROM "fee_payment" WHERE "id" = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.Is(err, sql.ErrNoRows) || (errors.As(err, &pqErr) && pqErr.Code == invalidTextRepresentation) {
			return fee.Payment{}, fee.ErrPaymentNotFound
		}
		return fee.Payment{}, wrapErr(err, "selecting payment")
	}
	return row.toPayment(), nil
}

func (repo *paymentRepository) QueryPayments(ctx context.Context, filter *fee.PaymentFilter) ([]fee.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM "fee_payment"`
	var args []interface{}
	if filter != nil && filter.StudentID != "" {
		q += ` WHERE "student_id" = $1`
		args = append(args, filter.StudentID)
	}
	q += paymentOrdering

	var rows []paymentRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, wrapErr(err, "selecting payments")
	}
	payments := make([]fee.Payment, 0, len(rows))
	for _, r := range rows {
		payments = append(payments, r.toPayment())
	}
	return payments, nil
}

func (repo *paymentRepository) LastPayment(ctx context.Context, studentID string) (fee.Payment, error) {
	var row paymentRow
	q := `SELECT ` + paymentColumns + ` FROM "fee_payment" WHERE "student_id" = $1` + paymentOrdering + ` LIMIT 1`
	if err := repo.db.GetContext(ctx, &row, q, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fee.Payment{}, fee.ErrPaymentNotFound
		}
		return fee.Payment{}, wrapErr(err, "selecting last payment")
	}
	return row.toPayment(), nil
}

func (repo *paymentRepository) LastPaymentDates(ctx context.Context) (map[string]time.Time, error) {
	var rows []struct {
		StudentID string    `db:"student_id"`
		Date      time.Time `db:"last_date"`
	}
	q := `SELECT "student_id", MAX("date") AS "last_date" FROM "fee_payment" GROUP BY "student_id"`
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, wrapErr(err, "selecting last payment dates")
	}
	dates := make(map[string]time.Time, len(rows))
	for _, r := range rows {
		dates[r.StudentID] = r.Date.UTC()
	}
	return dates, nil
}
