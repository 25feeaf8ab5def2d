package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/coaching/core/fee"
)

type paymentRepository struct {
	db *paymentTable
}

var _ fee.Repository = (*paymentRepository)(nil)

func NewPaymentRepository(db *DB) *paymentRepository {
	return &paymentRepository{db: db.payment}
}

func (repo *paymentRepository) CreatePayment(_ context.Context, p fee.Payment) (fee.Payment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.rows = append(repo.db.rows, p)
	return p, nil
}

func (repo *paymentRepository) GetPayment(_ context.Context, id string) (fee.Payment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, p := range repo.db.rows {
		if p.ID == id {
			return p, nil
		}
	}
	return fee.Payment{}, fee.ErrPaymentNotFound
}

// query returns the payments of studentID (all when empty), newest first.
func (repo *paymentRepository) query(studentID string) []fee.Payment {
	payments := make([]fee.Payment, 0)
	for i := len(repo.db.rows) - 1; i >= 0; i-- {
		if p := repo.db.rows[i]; studentID == "" || p.StudentID == studentID {
			payments = append(payments, p)
		}
	}
	sort.SliceStable(payments, func(i, j int) bool { return payments[i].Date.After(payments[j].Date) })
	return payments
}

func (repo *paymentRepository) QueryPayments(_ context.Context, filter *fee.PaymentFilter) ([]fee.Payment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var studentID string
	if filter != nil {
		studentID = filter.StudentID
	}
	return repo.query(studentID), nil
}

func (repo *paymentRepository) LastPayment(_ context.Context, studentID string) (fee.Payment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if payments := repo.query(studentID); studentID != "" && len(payments) > 0 {
		return payments[0], nil
	}
	return fee.Payment{}, fee.ErrPaymentNotFound
}

func (repo *paymentRepository) LastPaymentDates(_ context.Context) (map[string]time.Time, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	dates := make(map[string]time.Time)
	for _, p := range repo.db.rows {
		if d, ok := dates[p.StudentID]; !ok || p.Date.After(d) {
			dates[p.StudentID] = p.Date
		}
	}
	return dates, nil
}
