package fee

import (
	"fmt"
	"time"

	"github.com/trezcool/coaching/core"
	"github.com/trezcool/coaching/core/student"
)

// GracePeriodDays is the number of days a payment (or the join date) covers.
const GracePeriodDays = 30

const (
	StatusNewStudent = "New Student"
	StatusNeverPaid  = "Overdue (Never Paid)"
	StatusPaid       = "Paid"
)

// Evaluation is the derived fee state of a student on a given day.
type Evaluation struct {
	Due     bool      `json:"is_due"`
	Status  string    `json:"status"`
	DueDate time.Time `json:"due_date"`
}

// FeeStatus maps the evaluation to the cached student.FeeStatus flag:
// only a payment still inside its grace window counts as Paid.
func (ev Evaluation) FeeStatus() student.FeeStatus {
	if !ev.Due && ev.Status == StatusPaid {
		return student.FeeStatusPaid
	}
	return student.FeeStatusPending
}

func overdueStatus(days int) string {
	return fmt.Sprintf("Overdue (%d days)", days)
}

// Evaluate computes whether std's fee is due on `today`, from its join date and its payments.
// Payments of other students are ignored. It never fails: a join date after `today` is treated as a new student.
func Evaluate(std student.Student, payments []Payment, today time.Time) Evaluation {
	joinDate := core.Date(std.JoinDate)
	if core.DaysBetween(joinDate, today) <= GracePeriodDays {
		return Evaluation{Status: StatusNewStudent, DueDate: dueFrom(joinDate)}
	}

	last, ok := lastPayment(std.ID, payments)
	if !ok {
		return Evaluation{Due: true, Status: StatusNeverPaid, DueDate: dueFrom(joinDate)}
	}

	paidOn := core.Date(last.Date)
	if days := core.DaysBetween(paidOn, today); days > GracePeriodDays {
		return Evaluation{Due: true, Status: overdueStatus(days), DueDate: dueFrom(paidOn)}
	}
	return Evaluation{Status: StatusPaid, DueDate: dueFrom(paidOn)}
}

func dueFrom(d time.Time) time.Time {
	return d.AddDate(0, 0, GracePeriodDays)
}

// lastPayment returns the most recent payment of the student; ties on date keep the first one seen.
func lastPayment(studentID string, payments []Payment) (Payment, bool) {
	var (
		last  Payment
		found bool
	)
	for _, p := range payments {
		if p.StudentID != "" && studentID != "" && p.StudentID != studentID {
			continue
		}
		if !found || p.Date.After(last.Date) {
			last = p
			found = true
		}
	}
	return last, found
}
