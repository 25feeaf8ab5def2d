package fee

import (
	"math"
	"testing"
	"time"

	"github.com/trezcool/coaching/core/student"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestEvaluate(t *testing.T) {
	std := student.Student{ID: "std-1", JoinDate: day("2024-01-01")}
	paidFeb1 := []Payment{{StudentID: "std-1", Date: day("2024-02-01")}}

	tests := []struct {
		name     string
		std      student.Student
		payments []Payment
		today    time.Time
		want     Evaluation
	}{
		{
			name:  "joined today",
			std:   std,
			today: day("2024-01-01"),
			want:  Evaluation{Status: StatusNewStudent, DueDate: day("2024-01-31")},
		},
		{
			name:  "grace period boundary",
			std:   std,
			today: day("2024-01-31"),
			want:  Evaluation{Status: StatusNewStudent, DueDate: day("2024-01-31")},
		},
		{
			name:     "new student regardless of payments",
			std:      std,
			payments: []Payment{{StudentID: "std-1", Date: day("2023-06-01")}},
			today:    day("2024-01-20"),
			want:     Evaluation{Status: StatusNewStudent, DueDate: day("2024-01-31")},
		},
		{
			name:  "join date in the future",
			std:   std,
			today: day("2023-12-01"),
			want:  Evaluation{Status: StatusNewStudent, DueDate: day("2024-01-31")},
		},
		{
			name:  "never paid",
			std:   std,
			today: day("2024-02-05"),
			want:  Evaluation{Due: true, Status: StatusNeverPaid, DueDate: day("2024-01-31")},
		},
		{
			name:     "paid 19 days ago",
			std:      std,
			payments: paidFeb1,
			today:    day("2024-02-20"),
			want:     Evaluation{Status: StatusPaid, DueDate: day("2024-03-02")},
		},
		{
			name:     "paid exactly 30 days ago",
			std:      std,
			payments: paidFeb1,
			today:    day("2024-03-02"),
			want:     Evaluation{Status: StatusPaid, DueDate: day("2024-03-02")},
		},
		{
			name:     "paid 31 days ago",
			std:      std,
			payments: paidFeb1,
			today:    day("2024-03-03"),
			want:     Evaluation{Due: true, Status: "Overdue (31 days)", DueDate: day("2024-03-02")},
		},
		{
			name:     "paid 38 days ago",
			std:      std,
			payments: paidFeb1,
			today:    day("2024-03-10"),
			want:     Evaluation{Due: true, Status: "Overdue (38 days)", DueDate: day("2024-03-02")},
		},
		{
			name: "latest payment wins",
			std:  std,
			payments: []Payment{
				{StudentID: "std-1", Date: day("2024-02-01")},
				{StudentID: "std-1", Date: day("2024-03-01")},
				{StudentID: "std-1", Date: day("2024-01-15")},
			},
			today: day("2024-03-10"),
			want:  Evaluation{Status: StatusPaid, DueDate: day("2024-03-31")},
		},
		{
			name: "other students' payments are ignored",
			std:  std,
			payments: []Payment{
				{StudentID: "std-2", Date: day("2024-03-01")},
			},
			today: day("2024-03-10"),
			want:  Evaluation{Due: true, Status: StatusNeverPaid, DueDate: day("2024-01-31")},
		},
		{
			name:     "time of day is ignored",
			std:      student.Student{ID: "std-1", JoinDate: day("2024-01-01").Add(23 * time.Hour)},
			payments: []Payment{{StudentID: "std-1", Date: day("2024-02-01").Add(22 * time.Hour)}},
			today:    day("2024-03-02").Add(time.Hour),
			want:     Evaluation{Status: StatusPaid, DueDate: day("2024-03-02")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.std, tt.payments, tt.today)
			if got.Due != tt.want.Due || got.Status != tt.want.Status || !got.DueDate.Equal(tt.want.DueDate) {
				t.Errorf("Evaluate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_overdueDayCount(t *testing.T) {
	std := student.Student{ID: "std-1", JoinDate: day("2023-01-01")}
	paidOn := day("2024-01-01")
	payments := []Payment{{StudentID: "std-1", Date: paidOn}}

	for days := 31; days <= 400; days++ {
		ev := Evaluate(std, payments, paidOn.AddDate(0, 0, days))
		if !ev.Due || ev.Status != overdueStatus(days) {
			t.Fatalf("Evaluate() after %d days = %+v", days, ev)
		}
	}
}

func TestEvaluation_FeeStatus(t *testing.T) {
	tests := []struct {
		ev   Evaluation
		want student.FeeStatus
	}{
		{ev: Evaluation{Status: StatusPaid}, want: student.FeeStatusPaid},
		{ev: Evaluation{Status: StatusNewStudent}, want: student.FeeStatusPending},
		{ev: Evaluation{Due: true, Status: StatusNeverPaid}, want: student.FeeStatusPending},
		{ev: Evaluation{Due: true, Status: overdueStatus(40)}, want: student.FeeStatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.ev.Status, func(t *testing.T) {
			if got := tt.ev.FeeStatus(); got != tt.want {
				t.Errorf("FeeStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    Amount
		wantErr bool
	}{
		{in: "1500", want: 150000},
		{in: "1500.5", want: 150050},
		{in: "1500.50", want: 150050},
		{in: " 0.07 ", want: 7},
		{in: "-2.10", want: -210},
		{in: "", wantErr: true},
		{in: "1.234", wantErr: true},
		{in: ".50", wantErr: true},
		{in: "12a", wantErr: true},
		{in: "1.-5", wantErr: true},
		{in: "--5", wantErr: true},
		{in: "92233720368547758.07", want: Amount(math.MaxInt64)},
		{in: "92233720368547758.08", wantErr: true},
		{in: "200000000000000000", wantErr: true},
		{in: "-200000000000000000", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAmount() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseAmount() = %d, want %d", got, tt.want)
			}
			if !tt.wantErr && got > 0 {
				if back, _ := ParseAmount(got.String()); back != got {
					t.Errorf("ParseAmount(%q) = %d, want %d", got.String(), back, got)
				}
			}
		})
	}
}
