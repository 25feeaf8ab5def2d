// Package inmemdb implements the repositories in memory; used by tests & debug runs without Postgres.
package inmemdb

import (
	"sync"

	"github.com/trezcool/coaching/core/fee"
	"github.com/trezcool/coaching/core/notification"
	"github.com/trezcool/coaching/core/student"
)

type (
	DB struct {
		student *studentTable
		payment *paymentTable
		token   *tokenTable
	}

	studentTable struct {
		mutex sync.RWMutex
		table map[string]*student.Student
	}

	paymentTable struct {
		mutex sync.RWMutex
		rows  []fee.Payment // insertion order
	}

	tokenTable struct {
		mutex sync.RWMutex
		rows  []*notification.DeviceToken // insertion order
	}
)

func Open() *DB {
	return &DB{
		student: &studentTable{table: make(map[string]*student.Student)},
		payment: &paymentTable{},
		token:   &tokenTable{},
	}
}
