package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/coaching/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) CreateStudent(_ context.Context, std student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, s := range repo.db.table {
		if s.UserID == std.UserID {
			return student.Student{}, student.ErrUserExists
		}
	}
	repo.db.table[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, filter student.GetFilter) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != "" {
		if std, ok := repo.db.table[filter.ID]; ok {
			return *std, nil
		}
		return student.Student{}, student.ErrNotFound
	}
	if filter.UserID != "" {
		for _, std := range repo.db.table {
			if std.UserID == filter.UserID {
				return *std, nil
			}
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter *student.QueryFilter) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var batches map[string]bool
	if !filter.IsEmpty() && len(filter.BatchIDs) > 0 {
		batches = make(map[string]bool, len(filter.BatchIDs))
		for _, id := range filter.BatchIDs {
			batches[id] = true
		}
	}

	students := make([]student.Student, 0, len(repo.db.table))
	for _, std := range repo.db.table {
		if batches != nil && !batches[std.BatchID] {
			continue
		}
		if filter != nil && filter.FeeStatus != "" && std.FeeStatus != filter.FeeStatus {
			continue
		}
		students = append(students, *std)
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].Name != students[j].Name {
			return students[i].Name < students[j].Name
		}
		return students[i].ID < students[j].ID
	})
	return students, nil
}

func (repo *studentRepository) SetFeeStatus(_ context.Context, id string, status student.FeeStatus, updatedAt time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	std, ok := repo.db.table[id]
	if !ok {
		return student.ErrNotFound
	}
	std.FeeStatus = status
	std.UpdatedAt = updatedAt
	return nil
}
