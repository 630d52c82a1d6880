package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) GetRecord(ctx context.Context, churchID, studentID string, date core.Date, exec ...core.DBExecutor) (attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	for _, r := range repo.db.attendance {
		if r.ChurchID == churchID && r.StudentID == studentID && r.Date.Equal(date) {
			return *r, nil
		}
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) CreateRecord(ctx context.Context, r attendance.Record, exec ...core.DBExecutor) (attendance.Record, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	if s, ok := repo.db.students[r.StudentID]; !ok || s.ChurchID != r.ChurchID {
		return attendance.Record{}, attendance.ErrStudentNotFound
	}
	repo.db.attendance[r.ID] = &r
	return r, nil
}

func (repo *attendanceRepository) UpdateRecord(ctx context.Context, r attendance.Record, exec ...core.DBExecutor) (attendance.Record, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	orig, ok := repo.db.attendance[r.ID]
	if !ok || orig.ChurchID != r.ChurchID {
		return attendance.Record{}, attendance.ErrNotFound
	}
	orig.Present = r.Present
	orig.Recited = r.Recited
	orig.TeacherID = r.TeacherID
	orig.UpdatedAt = r.UpdatedAt
	return *orig, nil
}

func (repo *attendanceRepository) QueryRecordsByDate(ctx context.Context, churchID string, date core.Date, exec ...core.DBExecutor) ([]attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	records := make([]attendance.Record, 0)
	for _, r := range repo.db.attendance {
		if r.ChurchID == churchID && r.Date.Equal(date) {
			records = append(records, *r)
		}
	}
	return records, nil
}

func (repo *attendanceRepository) QueryStudentRecords(ctx context.Context, churchID, studentID string, from, to core.Date, exec ...core.DBExecutor) ([]attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	records := make([]attendance.Record, 0)
	for _, r := range repo.db.attendance {
		if r.ChurchID != churchID || r.StudentID != studentID {
			continue
		}
		if !from.IsZero() && r.Date.Before(from) {
			continue
		}
		if !to.IsZero() && r.Date.After(to) {
			continue
		}
		records = append(records, *r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date.After(records[j].Date) })
	return records, nil
}
