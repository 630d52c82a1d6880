package inmemdb

import (
	"cmp"
	"context"
	"time"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/student"
)

var studentOrdering = comparators[student.Student]{
	"name":       func(a, b student.Student) int { return cmp.Compare(a.Name, b.Name) },
	"code":       func(a, b student.Student) int { return cmp.Compare(a.Code, b.Code) },
	"grade":      func(a, b student.Student) int { return cmp.Compare(a.Grade, b.Grade) },
	"is_active":  func(a, b student.Student) int { return compareBool(a.IsActive, b.IsActive) },
	"created_at": func(a, b student.Student) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"id":         func(a, b student.Student) int { return cmp.Compare(a.ID, b.ID) },
}

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func copyStudent(s student.Student) student.Student {
	if s.TeamID != nil {
		tid := *s.TeamID
		s.TeamID = &tid
	}
	return s
}

func (repo *studentRepository) CodeExists(ctx context.Context, churchID, code string, exec ...core.DBExecutor) (bool, error) {
	_, err := repo.GetStudentByCode(ctx, churchID, code)
	return err == nil, nil
}

func (repo *studentRepository) TeamExists(ctx context.Context, churchID, teamID string, exec ...core.DBExecutor) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	t, ok := repo.db.teams[teamID]
	return ok && t.ChurchID == churchID, nil
}

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	for _, other := range repo.db.students {
		if other.ChurchID == s.ChurchID && other.Code == s.Code {
			return student.Student{}, student.ErrCodeExists
		}
	}
	s = copyStudent(s)
	repo.db.students[s.ID] = &s
	return copyStudent(s), nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, churchID string, filter *student.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	students := make([]student.Student, 0)
	for _, s := range repo.db.students {
		if s.ChurchID != churchID {
			continue
		}
		if filter != nil {
			if filter.Search != "" && !containsFold(filter.Search, s.Name) {
				continue
			}
			if filter.TeamID != "" && (s.TeamID == nil || *s.TeamID != filter.TeamID) {
				continue
			}
			if filter.IsActive != nil && s.IsActive != *filter.IsActive {
				continue
			}
		}
		students = append(students, copyStudent(*s))
	}
	order(students, ordering, studentOrdering, asc("name"), asc("id"))
	return students, nil
}

func (repo *studentRepository) get(churchID string, match func(s *student.Student) bool) (student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	for _, s := range repo.db.students {
		if s.ChurchID == churchID && match(s) {
			return copyStudent(*s), nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, churchID, id string, exec ...core.DBExecutor) (student.Student, error) {
	return repo.get(churchID, func(s *student.Student) bool { return s.ID == id })
}

func (repo *studentRepository) GetStudentByCode(ctx context.Context, churchID, code string, exec ...core.DBExecutor) (student.Student, error) {
	return repo.get(churchID, func(s *student.Student) bool { return s.Code == code })
}

func (repo *studentRepository) GetStudentsByIDs(ctx context.Context, churchID string, ids []string, exec ...core.DBExecutor) ([]student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	students := make([]student.Student, 0, len(ids))
	for _, id := range ids {
		if s, ok := repo.db.students[id]; ok && s.ChurchID == churchID {
			students = append(students, copyStudent(*s))
		}
	}
	order(students, nil, studentOrdering, asc("name"), asc("id"))
	return students, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, s student.Student, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	orig, ok := repo.db.students[s.ID]
	if !ok || orig.ChurchID != s.ChurchID {
		return student.Student{}, student.ErrNotFound
	}
	s = copyStudent(s)
	orig.TeamID = s.TeamID
	orig.Name = s.Name
	orig.Grade = s.Grade
	orig.IsActive = s.IsActive
	orig.UpdatedAt = s.UpdatedAt
	return copyStudent(*orig), nil
}

func (repo *studentRepository) SetStudentCode(ctx context.Context, churchID, id, code string, updatedAt time.Time, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	s, ok := repo.db.students[id]
	if !ok || s.ChurchID != churchID {
		return student.Student{}, student.ErrNotFound
	}
	for _, other := range repo.db.students {
		if other.ID != id && other.ChurchID == churchID && other.Code == code {
			return student.Student{}, student.ErrCodeExists
		}
	}
	s.Code = code
	s.UpdatedAt = updatedAt
	return copyStudent(*s), nil
}

// DeleteStudent also removes the records of the student.
func (repo *studentRepository) DeleteStudent(ctx context.Context, churchID, id string, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	s, ok := repo.db.students[id]
	if !ok || s.ChurchID != churchID {
		return student.ErrNotFound
	}
	delete(repo.db.students, id)
	for rid, r := range repo.db.attendance {
		if r.StudentID == id {
			delete(repo.db.attendance, rid)
		}
	}
	for sid, sub := range repo.db.submissions {
		if sub.StudentID == id {
			delete(repo.db.submissions, sid)
		}
	}
	entries := repo.db.entries[:0]
	for _, e := range repo.db.entries {
		if e.StudentID != id {
			entries = append(entries, e)
		}
	}
	repo.db.entries = entries
	return nil
}
