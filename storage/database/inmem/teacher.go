package inmemdb

import (
	"cmp"
	"context"
	"strings"
	"time"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/teacher"
)

var teacherOrdering = comparators[teacher.Teacher]{
	"name":       func(a, b teacher.Teacher) int { return cmp.Compare(a.Name, b.Name) },
	"login_id":   func(a, b teacher.Teacher) int { return cmp.Compare(a.LoginID, b.LoginID) },
	"email":      func(a, b teacher.Teacher) int { return cmp.Compare(a.Email, b.Email) },
	"is_admin":   func(a, b teacher.Teacher) int { return compareBool(a.IsAdmin, b.IsAdmin) },
	"is_active":  func(a, b teacher.Teacher) int { return compareBool(a.IsActive, b.IsActive) },
	"created_at": func(a, b teacher.Teacher) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"last_login": func(a, b teacher.Teacher) int {
		var at, bt time.Time
		if a.LastLogin != nil {
			at = *a.LastLogin
		}
		if b.LastLogin != nil {
			bt = *b.LastLogin
		}
		return at.Compare(bt)
	},
}

type teacherRepository struct {
	db *DB
}

var _ teacher.Repository = (*teacherRepository)(nil)

func NewTeacherRepository(db *DB) teacher.Repository {
	return &teacherRepository{db: db}
}

func (repo *teacherRepository) find(churchID string, match func(t *teacher.Teacher) bool) (teacher.Teacher, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	for _, t := range repo.db.teachers {
		if t.ChurchID == churchID && match(t) {
			return copyTeacher(*t), nil
		}
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func copyTeacher(t teacher.Teacher) teacher.Teacher {
	t.PasswordHash = append([]byte(nil), t.PasswordHash...)
	if t.LastLogin != nil {
		ll := *t.LastLogin
		t.LastLogin = &ll
	}
	return t
}

func (repo *teacherRepository) LoginIDExists(ctx context.Context, churchID, loginID string, exec ...core.DBExecutor) (bool, error) {
	_, err := repo.find(churchID, func(t *teacher.Teacher) bool { return t.LoginID == loginID })
	return err == nil, nil
}

func (repo *teacherRepository) CreateTeacher(ctx context.Context, t teacher.Teacher, exec ...core.DBExecutor) (teacher.Teacher, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	t = copyTeacher(t)
	repo.db.teachers[t.ID] = &t
	return copyTeacher(t), nil
}

func (repo *teacherRepository) QueryTeachers(ctx context.Context, churchID string, filter *teacher.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]teacher.Teacher, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	teachers := make([]teacher.Teacher, 0)
	for _, t := range repo.db.teachers {
		if t.ChurchID != churchID {
			continue
		}
		if filter != nil {
			if filter.Search != "" && !containsFold(filter.Search, t.Name, t.LoginID, t.Email) {
				continue
			}
			if filter.IsActive != nil && t.IsActive != *filter.IsActive {
				continue
			}
			if filter.IsAdmin != nil && t.IsAdmin != *filter.IsAdmin {
				continue
			}
		}
		teachers = append(teachers, copyTeacher(*t))
	}
	order(teachers, ordering, teacherOrdering, asc("name"))
	return teachers, nil
}

func (repo *teacherRepository) GetTeacherByID(ctx context.Context, churchID, id string, exec ...core.DBExecutor) (teacher.Teacher, error) {
	return repo.find(churchID, func(t *teacher.Teacher) bool { return t.ID == id })
}

func (repo *teacherRepository) GetTeacherByLoginID(ctx context.Context, churchID, loginID string, exec ...core.DBExecutor) (teacher.Teacher, error) {
	return repo.find(churchID, func(t *teacher.Teacher) bool { return t.LoginID == loginID })
}

func (repo *teacherRepository) GetTeacherByEmail(ctx context.Context, churchID, email string, exec ...core.DBExecutor) (teacher.Teacher, error) {
	if email == "" {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	return repo.find(churchID, func(t *teacher.Teacher) bool { return t.Email == email })
}

func (repo *teacherRepository) UpdateTeacher(ctx context.Context, t teacher.Teacher, exec ...core.DBExecutor) (teacher.Teacher, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.teachers[t.ID]
	if !ok || orig.ChurchID != t.ChurchID {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	// only save set password hashes
	if t.PasswordHash != nil {
		orig.PasswordHash = append([]byte(nil), t.PasswordHash...)
	}
	orig.Name = t.Name
	orig.Email = t.Email
	orig.IsAdmin = t.IsAdmin
	orig.IsActive = t.IsActive
	orig.UpdatedAt = t.UpdatedAt
	return copyTeacher(*orig), nil
}

func (repo *teacherRepository) SetLastLogin(ctx context.Context, churchID, id string, at time.Time, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	t, ok := repo.db.teachers[id]
	if !ok || t.ChurchID != churchID {
		return teacher.ErrNotFound
	}
	t.LastLogin = &at
	return nil
}

func (repo *teacherRepository) DeleteTeacher(ctx context.Context, churchID, id string, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	t, ok := repo.db.teachers[id]
	if !ok || t.ChurchID != churchID {
		return teacher.ErrNotFound
	}
	delete(repo.db.teachers, id)
	return nil
}

// containsFold reports whether any of values contains search, ignoring case.
func containsFold(search string, values ...string) bool {
	search = strings.ToLower(search)
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), search) {
			return true
		}
	}
	return false
}
