package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/teacher"
)

const teacherColumns = `id, church_id, login_id, name, email, is_admin, is_active, password_hash, created_at, updated_at, last_login`

var teacherOrdering = map[string]string{
	"name":       "name",
	"login_id":   "login_id",
	"email":      "email",
	"is_admin":   "is_admin",
	"is_active":  "is_active",
	"created_at": "created_at",
	"last_login": "last_login",
}

type teacherRow struct {
	ID           string      `db:"id"`
	ChurchID     string      `db:"church_id"`
	LoginID      string      `db:"login_id"`
	Name         string      `db:"name"`
	Email        null.String `db:"email"`
	IsAdmin      bool        `db:"is_admin"`
	IsActive     bool        `db:"is_active"`
	PasswordHash []byte      `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

func toTeacherRow(t teacher.Teacher) teacherRow {
	row := teacherRow{
		ID:           t.ID,
		ChurchID:     t.ChurchID,
		LoginID:      t.LoginID,
		Name:         t.Name,
		Email:        null.NewString(t.Email, t.Email != ""),
		IsAdmin:      t.IsAdmin,
		IsActive:     t.IsActive,
		PasswordHash: t.PasswordHash,
		CreatedAt:    t.CreatedAt.UTC(),
		UpdatedAt:    t.UpdatedAt.UTC(),
	}
	if t.LastLogin != nil {
		row.LastLogin = null.TimeFrom(t.LastLogin.UTC())
	}
	return row
}

func (r teacherRow) teacher() teacher.Teacher {
	t := teacher.Teacher{
		ID:           r.ID,
		ChurchID:     r.ChurchID,
		LoginID:      r.LoginID,
		Name:         r.Name,
		Email:        r.Email.String,
		IsAdmin:      r.IsAdmin,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if r.LastLogin.Valid {
		ll := r.LastLogin.Time.UTC()
		t.LastLogin = &ll
	}
	return t
}

type teacherRepository struct {
	repo
}

var _ teacher.Repository = (*teacherRepository)(nil) // interface compliance check

func NewTeacherRepository(exec core.DBExecutor) *teacherRepository {
	return &teacherRepository{repo{exec: exec}}
}

func (tr teacherRepository) LoginIDExists(ctx context.Context, churchID, loginID string, exec ...core.DBExecutor) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, tr.getExec(exec), &exists,
		`SELECT EXISTS (SELECT 1 FROM teacher WHERE church_id = $1 AND login_id = $2)`, churchID, loginID)
	return exists, errors.Wrap(err, "checking teacher login ID")
}

func (tr teacherRepository) CreateTeacher(ctx context.Context, t teacher.Teacher, exec ...core.DBExecutor) (teacher.Teacher, error) {
	row := toTeacherRow(t)
	_, err := sqlx.NamedExecContext(ctx, tr.getExec(exec), `
		INSERT INTO teacher (`+teacherColumns+`)
		VALUES (:id, :church_id, :login_id, :name, :email, :is_admin, :is_active, :password_hash, :created_at, :updated_at, :last_login)`, row)
	if err != nil {
		return teacher.Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	return row.teacher(), nil
}

func (tr teacherRepository) QueryTeachers(ctx context.Context, churchID string, filter *teacher.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]teacher.Teacher, error) {
	w := &where{}
	w.add("church_id = ?", churchID)
	if filter != nil {
		// teachers with Name, LoginID or Email matching the search keyword
		if filter.Search != "" {
			val := likePattern(filter.Search)
			w.add("(name ILIKE ? OR login_id ILIKE ? OR email ILIKE ?)", val, val, val)
		}
		if filter.IsActive != nil {
			w.add("is_active = ?", *filter.IsActive)
		}
		if filter.IsAdmin != nil {
			w.add("is_admin = ?", *filter.IsAdmin)
		}
	}

	var rows []teacherRow
	q := `SELECT ` + teacherColumns + ` FROM teacher` + w.String() + orderBy(ordering, teacherOrdering, "name ASC")
	if err := selectIn(ctx, tr.getExec(exec), &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	teachers := make([]teacher.Teacher, 0, len(rows))
	for _, r := range rows {
		teachers = append(teachers, r.teacher())
	}
	return teachers, nil
}

func (tr teacherRepository) getBy(ctx context.Context, exec []core.DBExecutor, cond string, args ...interface{}) (teacher.Teacher, error) {
	var row teacherRow
	if err := sqlx.GetContext(ctx, tr.getExec(exec), &row, `SELECT `+teacherColumns+` FROM teacher WHERE `+cond, args...); err != nil {
		return teacher.Teacher{}, trapNoRowsErr(err, teacher.ErrNotFound, "finding teacher")
	}
	return row.teacher(), nil
}

func (tr teacherRepository) GetTeacherByID(ctx context.Context, churchID, id string, exec ...core.DBExecutor) (teacher.Teacher, error) {
	if !validUUIDs(churchID, id) {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	return tr.getBy(ctx, exec, "church_id = $1 AND id = $2", churchID, id)
}

func (tr teacherRepository) GetTeacherByLoginID(ctx context.Context, churchID, loginID string, exec ...core.DBExecutor) (teacher.Teacher, error) {
	return tr.getBy(ctx, exec, "church_id = $1 AND login_id = $2", churchID, loginID)
}

func (tr teacherRepository) GetTeacherByEmail(ctx context.Context, churchID, email string, exec ...core.DBExecutor) (teacher.Teacher, error) {
	if email == "" {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	return tr.getBy(ctx, exec, "church_id = $1 AND email = $2 ORDER BY created_at LIMIT 1", churchID, email)
}

func (tr teacherRepository) UpdateTeacher(ctx context.Context, t teacher.Teacher, exec ...core.DBExecutor) (teacher.Teacher, error) {
	row := toTeacherRow(t)
	set := "name = :name, email = :email, is_admin = :is_admin, is_active = :is_active, updated_at = :updated_at"
	if t.PasswordHash != nil {
		set += ", password_hash = :password_hash"
	}
	stmt, args, err := sqlx.Named(`UPDATE teacher SET `+set+` WHERE church_id = :church_id AND id = :id RETURNING `+teacherColumns, row)
	if err != nil {
		return teacher.Teacher{}, errors.Wrap(err, "binding teacher update")
	}

	var out teacherRow
	exe := tr.getExec(exec)
	if err = sqlx.GetContext(ctx, exe, &out, exe.Rebind(stmt), args...); err != nil {
		return teacher.Teacher{}, trapNoRowsErr(err, teacher.ErrNotFound, "updating teacher")
	}
	return out.teacher(), nil
}

func (tr teacherRepository) SetLastLogin(ctx context.Context, churchID, id string, at time.Time, exec ...core.DBExecutor) error {
	res, err := tr.getExec(exec).ExecContext(ctx,
		`UPDATE teacher SET last_login = $3 WHERE church_id = $1 AND id = $2`, churchID, id, at.UTC())
	if err != nil {
		return errors.Wrap(err, "setting last login")
	}
	return mustAffect(res, teacher.ErrNotFound)
}

func (tr teacherRepository) DeleteTeacher(ctx context.Context, churchID, id string, exec ...core.DBExecutor) error {
	if !validUUIDs(churchID, id) {
		return teacher.ErrNotFound
	}
	res, err := tr.getExec(exec).ExecContext(ctx, `DELETE FROM teacher WHERE church_id = $1 AND id = $2`, churchID, id)
	if err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return mustAffect(res, teacher.ErrNotFound)
}
