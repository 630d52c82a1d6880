package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/student"
)

const studentColumns = `id, church_id, team_id, name, code, grade, is_active, created_at, updated_at`

var studentOrdering = map[string]string{
	"name":       "name",
	"code":       "code",
	"grade":      "grade",
	"is_active":  "is_active",
	"created_at": "created_at",
	"id":         "id",
}

type studentRow struct {
	ID        string      `db:"id"`
	ChurchID  string      `db:"church_id"`
	TeamID    null.String `db:"team_id"`
	Name      string      `db:"name"`
	Code      string      `db:"code"`
	Grade     null.String `db:"grade"`
	IsActive  bool        `db:"is_active"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func toStudentRow(s student.Student) studentRow {
	return studentRow{
		ID:        s.ID,
		ChurchID:  s.ChurchID,
		TeamID:    null.StringFromPtr(s.TeamID),
		Name:      s.Name,
		Code:      s.Code,
		Grade:     null.NewString(s.Grade, s.Grade != ""),
		IsActive:  s.IsActive,
		CreatedAt: s.CreatedAt.UTC(),
		UpdatedAt: s.UpdatedAt.UTC(),
	}
}

func (r studentRow) student() student.Student {
	return student.Student{
		ID:        r.ID,
		ChurchID:  r.ChurchID,
		TeamID:    r.TeamID.Ptr(),
		Name:      r.Name,
		Code:      r.Code,
		Grade:     r.Grade.String,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func toStudents(rows []studentRow) []student.Student {
	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.student())
	}
	return students
}

type studentRepository struct {
	repo
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(exec core.DBExecutor) *studentRepository {
	return &studentRepository{repo{exec: exec}}
}

func (sr studentRepository) CodeExists(ctx context.Context, churchID, code string, exec ...core.DBExecutor) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, sr.getExec(exec), &exists,
		`SELECT EXISTS (SELECT 1 FROM student WHERE church_id = $1 AND code = $2)`, churchID, code)
	return exists, errors.Wrap(err, "checking student code")
}

func (sr studentRepository) TeamExists(ctx context.Context, churchID, teamID string, exec ...core.DBExecutor) (bool, error) {
	if !validUUIDs(teamID) {
		return false, nil
	}
	var exists bool
	err := sqlx.GetContext(ctx, sr.getExec(exec), &exists,
		`SELECT EXISTS (SELECT 1 FROM team WHERE church_id = $1 AND id = $2)`, churchID, teamID)
	return exists, errors.Wrap(err, "checking team")
}

func (sr studentRepository) CreateStudent(ctx context.Context, s student.Student, exec ...core.DBExecutor) (student.Student, error) {
	row := toStudentRow(s)
	_, err := sqlx.NamedExecContext(ctx, sr.getExec(exec), `
		INSERT INTO student (`+studentColumns+`)
		VALUES (:id, :church_id, :team_id, :name, :code, :grade, :is_active, :created_at, :updated_at)`, row)
	if err != nil {
		if isUniqueViolation(err, "") {
			return student.Student{}, student.ErrCodeExists
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return row.student(), nil
}

func (sr studentRepository) QueryStudents(ctx context.Context, churchID string, filter *student.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]student.Student, error) {
	w := &where{}
	w.add("church_id = ?", churchID)
	if filter != nil {
		if filter.Search != "" {
			w.add("name ILIKE ?", likePattern(filter.Search))
		}
		if filter.TeamID != "" {
			if !validUUIDs(filter.TeamID) {
				return []student.Student{}, nil
			}
			w.add("team_id = ?", filter.TeamID)
		}
		if filter.IsActive != nil {
			w.add("is_active = ?", *filter.IsActive)
		}
	}

	var rows []studentRow
	q := `SELECT ` + studentColumns + ` FROM student` + w.String() + orderBy(ordering, studentOrdering, "name ASC, id ASC")
	if err := selectIn(ctx, sr.getExec(exec), &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return toStudents(rows), nil
}

func (sr studentRepository) GetStudentByID(ctx context.Context, churchID, id string, exec ...core.DBExecutor) (student.Student, error) {
	if !validUUIDs(churchID, id) {
		return student.Student{}, student.ErrNotFound
	}
	var row studentRow
	err := sqlx.GetContext(ctx, sr.getExec(exec), &row,
		`SELECT `+studentColumns+` FROM student WHERE church_id = $1 AND id = $2`, churchID, id)
	if err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "finding student by ID")
	}
	return row.student(), nil
}

func (sr studentRepository) GetStudentByCode(ctx context.Context, churchID, code string, exec ...core.DBExecutor) (student.Student, error) {
	var row studentRow
	err := sqlx.GetContext(ctx, sr.getExec(exec), &row,
		`SELECT `+studentColumns+` FROM student WHERE church_id = $1 AND code = $2`, churchID, code)
	if err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "finding student by code")
	}
	return row.student(), nil
}

func (sr studentRepository) GetStudentsByIDs(ctx context.Context, churchID string, ids []string, exec ...core.DBExecutor) ([]student.Student, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validUUIDs(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return []student.Student{}, nil
	}

	var rows []studentRow
	q := `SELECT ` + studentColumns + ` FROM student WHERE church_id = ? AND id IN (?) ORDER BY name, id`
	if err := selectIn(ctx, sr.getExec(exec), &rows, q, churchID, valid); err != nil {
		return nil, errors.Wrap(err, "querying students by IDs")
	}
	return toStudents(rows), nil
}

func (sr studentRepository) UpdateStudent(ctx context.Context, s student.Student, exec ...core.DBExecutor) (student.Student, error) {
	row := toStudentRow(s)
	stmt, args, err := sqlx.Named(`
		UPDATE student
		SET team_id = :team_id, name = :name, grade = :grade, is_active = :is_active, updated_at = :updated_at
		WHERE church_id = :church_id AND id = :id
		RETURNING `+studentColumns, row)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "binding student update")
	}

	var out studentRow
	exe := sr.getExec(exec)
	if err = sqlx.GetContext(ctx, exe, &out, exe.Rebind(stmt), args...); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "updating student")
	}
	return out.student(), nil
}

func (sr studentRepository) SetStudentCode(ctx context.Context, churchID, id, code string, updatedAt time.Time, exec ...core.DBExecutor) (student.Student, error) {
	if !validUUIDs(churchID, id) {
		return student.Student{}, student.ErrNotFound
	}
	var row studentRow
	err := sqlx.GetContext(ctx, sr.getExec(exec), &row, `
		UPDATE student SET code = $3, updated_at = $4
		WHERE church_id = $1 AND id = $2
		RETURNING `+studentColumns,
		churchID, id, code, updatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err, "") {
			return student.Student{}, student.ErrCodeExists
		}
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "setting student code")
	}
	return row.student(), nil
}

// DeleteStudent relies on ON DELETE CASCADE for the records of the student.
func (sr studentRepository) DeleteStudent(ctx context.Context, churchID, id string, exec ...core.DBExecutor) error {
	if !validUUIDs(churchID, id) {
		return student.ErrNotFound
	}
	res, err := sr.getExec(exec).ExecContext(ctx, `DELETE FROM student WHERE church_id = $1 AND id = $2`, churchID, id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return mustAffect(res, student.ErrNotFound)
}
