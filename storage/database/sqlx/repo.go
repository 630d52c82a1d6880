package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/attendance"
	"github.com/trezcool/dalant/core/church"
	"github.com/trezcool/dalant/core/qt"
	"github.com/trezcool/dalant/core/quiz"
	"github.com/trezcool/dalant/core/student"
	"github.com/trezcool/dalant/core/talent"
	"github.com/trezcool/dalant/core/team"
	"github.com/trezcool/dalant/core/teacher"
)

// repo holds what every repository shares: the default executor.
type repo struct {
	exec core.DBExecutor
}

func (r repo) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return r.exec
}

// trapNoRowsErr maps psql "no rows" err to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// psql error codes
const (
	foreignKeyViolation pq.ErrorCode = "23503"
	uniqueViolation     pq.ErrorCode = "23505"
)

func hasErrCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}

// isUniqueViolation reports whether err is a psql unique_violation, optionally on the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// orderBy builds an ORDER BY clause from the orderings whose field is in columns ({field: column}).
// Unknown fields are ignored; fallback is used when nothing is left.
func orderBy(ordering []core.DBOrdering, columns map[string]string, fallback string) string {
	list := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		col, ok := columns[ord.Field]
		if !ok {
			continue
		}
		list = append(list, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(list) == 0 {
		return " ORDER BY " + fallback
	}
	return " ORDER BY " + strings.Join(list, ", ")
}

// where accumulates AND-ed conditions written with `?` placeholders.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// selectIn runs a query with `?` placeholders, expanding slice args, rebound for the executor's driver.
func selectIn(ctx context.Context, exec core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	q, qArgs, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	return sqlx.SelectContext(ctx, exec, dest, exec.Rebind(q), qArgs...)
}

func getIn(ctx context.Context, exec core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	q, qArgs, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	return sqlx.GetContext(ctx, exec, dest, exec.Rebind(q), qArgs...)
}

func execIn(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) (sql.Result, error) {
	q, qArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}
	return exec.ExecContext(ctx, exec.Rebind(q), qArgs...)
}

// forUpdate locks the selected rows when the query runs inside a caller's transaction.
func forUpdate(svcExec []core.DBExecutor) string {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return " FOR UPDATE"
	}
	return ""
}

// mustAffect returns notFound when res changed no row.
func mustAffect(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// validUUIDs reports whether every id parses as a UUID; psql rejects malformed ones with an error.
func validUUIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}

func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(search) + "%"
}

// Repositories groups every repository backed by the same database.
type Repositories struct {
	Churches   church.Repository
	Teachers   teacher.Repository
	Students   student.Repository
	Teams      team.Repository
	Talents    talent.Repository
	Attendance attendance.Repository
	QT         qt.Repository
	Quiz       quiz.Repository
}

func NewRepositories(exec core.DBExecutor) Repositories {
	return Repositories{
		Churches:   NewChurchRepository(exec),
		Teachers:   NewTeacherRepository(exec),
		Students:   NewStudentRepository(exec),
		Teams:      NewTeamRepository(exec),
		Talents:    NewTalentRepository(exec),
		Attendance: NewAttendanceRepository(exec),
		QT:         NewQTRepository(exec),
		Quiz:       NewQuizRepository(exec),
	}
}
