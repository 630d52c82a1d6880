package inmemdb

import (
	"context"
	"sort"
	"sync"

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

// DB is a thread-safe in-memory database.
// WithinTx serializes transactions but has no rollback: writes done before a failing step are kept.
type DB struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	churches    map[string]*church.Church
	teachers    map[string]*teacher.Teacher
	students    map[string]*student.Student
	teams       map[string]*team.Team
	attendance  map[string]*attendance.Record
	submissions map[string]*qt.Submission
	questions   map[string]*quiz.Question
	entries     []talent.Entry
}

var _ core.Transactor = (*DB)(nil)

func Open() *DB {
	return &DB{
		churches:    make(map[string]*church.Church),
		teachers:    make(map[string]*teacher.Teacher),
		students:    make(map[string]*student.Student),
		teams:       make(map[string]*team.Team),
		attendance:  make(map[string]*attendance.Record),
		submissions: make(map[string]*qt.Submission),
		questions:   make(map[string]*quiz.Question),
	}
}

// WithinTx runs fn while holding the transaction lock. fn must not start another transaction.
func (db *DB) WithinTx(ctx context.Context, fn func(exec core.DBExecutor) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.txMu.Lock()
	defer db.txMu.Unlock()
	return fn(nil)
}

// Repositories groups every repository backed by db.
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

func (db *DB) Repositories() Repositories {
	return Repositories{
		Churches:   NewChurchRepository(db),
		Teachers:   NewTeacherRepository(db),
		Students:   NewStudentRepository(db),
		Teams:      NewTeamRepository(db),
		Talents:    NewTalentRepository(db),
		Attendance: NewAttendanceRepository(db),
		QT:         NewQTRepository(db),
		Quiz:       NewQuizRepository(db),
	}
}

// comparators maps an ordering field to a three-way comparison.
type comparators[T any] map[string]func(a, b T) int

// order sorts items by ordering (or fallback when empty); unknown fields are ignored.
func order[T any](items []T, ordering []core.DBOrdering, cmps comparators[T], fallback ...core.DBOrdering) {
	if len(ordering) == 0 {
		ordering = fallback
	}
	sort.SliceStable(items, func(i, j int) bool {
		for _, ord := range ordering {
			cmp, ok := cmps[ord.Field]
			if !ok {
				continue
			}
			c := cmp(items[i], items[j])
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func asc(field string) core.DBOrdering  { return core.DBOrdering{Field: field, Ascending: true} }
func desc(field string) core.DBOrdering { return core.DBOrdering{Field: field} }
