package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/talent"
)

const entryColumns = `id, church_id, student_id, amount, kind, ref_id, note, teacher_id, created_at`

type entryRow struct {
	ID        string      `db:"id"`
	ChurchID  string      `db:"church_id"`
	StudentID string      `db:"student_id"`
	Amount    int         `db:"amount"`
	Kind      string      `db:"kind"`
	RefID     null.String `db:"ref_id"`
	Note      null.String `db:"note"`
	TeacherID null.String `db:"teacher_id"`
	CreatedAt time.Time   `db:"created_at"`
}

func toEntryRow(e talent.Entry) entryRow {
	return entryRow{
		ID:        e.ID,
		ChurchID:  e.ChurchID,
		StudentID: e.StudentID,
		Amount:    e.Amount,
		Kind:      e.Kind,
		RefID:     null.NewString(e.RefID, e.RefID != ""),
		Note:      null.NewString(e.Note, e.Note != ""),
		TeacherID: null.NewString(e.TeacherID, e.TeacherID != ""),
		CreatedAt: e.CreatedAt.UTC(),
	}
}

func (r entryRow) entry() talent.Entry {
	return talent.Entry{
		ID:        r.ID,
		ChurchID:  r.ChurchID,
		StudentID: r.StudentID,
		Amount:    r.Amount,
		Kind:      r.Kind,
		RefID:     r.RefID.String,
		Note:      r.Note.String,
		TeacherID: r.TeacherID.String,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type talentRepository struct {
	repo
}

var _ talent.Repository = (*talentRepository)(nil) // interface compliance check

func NewTalentRepository(exec core.DBExecutor) *talentRepository {
	return &talentRepository{repo{exec: exec}}
}

// LockStudent takes a row lock on the student; it only serializes when exec is a transaction.
func (tr talentRepository) LockStudent(ctx context.Context, churchID, studentID string, exec ...core.DBExecutor) error {
	if !validUUIDs(churchID, studentID) {
		return talent.ErrStudentNotFound
	}
	var id string
	err := sqlx.GetContext(ctx, tr.getExec(exec), &id,
		`SELECT id FROM student WHERE church_id = $1 AND id = $2 FOR UPDATE`, churchID, studentID)
	return trapNoRowsErr(err, talent.ErrStudentNotFound, "locking student")
}

func (tr talentRepository) CreateEntries(ctx context.Context, entries []talent.Entry, exec ...core.DBExecutor) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]entryRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, toEntryRow(e))
	}
	_, err := sqlx.NamedExecContext(ctx, tr.getExec(exec), `
		INSERT INTO talent_entry (`+entryColumns+`)
		VALUES (:id, :church_id, :student_id, :amount, :kind, :ref_id, :note, :teacher_id, :created_at)`, rows)
	if err != nil {
		if hasErrCode(err, foreignKeyViolation) {
			return talent.ErrStudentNotFound
		}
		return errors.Wrap(err, "inserting talent entries")
	}
	return nil
}

func (tr talentRepository) Balance(ctx context.Context, churchID, studentID string, exec ...core.DBExecutor) (int, error) {
	if !validUUIDs(churchID, studentID) {
		return 0, nil
	}
	var sum int
	err := sqlx.GetContext(ctx, tr.getExec(exec), &sum,
		`SELECT COALESCE(SUM(amount), 0) FROM talent_entry WHERE church_id = $1 AND student_id = $2`, churchID, studentID)
	return sum, errors.Wrap(err, "summing balance")
}

func (tr talentRepository) NetByRef(ctx context.Context, refID, kind string, exec ...core.DBExecutor) (int, error) {
	if !validUUIDs(refID) {
		return 0, nil
	}
	var sum int
	err := sqlx.GetContext(ctx, tr.getExec(exec), &sum,
		`SELECT COALESCE(SUM(amount), 0) FROM talent_entry WHERE ref_id = $1 AND kind = $2`, refID, kind)
	return sum, errors.Wrap(err, "summing entries by ref")
}

func (tr talentRepository) QueryEntries(ctx context.Context, churchID, studentID string, limit int, exec ...core.DBExecutor) ([]talent.Entry, error) {
	if !validUUIDs(churchID, studentID) {
		return []talent.Entry{}, nil
	}
	q := `SELECT ` + entryColumns + ` FROM talent_entry WHERE church_id = $1 AND student_id = $2 ORDER BY created_at DESC, id DESC`
	args := []interface{}{churchID, studentID}
	if limit > 0 {
		q += ` LIMIT $3`
		args = append(args, limit)
	}

	var rows []entryRow
	if err := sqlx.SelectContext(ctx, tr.getExec(exec), &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying talent entries")
	}
	entries := make([]talent.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.entry())
	}
	return entries, nil
}

func (tr talentRepository) QueryBalances(ctx context.Context, churchID string, exec ...core.DBExecutor) ([]talent.StudentBalance, error) {
	balances := make([]talent.StudentBalance, 0)
	err := sqlx.SelectContext(ctx, tr.getExec(exec), &balances, `
		SELECT s.id AS student_id, s.name, s.team_id, COALESCE(SUM(e.amount), 0) AS balance
		FROM student s
		LEFT JOIN talent_entry e ON e.student_id = s.id AND e.church_id = s.church_id
		WHERE s.church_id = $1 AND s.is_active
		GROUP BY s.id, s.name, s.team_id`, churchID)
	if err != nil {
		return nil, errors.Wrap(err, "querying balances")
	}
	return balances, nil
}
