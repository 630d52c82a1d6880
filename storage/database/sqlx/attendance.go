package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/attendance"
)

const recordColumns = `id, church_id, student_id, date, present, recited, teacher_id, updated_at`

type recordRow struct {
	ID        string      `db:"id"`
	ChurchID  string      `db:"church_id"`
	StudentID string      `db:"student_id"`
	Date      core.Date   `db:"date"`
	Present   bool        `db:"present"`
	Recited   bool        `db:"recited"`
	TeacherID null.String `db:"teacher_id"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func toRecordRow(r attendance.Record) recordRow {
	return recordRow{
		ID:        r.ID,
		ChurchID:  r.ChurchID,
		StudentID: r.StudentID,
		Date:      r.Date,
		Present:   r.Present,
		Recited:   r.Recited,
		TeacherID: null.NewString(r.TeacherID, r.TeacherID != ""),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func (r recordRow) record() attendance.Record {
	return attendance.Record{
		ID:        r.ID,
		ChurchID:  r.ChurchID,
		StudentID: r.StudentID,
		Date:      r.Date,
		Present:   r.Present,
		Recited:   r.Recited,
		TeacherID: r.TeacherID.String,
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func toRecords(rows []recordRow) []attendance.Record {
	records := make([]attendance.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.record())
	}
	return records
}

type attendanceRepository struct {
	repo
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(exec core.DBExecutor) *attendanceRepository {
	return &attendanceRepository{repo{exec: exec}}
}

func (ar attendanceRepository) GetRecord(ctx context.Context, churchID, studentID string, date core.Date, exec ...core.DBExecutor) (attendance.Record, error) {
	if !validUUIDs(churchID, studentID) {
		return attendance.Record{}, attendance.ErrNotFound
	}
	var row recordRow
	err := sqlx.GetContext(ctx, ar.getExec(exec), &row,
		`SELECT `+recordColumns+` FROM attendance WHERE church_id = $1 AND student_id = $2 AND date = $3`+forUpdate(exec),
		churchID, studentID, date)
	if err != nil {
		return attendance.Record{}, trapNoRowsErr(err, attendance.ErrNotFound, "finding attendance record")
	}
	return row.record(), nil
}

func (ar attendanceRepository) CreateRecord(ctx context.Context, r attendance.Record, exec ...core.DBExecutor) (attendance.Record, error) {
	if !validUUIDs(r.ChurchID, r.StudentID) {
		return attendance.Record{}, attendance.ErrStudentNotFound
	}
	row := toRecordRow(r)
	_, err := sqlx.NamedExecContext(ctx, ar.getExec(exec), `
		INSERT INTO attendance (`+recordColumns+`)
		VALUES (:id, :church_id, :student_id, :date, :present, :recited, :teacher_id, :updated_at)`, row)
	if err != nil {
		if hasErrCode(err, foreignKeyViolation) {
			return attendance.Record{}, attendance.ErrStudentNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "inserting attendance record")
	}
	return row.record(), nil
}

func (ar attendanceRepository) UpdateRecord(ctx context.Context, r attendance.Record, exec ...core.DBExecutor) (attendance.Record, error) {
	if !validUUIDs(r.ChurchID, r.ID) {
		return attendance.Record{}, attendance.ErrNotFound
	}
	var row recordRow
	err := sqlx.GetContext(ctx, ar.getExec(exec), &row, `
		UPDATE attendance SET present = $3, recited = $4, teacher_id = $5, updated_at = $6
		WHERE church_id = $1 AND id = $2
		RETURNING `+recordColumns,
		r.ChurchID, r.ID, r.Present, r.Recited, null.NewString(r.TeacherID, r.TeacherID != ""), r.UpdatedAt.UTC())
	if err != nil {
		return attendance.Record{}, trapNoRowsErr(err, attendance.ErrNotFound, "updating attendance record")
	}
	return row.record(), nil
}

func (ar attendanceRepository) QueryRecordsByDate(ctx context.Context, churchID string, date core.Date, exec ...core.DBExecutor) ([]attendance.Record, error) {
	var rows []recordRow
	err := sqlx.SelectContext(ctx, ar.getExec(exec), &rows,
		`SELECT `+recordColumns+` FROM attendance WHERE church_id = $1 AND date = $2`, churchID, date)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance records by date")
	}
	return toRecords(rows), nil
}

func (ar attendanceRepository) QueryStudentRecords(ctx context.Context, churchID, studentID string, from, to core.Date, exec ...core.DBExecutor) ([]attendance.Record, error) {
	if !validUUIDs(churchID, studentID) {
		return []attendance.Record{}, nil
	}
	w := &where{}
	w.add("church_id = ?", churchID)
	w.add("student_id = ?", studentID)
	if !from.IsZero() {
		w.add("date >= ?", from)
	}
	if !to.IsZero() {
		w.add("date <= ?", to)
	}

	var rows []recordRow
	if err := selectIn(ctx, ar.getExec(exec), &rows, `SELECT `+recordColumns+` FROM attendance`+w.String()+` ORDER BY date DESC`, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying student attendance records")
	}
	return toRecords(rows), nil
}
