package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/qt"
)

const submissionColumns = `id, church_id, student_id, date, photo_key, status, note, reviewer_id, reviewed_at, created_at, updated_at`

var submissionOrdering = map[string]string{
	"date":       "date",
	"status":     "status",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type submissionRow struct {
	ID         string      `db:"id"`
	ChurchID   string      `db:"church_id"`
	StudentID  string      `db:"student_id"`
	Date       core.Date   `db:"date"`
	PhotoKey   string      `db:"photo_key"`
	Status     string      `db:"status"`
	Note       null.String `db:"note"`
	ReviewerID null.String `db:"reviewer_id"`
	ReviewedAt null.Time   `db:"reviewed_at"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
}

func toSubmissionRow(s qt.Submission) submissionRow {
	row := submissionRow{
		ID:         s.ID,
		ChurchID:   s.ChurchID,
		StudentID:  s.StudentID,
		Date:       s.Date,
		PhotoKey:   s.PhotoKey,
		Status:     s.Status,
		Note:       null.NewString(s.Note, s.Note != ""),
		ReviewerID: null.NewString(s.ReviewerID, s.ReviewerID != ""),
		CreatedAt:  s.CreatedAt.UTC(),
		UpdatedAt:  s.UpdatedAt.UTC(),
	}
	if s.ReviewedAt != nil {
		row.ReviewedAt = null.TimeFrom(s.ReviewedAt.UTC())
	}
	return row
}

func (r submissionRow) submission() qt.Submission {
	s := qt.Submission{
		ID:         r.ID,
		ChurchID:   r.ChurchID,
		StudentID:  r.StudentID,
		Date:       r.Date,
		PhotoKey:   r.PhotoKey,
		Status:     r.Status,
		Note:       r.Note.String,
		ReviewerID: r.ReviewerID.String,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
	if r.ReviewedAt.Valid {
		at := r.ReviewedAt.Time.UTC()
		s.ReviewedAt = &at
	}
	return s
}

type qtRepository struct {
	repo
}

var _ qt.Repository = (*qtRepository)(nil) // interface compliance check

func NewQTRepository(exec core.DBExecutor) *qtRepository {
	return &qtRepository{repo{exec: exec}}
}

func (qr qtRepository) get(ctx context.Context, exec []core.DBExecutor, cond string, args ...interface{}) (qt.Submission, error) {
	var row submissionRow
	if err := sqlx.GetContext(ctx, qr.getExec(exec), &row, `SELECT `+submissionColumns+` FROM qt_submission WHERE `+cond+forUpdate(exec), args...); err != nil {
		return qt.Submission{}, trapNoRowsErr(err, qt.ErrNotFound, "finding QT submission")
	}
	return row.submission(), nil
}

func (qr qtRepository) GetSubmissionByDay(ctx context.Context, churchID, studentID string, date core.Date, exec ...core.DBExecutor) (qt.Submission, error) {
	if !validUUIDs(churchID, studentID) {
		return qt.Submission{}, qt.ErrNotFound
	}
	return qr.get(ctx, exec, "church_id = $1 AND student_id = $2 AND date = $3", churchID, studentID, date)
}

func (qr qtRepository) GetSubmissionByID(ctx context.Context, churchID, id string, exec ...core.DBExecutor) (qt.Submission, error) {
	if !validUUIDs(churchID, id) {
		return qt.Submission{}, qt.ErrNotFound
	}
	return qr.get(ctx, exec, "church_id = $1 AND id = $2", churchID, id)
}

func (qr qtRepository) CreateSubmission(ctx context.Context, s qt.Submission, exec ...core.DBExecutor) (qt.Submission, error) {
	row := toSubmissionRow(s)
	_, err := sqlx.NamedExecContext(ctx, qr.getExec(exec), `
		INSERT INTO qt_submission (`+submissionColumns+`)
		VALUES (:id, :church_id, :student_id, :date, :photo_key, :status, :note, :reviewer_id, :reviewed_at, :created_at, :updated_at)`, row)
	if err != nil {
		return qt.Submission{}, errors.Wrap(err, "inserting QT submission")
	}
	return row.submission(), nil
}

func (qr qtRepository) UpdateSubmission(ctx context.Context, s qt.Submission, exec ...core.DBExecutor) (qt.Submission, error) {
	row := toSubmissionRow(s)
	stmt, args, err := sqlx.Named(`
		UPDATE qt_submission
		SET photo_key = :photo_key, status = :status, note = :note, reviewer_id = :reviewer_id,
			reviewed_at = :reviewed_at, updated_at = :updated_at
		WHERE church_id = :church_id AND id = :id
		RETURNING `+submissionColumns, row)
	if err != nil {
		return qt.Submission{}, errors.Wrap(err, "binding QT submission update")
	}

	var out submissionRow
	exe := qr.getExec(exec)
	if err = sqlx.GetContext(ctx, exe, &out, exe.Rebind(stmt), args...); err != nil {
		return qt.Submission{}, trapNoRowsErr(err, qt.ErrNotFound, "updating QT submission")
	}
	return out.submission(), nil
}

func (qr qtRepository) QuerySubmissions(ctx context.Context, churchID string, filter *qt.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]qt.Submission, error) {
	w := &where{}
	w.add("church_id = ?", churchID)
	if filter != nil {
		if filter.Status != "" {
			w.add("status = ?", filter.Status)
		}
		if !filter.Date.IsZero() {
			w.add("date = ?", filter.Date)
		}
		if filter.StudentID != "" {
			if !validUUIDs(filter.StudentID) {
				return []qt.Submission{}, nil
			}
			w.add("student_id = ?", filter.StudentID)
		}
	}

	var rows []submissionRow
	q := `SELECT ` + submissionColumns + ` FROM qt_submission` + w.String() + orderBy(ordering, submissionOrdering, "date DESC, created_at DESC")
	if err := selectIn(ctx, qr.getExec(exec), &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying QT submissions")
	}
	subs := make([]qt.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.submission())
	}
	return subs, nil
}

func (qr qtRepository) PendingSummary(ctx context.Context, churchID string, exec ...core.DBExecutor) (qt.PendingSummary, error) {
	var sum qt.PendingSummary
	err := sqlx.GetContext(ctx, qr.getExec(exec), &sum,
		`SELECT count(*) AS count, MIN(date) AS oldest FROM qt_submission WHERE church_id = $1 AND status = $2`,
		churchID, qt.StatusPending)
	return sum, errors.Wrap(err, "summarizing pending QT submissions")
}
