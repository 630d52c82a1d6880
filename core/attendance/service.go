package attendance

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/church"
	"github.com/trezcool/dalant/core/student"
	"github.com/trezcool/dalant/core/talent"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("attendance record")
	ErrStudentNotFound = core.NewNotFoundError("student")
	ErrFutureDate      = errors.New("date cannot be in the future")
)

type (
	Repository interface {
		// GetRecord returns ErrNotFound when the student has no record for the date.
		GetRecord(ctx context.Context, churchID, studentID string, date core.Date, exec ...core.DBExecutor) (Record, error)
		CreateRecord(ctx context.Context, r Record, exec ...core.DBExecutor) (Record, error)
		UpdateRecord(ctx context.Context, r Record, exec ...core.DBExecutor) (Record, error)
		QueryRecordsByDate(ctx context.Context, churchID string, date core.Date, exec ...core.DBExecutor) ([]Record, error)
		// QueryStudentRecords returns the records of a student between from and to (inclusive, zero means open), newest first.
		QueryStudentRecords(ctx context.Context, churchID, studentID string, from, to core.Date, exec ...core.DBExecutor) ([]Record, error)
	}

	Service struct {
		repo     Repository
		students *student.Service
		churches *church.Service
		ledger   *talent.Service
		tx       core.Transactor
	}
)

func NewService(repo Repository, students *student.Service, churches *church.Service, ledger *talent.Service, tx core.Transactor) *Service {
	return &Service{repo: repo, students: students, churches: churches, ledger: ledger, tx: tx}
}

// Sheet lists every active student with their check for the date.
func (svc *Service) Sheet(ctx context.Context, churchID string, date core.Date) ([]SheetRow, error) {
	students, err := svc.students.QueryActive(ctx, churchID)
	if err != nil {
		return nil, errors.Wrap(err, "querying active students")
	}
	records, err := svc.repo.QueryRecordsByDate(ctx, churchID, date)
	if err != nil {
		return nil, errors.Wrap(err, "querying records")
	}
	byStudent := make(map[string]Record, len(records))
	for _, r := range records {
		byStudent[r.StudentID] = r
	}

	rows := make([]SheetRow, 0, len(students))
	for _, s := range students {
		row := SheetRow{StudentID: s.ID, StudentName: s.Name, TeamID: s.TeamID}
		if r, ok := byStudent[s.ID]; ok {
			row.RecordID = r.ID
			row.Present = r.Present
			row.Recited = r.Recited
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Mark upserts the record of a student for m.Date.
// Switching present (or recited) on awards the church's points; switching it off appends the reversing entry.
// Setting a value it already has changes nothing.
func (svc *Service) Mark(ctx context.Context, churchID, teacherID, studentID string, m Mark) (Record, error) {
	ch, err := svc.churches.GetByID(ctx, churchID)
	if err != nil {
		return Record{}, errors.Wrap(err, "finding church")
	}
	if _, err = svc.students.GetByID(ctx, churchID, studentID); err != nil {
		return Record{}, errors.Wrap(err, "finding student")
	}

	var rec Record
	err = svc.tx.WithinTx(ctx, func(exec core.DBExecutor) error {
		orig, err := svc.repo.GetRecord(ctx, churchID, studentID, m.Date, exec)
		isNew := false
		if err != nil {
			if errors.Cause(err) != ErrNotFound {
				return errors.Wrap(err, "finding record")
			}
			isNew = true
			orig = Record{
				ID:        uuid.New().String(),
				ChurchID:  churchID,
				StudentID: studentID,
				Date:      m.Date,
			}
		}

		rec = orig
		if m.Present != nil {
			rec.Present = *m.Present
		}
		if m.Recited != nil {
			rec.Recited = *m.Recited
		}
		if !isNew && rec.Present == orig.Present && rec.Recited == orig.Recited {
			return nil // no change
		}
		rec.TeacherID = teacherID
		rec.UpdatedAt = core.NowFunc().UTC()

		if isNew {
			rec, err = svc.repo.CreateRecord(ctx, rec, exec)
		} else {
			rec, err = svc.repo.UpdateRecord(ctx, rec, exec)
		}
		if err != nil {
			return errors.Wrap(err, "saving record")
		}

		if err = svc.applyTransition(ctx, exec, rec, orig.Present, rec.Present, talent.KindAttendance, ch.Settings.AttendancePoints); err != nil {
			return err
		}
		return svc.applyTransition(ctx, exec, rec, orig.Recited, rec.Recited, talent.KindRecitation, ch.Settings.RecitationPoints)
	})
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (svc *Service) applyTransition(ctx context.Context, exec core.DBExecutor, rec Record, before, after bool, kind string, points int) error {
	switch {
	case !before && after:
		return errors.Wrap(svc.ledger.Award(ctx, exec, rec.ChurchID, rec.TeacherID, rec.StudentID, points, kind, rec.ID), "awarding "+kind)
	case before && !after:
		return errors.Wrap(svc.ledger.Reverse(ctx, exec, rec.ChurchID, rec.TeacherID, rec.StudentID, kind, rec.ID), "reversing "+kind)
	}
	return nil
}

// History lists the records of a student, newest first.
func (svc *Service) History(ctx context.Context, churchID, studentID string, filter HistoryFilter) ([]Record, error) {
	return svc.repo.QueryStudentRecords(ctx, churchID, studentID, filter.From, filter.To)
}
