package jobs

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/church"
	"github.com/trezcool/dalant/core/qt"
	"github.com/trezcool/dalant/core/student"
	"github.com/trezcool/dalant/core/teacher"
)

const digestCSVType = "text/csv; charset=utf-8"

type digestData struct {
	ChurchName string
	Count      int
	Oldest     string
}

// Digest emails the admin teachers of every church a summary of the QT submissions waiting for review,
// with the list of pending submissions attached as CSV.
type Digest struct {
	churches *church.Service
	teachers *teacher.Service
	students *student.Service
	qt       *qt.Service
	mailSvc  core.EmailService
	logger   core.Logger
}

func NewDigest(
	churches *church.Service,
	teachers *teacher.Service,
	students *student.Service,
	qtSvc *qt.Service,
	mailSvc core.EmailService,
	logger core.Logger,
) *Digest {
	return &Digest{churches: churches, teachers: teachers, students: students, qt: qtSvc, mailSvc: mailSvc, logger: logger}
}

// Send sends the digests and returns the number of emails sent.
// Churches with nothing pending are skipped; a failing church does not stop the others.
func (d *Digest) Send(ctx context.Context) (int, error) {
	churches, err := d.churches.QueryAll(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "querying churches")
	}

	var sent int
	for _, ch := range churches {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		n, err := d.sendChurch(ctx, ch)
		if err != nil {
			d.logger.Error(fmt.Sprintf("qt digest for %s: %v", ch.Code, err), err)
			continue
		}
		sent += n
	}
	return sent, nil
}

func (d *Digest) sendChurch(ctx context.Context, ch church.Church) (int, error) {
	summary, err := d.qt.PendingSummary(ctx, ch.ID)
	if err != nil {
		return 0, errors.Wrap(err, "summarizing pending submissions")
	}
	if summary.Count == 0 {
		return 0, nil
	}

	admins, err := d.teachers.QueryAdmins(ctx, ch.ID)
	if err != nil {
		return 0, errors.Wrap(err, "querying admins")
	}
	recipients := make([]teacher.Teacher, 0, len(admins))
	for _, t := range admins {
		if t.Email != "" {
			recipients = append(recipients, t)
		}
	}
	if len(recipients) == 0 {
		return 0, nil
	}

	pending, err := d.pendingCSV(ctx, ch.ID)
	if err != nil {
		return 0, err
	}
	filename := "qt-pending-" + core.Today().String() + ".csv"

	data := digestData{ChurchName: ch.Name, Count: summary.Count, Oldest: summary.Oldest.String()}
	msgs := make([]*core.EmailMessage, 0, len(recipients))
	for _, t := range recipients {
		msg := &core.EmailMessage{
			To:           []mail.Address{{Name: t.Name, Address: t.Email}},
			Subject:      "확인을 기다리는 QT",
			TemplateName: "qt_digest",
			TemplateData: data,
		}
		if err = msg.Attach(bytes.NewReader(pending), filename, digestCSVType); err != nil {
			return 0, errors.Wrap(err, "attaching pending list")
		}
		msgs = append(msgs, msg)
	}
	d.mailSvc.SendMessages(msgs...)
	return len(msgs), nil
}

// pendingCSV lists the pending submissions of a church, oldest first.
func (d *Digest) pendingCSV(ctx context.Context, churchID string) ([]byte, error) {
	subs, err := d.qt.Query(ctx, churchID, &qt.QueryFilter{Status: qt.StatusPending}, []core.DBOrdering{
		{Field: "date", Ascending: true},
		{Field: "created_at", Ascending: true},
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying pending submissions")
	}

	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.StudentID)
	}
	students, err := d.students.GetByIDs(ctx, churchID, core.UniqueStrings(ids))
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	names := make(map[string]string, len(students))
	for _, s := range students {
		names[s.ID] = s.Name
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"date", "student", "submitted_at"})
	for _, s := range subs {
		_ = w.Write([]string{s.Date.String(), names[s.StudentID], s.UpdatedAt.In(core.Location).Format(time.RFC3339)})
	}
	w.Flush()
	return buf.Bytes(), errors.Wrap(w.Error(), "writing csv")
}
