package jobs

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/csv"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/church"
	"github.com/trezcool/dalant/core/game"
	"github.com/trezcool/dalant/core/qt"
	"github.com/trezcool/dalant/core/quiz"
	"github.com/trezcool/dalant/core/student"
	"github.com/trezcool/dalant/core/talent"
	"github.com/trezcool/dalant/core/teacher"
	"github.com/trezcool/dalant/core/team"
	appfs "github.com/trezcool/dalant/fs"
	emailsvc "github.com/trezcool/dalant/services/email"
	"github.com/trezcool/dalant/services/filestore"
	inmemdb "github.com/trezcool/dalant/storage/database/inmem"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

// rawPhotos stores uploads as they are.
type rawPhotos struct{}

func (rawPhotos) Process(r io.Reader) ([]byte, error) { return io.ReadAll(r) }

type fixture struct {
	conf     *core.Config
	churches *church.Service
	teachers *teacher.Service
	students *student.Service
	qt       *qt.Service
	games    *game.Service
}

func setup(t *testing.T) fixture {
	t.Helper()
	conf := &core.Config{AppName: "Dalant", TestMode: true, FrontendBaseURL: "http://dalant.test"}
	core.ParseEmailTemplates(appfs.FS, conf, nopLogger{})

	db := inmemdb.Open()
	repos := db.Repositories()
	f := fixture{conf: conf}
	f.churches = church.NewService(repos.Churches, conf)
	f.teachers = teacher.NewService(repos.Teachers, emailsvc.NewConsoleServiceMock(conf), conf)
	f.students = student.NewServiceWithSeed(repos.Students, 1)
	talents := talent.NewService(repos.Talents, db)
	f.qt = qt.NewService(repos.QT, filestore.NewMemoryStore(), rawPhotos{}, f.churches, talents, db, nopLogger{})
	f.games = game.NewService(
		game.NewRegistry(), team.NewService(repos.Teams, db), f.students, quiz.NewService(repos.Quiz, db), talents, nopLogger{},
	)
	return f
}

func (f fixture) church(t *testing.T, code string) church.Church {
	t.Helper()
	ch, err := f.churches.Create(context.Background(), church.NewChurch{Code: code, Name: code + " Church"})
	require.NoError(t, err)
	return ch
}

func (f fixture) teacher(t *testing.T, ch church.Church, loginID, email string, isAdmin bool) {
	t.Helper()
	pwd := "Psalm23:Lord"
	_, err := f.teachers.Create(context.Background(), teacher.NewTeacher{
		ChurchID: ch.ID, LoginID: loginID, Name: loginID, Email: email, IsAdmin: isAdmin, Password: pwd, PasswordConfirm: pwd,
	})
	require.NoError(t, err)
}

func (f fixture) submit(t *testing.T, ch church.Church, name string) {
	t.Helper()
	ctx := context.Background()
	s, err := f.students.Create(ctx, student.NewStudent{ChurchID: ch.ID, Name: name})
	require.NoError(t, err)
	_, err = f.qt.Submit(ctx, ch.ID, s.ID, core.Date{}, bytes.NewReader([]byte("photo")))
	require.NoError(t, err)
}

func TestDigest_Send(t *testing.T) {
	f := setup(t)

	grace := f.church(t, "GRACE")
	f.teacher(t, grace, "admin", "admin@grace.test", true)
	f.teacher(t, grace, "noemail", "", true)
	f.teacher(t, grace, "helper", "helper@grace.test", false)
	f.submit(t, grace, "Kim Minji")
	f.submit(t, grace, "Lee Junho")

	hope := f.church(t, "HOPE")
	f.teacher(t, hope, "admin", "admin@hope.test", true)

	digest := NewDigest(f.churches, f.teachers, f.students, f.qt, emailsvc.NewConsoleServiceMock(f.conf), nopLogger{})
	sent, err := digest.Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	msgs := emailsvc.SentMessagesTo("admin@grace.test")
	require.Len(t, msgs, 1)
	assert.Equal(t, "qt_digest", msgs[0].TemplateName)
	assert.True(t, strings.Contains(msgs[0].TextContent, "GRACE Church"), msgs[0].TextContent)

	require.Len(t, msgs[0].Attachments, 1)
	at := msgs[0].Attachments[0]
	assert.Equal(t, "qt-pending-"+core.Today().String()+".csv", at.Filename)
	assert.Equal(t, digestCSVType, at.ContentType)
	raw, err := base64.StdEncoding.DecodeString(at.Content.String())
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"date", "student", "submitted_at"}, rows[0])
	names := []string{rows[1][1], rows[2][1]}
	assert.ElementsMatch(t, []string{"Kim Minji", "Lee Junho"}, names)
	assert.Equal(t, core.Today().String(), rows[1][0])

	assert.Empty(t, emailsvc.SentMessagesTo("helper@grace.test"))
	assert.Empty(t, emailsvc.SentMessagesTo("admin@hope.test"), "nothing pending")
}

func TestScheduler(t *testing.T) {
	f := setup(t)

	t.Run("invalid spec", func(t *testing.T) {
		conf := *f.conf
		conf.Jobs.DigestSpec = "every sunday"
		_, err := NewScheduler(&conf, nil, f.games, nopLogger{})
		assert.Error(t, err)
	})

	t.Run("runs until cancelled", func(t *testing.T) {
		conf := *f.conf
		conf.Jobs = core.JobsConfig{DigestSpec: "0 18 * * *", SweepSpec: "@every 1s", GameSessionTTL: time.Hour}
		digest := NewDigest(f.churches, f.teachers, f.students, f.qt, emailsvc.NewConsoleServiceMock(&conf), nopLogger{})
		s, err := NewScheduler(&conf, digest, f.games, nopLogger{})
		require.NoError(t, err)
		assert.Len(t, s.cron.Entries(), 2)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- s.Run(ctx) }()

		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("scheduler did not stop")
		}
	})
}
