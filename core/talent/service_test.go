package talent_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/church"
	"github.com/trezcool/dalant/core/student"
	"github.com/trezcool/dalant/core/talent"
	inmemdb "github.com/trezcool/dalant/storage/database/inmem"
)

func setup(t *testing.T, names ...string) (*talent.Service, *inmemdb.DB, string, []student.Student) {
	t.Helper()
	ctx := context.Background()
	db := inmemdb.Open()
	repos := db.Repositories()

	ch, err := church.NewService(repos.Churches, &core.Config{}).Create(ctx, church.NewChurch{Code: "GRACE", Name: "Grace"})
	require.NoError(t, err)
	students := student.NewServiceWithSeed(repos.Students, 1)
	var created []student.Student
	for _, name := range names {
		s, err := students.Create(ctx, student.NewStudent{ChurchID: ch.ID, Name: name})
		require.NoError(t, err)
		created = append(created, s)
	}
	return talent.NewService(repos.Talents, db), db, ch.ID, created
}

func TestService_Grant(t *testing.T) {
	ctx := context.Background()
	svc, _, churchID, students := setup(t, "Kim Minji")
	sid := students[0].ID

	_, err := svc.Grant(ctx, churchID, "teacher", sid, 0, talent.KindManual, "")
	assert.Equal(t, talent.ErrZeroAmount, errors.Cause(err).(*core.ValidationError).Err)

	_, err = svc.Grant(ctx, churchID, "teacher", sid, 3, talent.KindAttendance, "")
	assert.Error(t, err, "automatic kinds cannot be granted")

	e, err := svc.Grant(ctx, churchID, "teacher", sid, 3, talent.KindManual, "memory verse")
	require.NoError(t, err)
	assert.Equal(t, 3, e.Amount)
	assert.Equal(t, "teacher", e.TeacherID)

	_, err = svc.Grant(ctx, churchID, "teacher", sid, -4, talent.KindManual, "")
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	require.True(t, ok, err)
	assert.Equal(t, talent.ErrInsufficientBalance, vErr.Err)

	_, err = svc.Grant(ctx, churchID, "teacher", sid, -3, talent.KindManual, "")
	require.NoError(t, err)
	balance, err := svc.Balance(ctx, churchID, sid)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestService_GrantMany(t *testing.T) {
	ctx := context.Background()
	svc, _, churchID, students := setup(t, "Kim Minji", "Lee Junho")
	minji, junho := students[0].ID, students[1].ID

	entries, err := svc.GrantMany(ctx, churchID, "teacher", []string{minji, junho, minji}, 2, talent.KindGame, "quiz")
	require.NoError(t, err)
	assert.Len(t, entries, 2, "duplicates are granted once")

	_, err = svc.Grant(ctx, churchID, "teacher", junho, -2, talent.KindManual, "")
	require.NoError(t, err)

	_, err = svc.GrantMany(ctx, churchID, "teacher", []string{minji, junho}, -1, talent.KindManual, "")
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	require.True(t, ok, err)
	require.Len(t, vErr.Fields, 1)
	assert.Equal(t, core.FieldError{Field: "student_ids", Error: junho + ": balance cannot go below zero"}, vErr.Fields[0])

	_, err = svc.GrantMany(ctx, churchID, "teacher", []string{minji, "nope"}, 1, talent.KindGame, "")
	assert.Equal(t, talent.ErrStudentNotFound, errors.Cause(err))

	// nothing is written when one of the students fails
	balance, err := svc.Balance(ctx, churchID, minji)
	require.NoError(t, err)
	assert.Equal(t, 2, balance)
}

func TestService_AwardReverse(t *testing.T) {
	ctx := context.Background()
	svc, db, churchID, students := setup(t, "Kim Minji")
	sid := students[0].ID

	within := func(fn func(exec core.DBExecutor) error) error {
		return db.WithinTx(ctx, fn)
	}
	award := func(amount int, refID string) func(exec core.DBExecutor) error {
		return func(exec core.DBExecutor) error {
			return svc.Award(ctx, exec, churchID, "", sid, amount, talent.KindQT, refID)
		}
	}
	reverse := func(exec core.DBExecutor) error {
		return svc.Reverse(ctx, exec, churchID, "", sid, talent.KindQT, "sub-1")
	}

	require.NoError(t, within(award(2, "sub-1")))
	require.NoError(t, within(award(2, "sub-1"))) // already awarded: no-op
	require.NoError(t, within(award(0, "sub-2"))) // no-op
	for i := 0; i < 2; i++ { // the second reversal has nothing left to cancel
		require.NoError(t, within(reverse))
	}

	entries, err := svc.Entries(ctx, churchID, sid, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, -2, entries[0].Amount)
	assert.Equal(t, "reversal", entries[0].Note)
	assert.Equal(t, "sub-1", entries[0].RefID)

	// awarded again once reversed
	require.NoError(t, within(award(3, "sub-1")))
	balance, err := svc.Balance(ctx, churchID, sid)
	require.NoError(t, err)
	assert.Equal(t, 3, balance)

	t.Run("student of another church", func(t *testing.T) {
		err := within(func(exec core.DBExecutor) error {
			return svc.Award(ctx, exec, "other-church", "", sid, 2, talent.KindAttendance, "rec-1")
		})
		assert.Equal(t, talent.ErrStudentNotFound, err)
		err = within(func(exec core.DBExecutor) error {
			return svc.Reverse(ctx, exec, "other-church", "", sid, talent.KindQT, "sub-1")
		})
		assert.Equal(t, talent.ErrStudentNotFound, err)
	})
}
