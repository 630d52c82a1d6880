package sqlxrepos

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/attendance"
	"github.com/trezcool/dalant/core/quiz"
)

func Test_orderBy(t *testing.T) {
	tests := []struct {
		name     string
		ordering []core.DBOrdering
		want     string
	}{
		{name: "fallback", want: " ORDER BY created_at ASC, id ASC"},
		{name: "unknown fields only", ordering: []core.DBOrdering{{Field: "password; DROP TABLE church"}}, want: " ORDER BY created_at ASC, id ASC"},
		{
			name:     "mapped",
			ordering: []core.DBOrdering{{Field: "prompt", Ascending: false}, {Field: "lol"}, {Field: "id", Ascending: true}},
			want:     " ORDER BY prompt DESC, id ASC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, orderBy(tt.ordering, questionOrdering, "created_at ASC, id ASC"))
		})
	}
}

func Test_where(t *testing.T) {
	var w where
	assert.Equal(t, "", w.String())

	w.add("church_id = ?", "c1")
	w.add("status IN (?)", []string{"pending", "rejected"})
	assert.Equal(t, " WHERE church_id = ? AND status IN (?)", w.String())
	if diff := cmp.Diff([]interface{}{"c1", []string{"pending", "rejected"}}, w.args); diff != "" {
		t.Errorf("where.args mismatch (-want +got):\n%s", diff)
	}
}

func Test_likePattern(t *testing.T) {
	assert.Equal(t, `%kim%`, likePattern("kim"))
	assert.Equal(t, `%100\%\_sure\\%`, likePattern(`100%_sure\`))
}

func Test_validUUIDs(t *testing.T) {
	assert.True(t, validUUIDs())
	assert.True(t, validUUIDs("0b6f6c2e-2f3c-4c38-9d0e-5cb2d4a3f1a7"))
	assert.False(t, validUUIDs("0b6f6c2e-2f3c-4c38-9d0e-5cb2d4a3f1a7", "nope"))
}

func Test_forUpdate(t *testing.T) {
	tx := sqlx.NewDb(&sql.DB{}, "postgres")
	assert.Equal(t, "", forUpdate(nil))
	assert.Equal(t, "", forUpdate([]core.DBExecutor{nil}))
	assert.Equal(t, " FOR UPDATE", forUpdate([]core.DBExecutor{tx}))
}

func TestAttendanceRepository_CreateRecordChecksIDs(t *testing.T) {
	ar := NewAttendanceRepository(nil) // never reached
	_, err := ar.CreateRecord(context.Background(), attendance.Record{
		ID:        "0b6f6c2e-2f3c-4c38-9d0e-5cb2d4a3f1a7",
		ChurchID:  "0b6f6c2e-2f3c-4c38-9d0e-5cb2d4a3f1a8",
		StudentID: "not-a-uuid",
	})
	assert.Equal(t, attendance.ErrStudentNotFound, err)
}

func Test_errorMapping(t *testing.T) {
	assert.Equal(t, quiz.ErrNotFound, trapNoRowsErr(errors.Wrap(sql.ErrNoRows, "get"), quiz.ErrNotFound, "getting question"))
	assert.EqualError(t, trapNoRowsErr(sql.ErrConnDone, quiz.ErrNotFound, "getting question"), "getting question: "+sql.ErrConnDone.Error())

	dup := errors.Wrap(&pq.Error{Code: uniqueViolation, Constraint: "student_church_code_key"}, "insert")
	assert.True(t, isUniqueViolation(dup, ""))
	assert.True(t, isUniqueViolation(dup, "student_church_code_key"))
	assert.False(t, isUniqueViolation(dup, "team_church_name_key"))
	assert.False(t, hasErrCode(dup, foreignKeyViolation))
	assert.True(t, hasErrCode(&pq.Error{Code: foreignKeyViolation}, foreignKeyViolation))
}
