package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/attendance"
)

func Test_attendanceApi(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	ch := app.createChurch(t, "GRACE", "Grace Church")
	other := app.createChurch(t, "HOPE", "Hope Church")
	tchr := app.createTeacher(t, ch, "kim.jh", "Kim Jihoon", "", teacherPwd, false)
	minji := app.createStudent(t, ch, "Kim Minji")
	junho := app.createStudent(t, ch, "Lee Junho")
	foreign := app.createStudent(t, other, "Choi Hope")

	token := teacherToken(t, ch, tchr)
	today := core.Today()
	lastWeek := core.DateOf(today.AddDate(0, 0, -7))
	tomorrow := core.DateOf(today.AddDate(0, 0, 1))
	yes, no := true, false
	mark := func(date core.Date, present, recited *bool) []byte {
		return marshal(t, attendance.Mark{Date: date, Present: present, Recited: recited})
	}
	markPath := "/v1/attendance/" + minji.ID

	tests := []httpTest{
		{name: "students cannot mark", method: http.MethodPut, path: markPath, token: studentToken(t, ch, minji), body: mark(today, &yes, nil), wantCode: http.StatusForbidden},
		{name: "nothing to mark", method: http.MethodPut, path: markPath, token: token, body: mark(today, nil, nil), wantCode: http.StatusBadRequest},
		{name: "future date", method: http.MethodPut, path: markPath, token: token, body: mark(tomorrow, &yes, nil), wantCode: http.StatusBadRequest, wantData: marshal(t, map[string]string{"date": "date cannot be in the future"})},
		{name: "other church student", method: http.MethodPut, path: "/v1/attendance/" + foreign.ID, token: token, body: mark(today, &yes, nil), wantCode: http.StatusNotFound},
		{name: "malformed student id", method: http.MethodPut, path: "/v1/attendance/not-a-uuid", token: token, body: mark(today, &yes, nil), wantCode: http.StatusNotFound},
		{name: "present today", method: http.MethodPut, path: markPath, token: token, body: mark(core.Date{}, &yes, nil), wantCode: http.StatusOK},
		{name: "present again changes nothing", method: http.MethodPut, path: markPath, token: token, body: mark(today, &yes, nil), wantCode: http.StatusOK},
		{name: "recited today", method: http.MethodPut, path: markPath, token: token, body: mark(today, nil, &yes), wantCode: http.StatusOK},
		{name: "present last week", method: http.MethodPut, path: markPath, token: token, body: mark(lastWeek, &yes, &yes), wantCode: http.StatusOK},
		{name: "un-mark last week recitation", method: http.MethodPut, path: markPath, token: token, body: mark(lastWeek, nil, &no), wantCode: http.StatusOK},
		{name: "bad sheet date", method: http.MethodGet, path: "/v1/attendance?date=14-10-2026", token: token, wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.run(t, tt)
		})
	}

	// 1 present + 1 recited today, 1 present last week (recitation reversed)
	balance, err := app.talents.Balance(ctx, ch.ID, minji.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, balance)

	t.Run("sheet", func(t *testing.T) {
		rec := app.run(t, httpTest{method: http.MethodGet, path: "/v1/attendance?date=" + today.String(), token: token, wantCode: http.StatusOK})
		var rows []attendance.SheetRow
		decode(t, rec, &rows)
		require.Len(t, rows, 2)
		assert.Equal(t, minji.ID, rows[0].StudentID)
		assert.True(t, rows[0].Present)
		assert.True(t, rows[0].Recited)
		assert.NotEmpty(t, rows[0].RecordID)
		assert.Equal(t, junho.ID, rows[1].StudentID)
		assert.Empty(t, rows[1].RecordID)
		assert.False(t, rows[1].Present)
	})

	t.Run("history", func(t *testing.T) {
		rec := app.run(t, httpTest{method: http.MethodGet, path: markPath + "/history", token: token, wantCode: http.StatusOK})
		var recs []attendance.Record
		decode(t, rec, &recs)
		require.Len(t, recs, 2)
		assert.True(t, recs[0].Date.Equal(today))
		assert.True(t, recs[1].Date.Equal(lastWeek))
		assert.True(t, recs[1].Present)
		assert.False(t, recs[1].Recited)

		rec = app.run(t, httpTest{method: http.MethodGet, path: markPath + "/history?from=" + today.String(), token: token, wantCode: http.StatusOK})
		decode(t, rec, &recs)
		assert.Len(t, recs, 1)
	})
}
