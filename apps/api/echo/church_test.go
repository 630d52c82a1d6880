package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/dalant/apps/api/echo"
	"github.com/trezcool/dalant/core/church"
	"github.com/trezcool/dalant/core/talent"
)

func Test_churchApi(t *testing.T) {
	app := newTestApp(t)
	ch := app.createChurch(t, "GRACE", "Grace Church")
	admin := app.createTeacher(t, ch, "admin", "Admin", "", teacherPwd, true)
	tchr := app.createTeacher(t, ch, "kim.jh", "Kim Jihoon", "", teacherPwd, false)
	stu := app.createStudent(t, ch, "Kim Minji")

	adminToken := teacherToken(t, ch, admin)
	settings := func(attendance, qt int) []byte {
		return marshal(t, church.UpdateSettings{AttendancePoints: &attendance, QTPoints: &qt})
	}

	tests := []httpTest{
		{name: "missing token", method: http.MethodGet, path: "/v1/church", wantCode: http.StatusUnauthorized, wantData: marshal(t, errMissingToken)},
		{name: "student sees church", method: http.MethodGet, path: "/v1/church", token: studentToken(t, ch, stu), wantCode: http.StatusOK, wantData: marshal(t, ch)},
		{name: "teacher cannot update settings", method: http.MethodPut, path: "/v1/church/settings", token: teacherToken(t, ch, tchr), body: settings(2, 3), wantCode: http.StatusForbidden, wantData: marshal(t, errForbidden)},
		{name: "points out of range", method: http.MethodPut, path: "/v1/church/settings", token: adminToken, body: settings(2, 101), wantCode: http.StatusBadRequest},
		{name: "admin updates settings", method: http.MethodPut, path: "/v1/church/settings", token: adminToken, body: settings(2, 3), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.run(t, tt)
		})
	}

	got, err := app.churches.GetByID(context.Background(), ch.ID)
	require.NoError(t, err)
	assert.Equal(t, church.Settings{AttendancePoints: 2, RecitationPoints: ch.Settings.RecitationPoints, QTPoints: 3}, got.Settings)
}

func Test_meApi(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	ch := app.createChurch(t, "GRACE", "Grace Church")
	tchr := app.createTeacher(t, ch, "kim.jh", "Kim Jihoon", "", teacherPwd, false)
	lions := app.createTeam(t, ch, "Lions")
	minji := app.createStudent(t, ch, "Kim Minji", lions.ID)
	junho := app.createStudent(t, ch, "Lee Junho", lions.ID)
	app.createStudent(t, ch, "Park Seo")

	_, err := app.talents.Grant(ctx, ch.ID, tchr.ID, minji.ID, 5, talent.KindManual, "memory verse")
	require.NoError(t, err)
	_, err = app.talents.Grant(ctx, ch.ID, tchr.ID, junho.ID, 8, talent.KindManual, "")
	require.NoError(t, err)

	tests := []httpTest{
		{name: "teachers have no dashboard", method: http.MethodGet, path: "/v1/me", token: teacherToken(t, ch, tchr), wantCode: http.StatusForbidden},
		{name: "student dashboard", method: http.MethodGet, path: "/v1/me", token: studentToken(t, ch, minji), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.run(t, tt)
			if rec.Code != http.StatusOK {
				return
			}
			var resp DashboardResponse
			decode(t, rec, &resp)
			assert.Equal(t, minji.ID, resp.Student.ID)
			assert.Equal(t, ch.Name, resp.Church)
			assert.Equal(t, 5, resp.Balance)
			assert.Equal(t, 2, resp.Rank)
			assert.Equal(t, 3, resp.TotalRanked)
			require.NotNil(t, resp.Team)
			assert.Equal(t, lions.ID, resp.Team.ID)
			assert.ElementsMatch(t, []string{minji.ID, junho.ID}, resp.Team.MemberIDs())
			assert.Empty(t, resp.RecentQT)
			require.Len(t, resp.Recent, 1)
			assert.Equal(t, "memory verse", resp.Recent[0].Note)
		})
	}
}

func Test_homeApi(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(newAuthRequest(http.MethodGet, "/", "", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to "+conf.AppName+" API!", rec.Body.String())

	// trailing slashes are dropped
	rec = app.do(newAuthRequest(http.MethodGet, "/v1/church/", "", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
