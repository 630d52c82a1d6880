package echoapi_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/dalant/core/teacher"
)

func Test_teacherApi_list(t *testing.T) {
	app := newTestApp(t)
	ch := app.createChurch(t, "GRACE", "Grace Church")
	other := app.createChurch(t, "HOPE", "Hope Church")
	admin := app.createTeacher(t, ch, "admin", "Choi Admin", "admin@grace.kr", teacherPwd, true)
	kim := app.createTeacher(t, ch, "kim.jh", "Kim Jihoon", "kim@grace.kr", teacherPwd, false)
	park := app.createTeacher(t, ch, "park.s", "Park Sora", "", teacherPwd, false)
	app.createTeacher(t, other, "lee", "Lee Hope", "", teacherPwd, true)

	no := false
	park, err := app.teachers.Update(context.Background(), park, teacher.UpdateTeacher{Name: park.Name, IsActive: &no})
	require.NoError(t, err)

	token := teacherToken(t, ch, admin)
	path := func(search, ordering, isActive, isAdmin string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if isActive != "" {
			v.Add("is_active", isActive)
		}
		if isAdmin != "" {
			v.Add("is_admin", isAdmin)
		}
		return "/v1/teachers?" + v.Encode()
	}

	tests := []httpTest{
		{name: "non admin", method: http.MethodGet, path: path("", "", "", ""), token: teacherToken(t, ch, kim), wantCode: http.StatusForbidden},
		{name: "all, by name", method: http.MethodGet, path: path("", "", "", ""), token: token, wantCode: http.StatusOK, wantData: marshal(t, []teacher.Teacher{admin, kim, park})},
		{name: "name desc", method: http.MethodGet, path: path("", "-name", "", ""), token: token, wantCode: http.StatusOK, wantData: marshal(t, []teacher.Teacher{park, kim, admin})},
		{name: "search login id", method: http.MethodGet, path: path("KIM.", "", "", ""), token: token, wantCode: http.StatusOK, wantData: marshal(t, []teacher.Teacher{kim})},
		{name: "inactive", method: http.MethodGet, path: path("", "", "false", ""), token: token, wantCode: http.StatusOK, wantData: marshal(t, []teacher.Teacher{park})},
		{name: "admins", method: http.MethodGet, path: path("", "", "", "true"), token: token, wantCode: http.StatusOK, wantData: marshal(t, []teacher.Teacher{admin})},
		{name: "bad bool", method: http.MethodGet, path: path("", "", "maybe", ""), token: token, wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.run(t, tt)
		})
	}
}

func Test_teacherApi_create(t *testing.T) {
	app := newTestApp(t)
	ch := app.createChurch(t, "GRACE", "Grace Church")
	admin := app.createTeacher(t, ch, "admin", "Choi Admin", "", teacherPwd, true)
	token := teacherToken(t, ch, admin)

	body := func(loginID, pwd, confirm string) []byte {
		return marshal(t, teacher.NewTeacher{LoginID: loginID, Name: "Han Yuna", Password: pwd, PasswordConfirm: confirm})
	}
	tests := []httpTest{
		{name: "duplicate login id", method: http.MethodPost, path: "/v1/teachers", token: token, body: body("ADMIN", teacherPwd, teacherPwd), wantCode: http.StatusBadRequest, wantData: marshal(t, map[string]string{"login_id": "a teacher with this login id already exists"})},
		{name: "bad login id", method: http.MethodPost, path: "/v1/teachers", token: token, body: body("a b", teacherPwd, teacherPwd), wantCode: http.StatusBadRequest},
		{name: "passwords differ", method: http.MethodPost, path: "/v1/teachers", token: token, body: body("han.y", teacherPwd, "other"), wantCode: http.StatusBadRequest},
		{name: "weak password", method: http.MethodPost, path: "/v1/teachers", token: token, body: body("han.y", "han.y123", "han.y123"), wantCode: http.StatusBadRequest},
		{name: "ok", method: http.MethodPost, path: "/v1/teachers", token: token, body: body(" Han.Y ", teacherPwd, teacherPwd), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.run(t, tt)
		})
	}

	got, err := app.teachers.GetByLoginID(context.Background(), ch.ID, "han.y")
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.False(t, got.IsAdmin)
	assert.NoError(t, got.CheckPassword(teacherPwd))
}

func Test_teacherApi_detail(t *testing.T) {
	app := newTestApp(t)
	ch := app.createChurch(t, "GRACE", "Grace Church")
	other := app.createChurch(t, "HOPE", "Hope Church")
	admin := app.createTeacher(t, ch, "admin", "Choi Admin", "", teacherPwd, true)
	kim := app.createTeacher(t, ch, "kim.jh", "Kim Jihoon", "", teacherPwd, false)
	foreign := app.createTeacher(t, other, "lee", "Lee Hope", "", teacherPwd, true)

	adminToken := teacherToken(t, ch, admin)
	kimToken := teacherToken(t, ch, kim)
	yes := true

	tests := []httpTest{
		{name: "other church", method: http.MethodGet, path: "/v1/teachers/" + foreign.ID, token: adminToken, wantCode: http.StatusNotFound},
		{name: "retrieve", method: http.MethodGet, path: "/v1/teachers/" + kim.ID, token: adminToken, wantCode: http.StatusOK, wantData: marshal(t, kim)},
		{name: "me", method: http.MethodGet, path: "/v1/teachers/me", token: kimToken, wantCode: http.StatusOK, wantData: marshal(t, kim)},
		{name: "me cannot self promote", method: http.MethodPut, path: "/v1/teachers/me", token: kimToken, body: marshal(t, teacher.UpdateTeacher{IsAdmin: &yes}), wantCode: http.StatusForbidden},
		{name: "me rename", method: http.MethodPut, path: "/v1/teachers/me", token: kimToken, body: marshal(t, teacher.UpdateTeacher{Name: "Kim J."}), wantCode: http.StatusOK},
		{name: "admin promotes", method: http.MethodPut, path: "/v1/teachers/" + kim.ID, token: adminToken, body: marshal(t, teacher.UpdateTeacher{IsAdmin: &yes}), wantCode: http.StatusOK},
		{name: "cannot delete self", method: http.MethodDelete, path: "/v1/teachers/" + admin.ID, token: adminToken, wantCode: http.StatusBadRequest, wantData: marshal(t, httpErr{Error: "you cannot delete your own account"})},
		{name: "delete", method: http.MethodDelete, path: "/v1/teachers/" + kim.ID, token: adminToken, wantCode: http.StatusNoContent},
		{name: "deleted", method: http.MethodGet, path: "/v1/teachers/" + kim.ID, token: adminToken, wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.run(t, tt)
		})
	}
}
