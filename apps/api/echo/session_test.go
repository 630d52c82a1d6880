package echoapi_test

import (
	"context"
	"net/http"
	"regexp"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/dalant/apps/api/echo"
	"github.com/trezcool/dalant/core/student"
	emailsvc "github.com/trezcool/dalant/services/email"
)

const teacherPwd = "Psalm23:Lord"

func parseClaims(t *testing.T, token string) *Claims {
	t.Helper()
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(conf.SecretKey), nil
	})
	require.NoError(t, err)
	return claims
}

func Test_sessionApi_studentLogin(t *testing.T) {
	app := newTestApp(t)
	ch := app.createChurch(t, "GRACE", "Grace Church")
	other := app.createChurch(t, "HOPE", "Hope Church")
	stu := app.createStudent(t, ch, "Kim Minji")
	inactive := app.createStudent(t, ch, "Lee Jun")
	no := false
	_, err := app.students.Update(context.Background(), inactive, student.UpdateStudent{IsActive: &no})
	require.NoError(t, err)

	body := func(code, studentCode string) []byte {
		return marshal(t, StudentLoginRequest{ChurchCode: code, Code: studentCode})
	}
	path := "/v1/auth/student-login"
	badCreds := marshal(t, httpErr{Error: "authentication failed"})

	tests := []httpTest{
		{name: "malformed code", method: http.MethodPost, path: path, body: body("GRACE", "12ab"), wantCode: http.StatusBadRequest},
		{name: "unknown church", method: http.MethodPost, path: path, body: body("NOPE", stu.Code), wantCode: http.StatusBadRequest, wantData: badCreds},
		{name: "other church", method: http.MethodPost, path: path, body: body(other.Code, stu.Code), wantCode: http.StatusBadRequest, wantData: badCreds},
		{name: "inactive", method: http.MethodPost, path: path, body: body("GRACE", inactive.Code), wantCode: http.StatusForbidden},
		{name: "lower-cased church code", method: http.MethodPost, path: path, body: body(" grace ", stu.Code), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.run(t, tt)
			if rec.Code != http.StatusOK {
				return
			}
			var resp TokenResponse
			decode(t, rec, &resp)
			claims := parseClaims(t, resp.Token)
			assert.Equal(t, stu.ID, claims.Subject)
			assert.Equal(t, ch.ID, claims.ChurchID)
			assert.True(t, claims.IsStudent())
			assert.False(t, claims.IsAdmin)
		})
	}
}

func Test_sessionApi_teacherLogin(t *testing.T) {
	app := newTestApp(t)
	ch := app.createChurch(t, "GRACE", "Grace Church")
	tchr := app.createTeacher(t, ch, "kim.jh", "Kim Jihoon", "kim@grace.kr", teacherPwd, true)

	body := func(loginID, pwd string) []byte {
		return marshal(t, TeacherLoginRequest{ChurchCode: ch.Code, LoginID: loginID, Password: pwd})
	}
	path := "/v1/auth/teacher-login"

	tests := []httpTest{
		{name: "missing password", method: http.MethodPost, path: path, body: body("kim.jh", ""), wantCode: http.StatusBadRequest},
		{name: "wrong password", method: http.MethodPost, path: path, body: body("kim.jh", "wrong-pass"), wantCode: http.StatusBadRequest, wantData: marshal(t, httpErr{Error: "authentication failed"})},
		{name: "unknown login", method: http.MethodPost, path: path, body: body("nobody", teacherPwd), wantCode: http.StatusBadRequest},
		{name: "ok, login id is case-insensitive", method: http.MethodPost, path: path, body: body("KIM.JH", teacherPwd), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.run(t, tt)
			if rec.Code != http.StatusOK {
				return
			}
			var resp TokenResponse
			decode(t, rec, &resp)
			claims := parseClaims(t, resp.Token)
			assert.Equal(t, tchr.ID, claims.Subject)
			assert.True(t, claims.IsTeacher())
			assert.True(t, claims.IsAdmin)

			got, err := app.teachers.GetByID(context.Background(), ch.ID, tchr.ID)
			require.NoError(t, err)
			assert.NotNil(t, got.LastLogin)
		})
	}
}

func Test_sessionApi_tokenRefresh(t *testing.T) {
	app := newTestApp(t)
	ch := app.createChurch(t, "GRACE", "Grace Church")
	tchr := app.createTeacher(t, ch, "kim.jh", "Kim Jihoon", "", teacherPwd, false)
	stu := app.createStudent(t, ch, "Kim Minji")

	// refresh window closed
	expired, err := GenerateToken(conf, NewStudentClaims(conf, ch, stu, 1))
	require.NoError(t, err)
	// account removed
	gone := app.createStudent(t, ch, "Park Seo")
	goneToken := studentToken(t, ch, gone)
	require.NoError(t, app.students.Delete(context.Background(), ch.ID, gone.ID))

	path := "/v1/auth/token-refresh"
	tests := []httpTest{
		{name: "missing token", method: http.MethodPost, path: path, wantCode: http.StatusUnauthorized, wantData: marshal(t, errMissingToken)},
		{name: "refresh expired", method: http.MethodPost, path: path, token: expired, wantCode: http.StatusForbidden, wantData: marshal(t, httpErr{Error: "refresh has expired"})},
		{name: "deleted account", method: http.MethodPost, path: path, token: goneToken, wantCode: http.StatusUnauthorized},
		{name: "teacher", method: http.MethodPost, path: path, token: teacherToken(t, ch, tchr), wantCode: http.StatusOK},
		{name: "student", method: http.MethodPost, path: path, token: studentToken(t, ch, stu), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.run(t, tt)
		})
	}
}

func Test_sessionApi_passwordReset(t *testing.T) {
	app := newTestApp(t)
	ch := app.createChurch(t, "GRACE", "Grace Church")
	tchr := app.createTeacher(t, ch, "yoon.h", "Yoon Hee", "yoon.reset@grace.kr", teacherPwd, false)

	success := marshal(t, SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."})

	// unknown addresses get the same answer and no mail
	app.run(t, httpTest{
		method: http.MethodPost, path: "/v1/auth/password-reset",
		body:     marshal(t, PasswordResetRequest{ChurchCode: ch.Code, Email: "nobody@grace.kr"}),
		wantCode: http.StatusOK, wantData: success,
	})
	assert.Empty(t, emailsvc.SentMessagesTo("nobody@grace.kr"))

	app.run(t, httpTest{
		method: http.MethodPost, path: "/v1/auth/password-reset",
		body:     marshal(t, PasswordResetRequest{ChurchCode: ch.Code, Email: "YOON.RESET@grace.kr"}),
		wantCode: http.StatusOK, wantData: success,
	})
	msgs := emailsvc.SentMessagesTo(tchr.Email)
	require.Len(t, msgs, 1)
	m := regexp.MustCompile(`/password-reset/([^/\s]+)/([^/\s]+)`).FindStringSubmatch(msgs[0].TextContent)
	require.Len(t, m, 3, msgs[0].TextContent)
	uid, token := m[1], m[2]

	confirm := func(token, pwd string) []byte {
		return marshal(t, map[string]string{"uid": uid, "token": token, "password": pwd, "password_confirm": pwd})
	}
	path := "/v1/auth/password-reset-confirm"
	tests := []httpTest{
		{name: "bad token", method: http.MethodPost, path: path, body: confirm("abc-def", "Grace&Peace7"), wantCode: http.StatusBadRequest},
		{name: "weak password", method: http.MethodPost, path: path, body: confirm(token, "12345678901"), wantCode: http.StatusBadRequest},
		{name: "ok", method: http.MethodPost, path: path, body: confirm(token, "Grace&Peace7"), wantCode: http.StatusOK},
		{name: "token used", method: http.MethodPost, path: path, body: confirm(token, "Another&Pass8"), wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.run(t, tt)
		})
	}

	got, err := app.teachers.GetByID(context.Background(), ch.ID, tchr.ID)
	require.NoError(t, err)
	assert.NoError(t, got.CheckPassword("Grace&Peace7"))
}

func Test_sessionApi_loginRateLimit(t *testing.T) {
	limited := *conf
	limited.Server.LoginRateLimit = 0.001
	app := newTestApp(t, &limited)
	ch := app.createChurch(t, "GRACE", "Grace Church")

	body := marshal(t, StudentLoginRequest{ChurchCode: ch.Code, Code: "123456"})
	for i := 0; i < 5; i++ {
		rec := app.do(newAuthRequest(http.MethodPost, "/v1/auth/student-login", "", body))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
	rec := app.do(newAuthRequest(http.MethodPost, "/v1/auth/student-login", "", body))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
