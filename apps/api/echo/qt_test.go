package echoapi_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/qt"
)

func pngPhoto(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for x := 0; x < 40; x++ {
		for y := 0; y < 30; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: uint8(y * 8), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newUploadRequest(t *testing.T, token, date string, photo []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if date != "" {
		require.NoError(t, w.WriteField("date", date))
	}
	if photo != nil {
		fw, err := w.CreateFormFile("photo", "qt.png")
		require.NoError(t, err)
		_, err = fw.Write(photo)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/qt", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func Test_qtApi_submit(t *testing.T) {
	app := newTestApp(t)
	ch := app.createChurch(t, "GRACE", "Grace Church")
	tchr := app.createTeacher(t, ch, "kim.jh", "Kim Jihoon", "", teacherPwd, false)
	stu := app.createStudent(t, ch, "Kim Minji")
	token := studentToken(t, ch, stu)
	photo := pngPhoto(t)
	tomorrow := core.DateOf(core.Today().AddDate(0, 0, 1))

	tests := []struct {
		name     string
		token    string
		date     string
		photo    []byte
		wantCode int
	}{
		{name: "teachers cannot submit", token: teacherToken(t, ch, tchr), photo: photo, wantCode: http.StatusForbidden},
		{name: "missing photo", token: token, wantCode: http.StatusBadRequest},
		{name: "not an image", token: token, photo: []byte("%PDF-1.4 hello"), wantCode: http.StatusBadRequest},
		{name: "too large", token: token, photo: bytes.Repeat([]byte{0}, 2<<20), wantCode: http.StatusRequestEntityTooLarge},
		{name: "bad date", token: token, date: "yesterday", photo: photo, wantCode: http.StatusBadRequest},
		{name: "future date", token: token, date: tomorrow.String(), photo: photo, wantCode: http.StatusBadRequest},
		{name: "ok", token: token, photo: photo, wantCode: http.StatusCreated},
		{name: "resubmit while pending", token: token, photo: photo, wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(newUploadRequest(t, tt.token, tt.date, tt.photo))
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}

	subs, err := app.qt.Query(context.Background(), ch.ID, &qt.QueryFilter{StudentID: stu.ID}, nil)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, qt.StatusPending, subs[0].Status)
	assert.True(t, subs[0].Date.Equal(core.Today()))
	assert.Equal(t, 1, app.store.Len(), "replaced photos are removed")
}

func Test_qtApi_review(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	ch := app.createChurch(t, "GRACE", "Grace Church")
	tchr := app.createTeacher(t, ch, "kim.jh", "Kim Jihoon", "", teacherPwd, false)
	minji := app.createStudent(t, ch, "Kim Minji")
	junho := app.createStudent(t, ch, "Lee Junho")

	rec := app.do(newUploadRequest(t, studentToken(t, ch, minji), "", pngPhoto(t)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sub qt.Submission
	decode(t, rec, &sub)

	token := teacherToken(t, ch, tchr)
	subPath := "/v1/qt/" + sub.ID
	tests := []httpTest{
		{name: "students cannot review", method: http.MethodPost, path: subPath + "/approve", token: studentToken(t, ch, minji), wantCode: http.StatusForbidden},
		{name: "bad status filter", method: http.MethodGet, path: "/v1/qt?status=lost", token: token, wantCode: http.StatusBadRequest},
		{name: "approve", method: http.MethodPost, path: subPath + "/approve", token: token, wantCode: http.StatusOK},
		{name: "approve twice", method: http.MethodPost, path: subPath + "/approve", token: token, wantCode: http.StatusBadRequest},
		{name: "resubmit approved", method: http.MethodPost, path: "/v1/qt", token: studentToken(t, ch, minji), wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.path == "/v1/qt" {
				rec := app.do(newUploadRequest(t, tt.token, "", pngPhoto(t)))
				assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
				return
			}
			app.run(t, tt)
		})
	}

	balance, err := app.talents.Balance(ctx, ch.ID, minji.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, balance)

	t.Run("reject approved reverses award", func(t *testing.T) {
		rec := app.run(t, httpTest{
			method: http.MethodPost, path: subPath + "/reject", token: token,
			body: marshal(t, qt.Reject{Note: "사진이 흐려요"}), wantCode: http.StatusOK,
		})
		var got qt.Submission
		decode(t, rec, &got)
		assert.Equal(t, qt.StatusRejected, got.Status)
		assert.Equal(t, "사진이 흐려요", got.Note)
		assert.Equal(t, tchr.ID, got.ReviewerID)

		balance, err := app.talents.Balance(ctx, ch.ID, minji.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, balance)
	})

	t.Run("lists", func(t *testing.T) {
		rec := app.run(t, httpTest{method: http.MethodGet, path: "/v1/qt?status=rejected", token: token, wantCode: http.StatusOK})
		var subs []qt.Submission
		decode(t, rec, &subs)
		assert.Len(t, subs, 1)

		rec = app.run(t, httpTest{method: http.MethodGet, path: "/v1/qt?status=pending", token: token, wantCode: http.StatusOK})
		decode(t, rec, &subs)
		assert.Empty(t, subs)

		rec = app.run(t, httpTest{method: http.MethodGet, path: "/v1/qt/mine", token: studentToken(t, ch, junho), wantCode: http.StatusOK})
		decode(t, rec, &subs)
		assert.Empty(t, subs)
	})

	t.Run("photo", func(t *testing.T) {
		app.run(t, httpTest{method: http.MethodGet, path: subPath + "/photo", token: studentToken(t, ch, junho), wantCode: http.StatusNotFound})

		for _, token := range []string{token, studentToken(t, ch, minji)} {
			rec := app.do(newAuthRequest(http.MethodGet, subPath+"/photo", token, nil))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
			_, _, err := image.Decode(bytes.NewReader(rec.Body.Bytes()))
			assert.NoError(t, err)
		}
	})
}
