package teacher

import (
	"testing"
	"testing/fstest"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/dalant/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func newValidator() *validator.Validate {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func Test_checkPassword(t *testing.T) {
	LoadCommonPasswords(fstest.MapFS{
		commonPasswordsFile: &fstest.MapFile{Data: []byte("password\nqwerty123\nSunday School\n")},
	}, nopLogger{})

	tests := []struct {
		name  string
		pwd   string
		attrs []string
		want  string
	}{
		{name: "too short", pwd: "ab1!", want: pwdMinLenTag},
		{name: "whitespace", pwd: "grace and peace", want: pwdNoSpaceTag},
		{name: "all numeric", pwd: "12345678901", want: pwdNotAllNumTag},
		{name: "similar to login id", pwd: "kimjh1234", attrs: []string{"Kim", "kimjh123"}, want: pwdAttrSimTag},
		{name: "similar to email local part", pwd: "yoonhee77", attrs: []string{"", "", "yoonhee7@church.kr"}, want: pwdAttrSimTag},
		{name: "common", pwd: "QWERTY123", want: pwdNoCommonTag},
		{name: "ok", pwd: "Psalm23:Lord", attrs: []string{"Kim", "kim.jh", "kim@test.kr"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkPassword(tt.pwd, tt.attrs...))
		})
	}
}

func TestNewTeacher_passwordPolicy(t *testing.T) {
	validate := newValidator()

	nt := NewTeacher{LoginID: "park", Name: "Park", Password: "1234", PasswordConfirm: "1234"}
	err := validate.Struct(nt)
	require.Error(t, err)
	vErrs, ok := err.(validator.ValidationErrors)
	require.True(t, ok)
	require.Len(t, vErrs, 1)
	assert.Equal(t, "password", vErrs[0].Field())
	assert.Equal(t, pwdMinLenTag, vErrs[0].Tag())

	nt = NewTeacher{LoginID: "bad id!", Name: "Park", Password: "Psalm23:Lord", PasswordConfirm: "Psalm23:Lord"}
	err = validate.Struct(nt)
	require.Error(t, err)
	assert.Equal(t, "loginid", err.(validator.ValidationErrors)[0].Tag())

	nt = NewTeacher{LoginID: "park", Name: "Park", Password: "Psalm23:Lord", PasswordConfirm: "Psalm23:Lord"}
	assert.NoError(t, validate.Struct(nt))
}

func TestUpdateTeacher_Validate(t *testing.T) {
	validate := newValidator()
	orig := Teacher{LoginID: "choi.sy", Name: "Choi", Email: "choi@test.kr"}

	upd := UpdateTeacher{Name: "  "}
	require.NoError(t, upd.Validate(orig, validate))
	assert.Equal(t, "Choi", upd.Name)
	assert.Equal(t, "choi@test.kr", upd.Email)

	upd = UpdateTeacher{Password: "choisy1234", PasswordConfirm: "choisy1234"}
	err := upd.Validate(orig, validate)
	require.Error(t, err)
	assert.Equal(t, pwdAttrSimTag, err.(validator.ValidationErrors)[0].Tag())

	upd = UpdateTeacher{Password: "Psalm23:Lord", PasswordConfirm: "other"}
	assert.Error(t, upd.Validate(orig, validate))
}
