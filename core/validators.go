package core

import (
	"reflect"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = "only alphanumeric characters and underscores are allowed"
	alphaNumUnderRegex = regexp.MustCompile(`^[\w\s]+$`)

	churchCodeTag   = "churchcode"
	churchCodeText  = "church code must be 3 to 20 uppercase letters or digits"
	churchCodeRegex = regexp.MustCompile(`^[A-Z0-9]{3,20}$`)

	studentCodeTag   = "studentcode"
	studentCodeText  = "student code must be exactly 6 digits"
	studentCodeRegex = regexp.MustCompile(`^[1-9][0-9]{5}$`)

	loginIDTag   = "loginid"
	loginIDText  = "login id must be 3 to 50 letters, digits, underscores or dots"
	loginIDRegex = regexp.MustCompile(`^[A-Za-z0-9_.]{3,50}$`)

	hexColorTag  = "hexcolor"
	hexColorText = "{0} must be a hex color like #ff8800"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(alphaNumUnderTag, regexValidation(alphaNumUnderRegex))
	RegisterCustomTranslation(validate, translator, alphaNumUnderTag, alphaNumUnderText)

	_ = validate.RegisterValidation(churchCodeTag, regexValidation(churchCodeRegex))
	RegisterCustomTranslation(validate, translator, churchCodeTag, churchCodeText)

	_ = validate.RegisterValidation(studentCodeTag, regexValidation(studentCodeRegex))
	RegisterCustomTranslation(validate, translator, studentCodeTag, studentCodeText)

	_ = validate.RegisterValidation(loginIDTag, regexValidation(loginIDRegex))
	RegisterCustomTranslation(validate, translator, loginIDTag, loginIDText)

	RegisterCustomTranslation(validate, translator, hexColorTag, hexColorText, true)
	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

func regexValidation(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}
