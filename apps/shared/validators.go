package shared

import (
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/teacher"
	appfs "github.com/trezcool/dalant/fs"
)

// NewValidator instantiates the validator with the english error messages and every custom validation.
func NewValidator(logger core.Logger) (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	teacher.InitValidators(validate, translator)
	teacher.LoadCommonPasswords(appfs.FS, logger)
	return validate, translator
}
