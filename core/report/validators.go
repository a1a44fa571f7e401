package report

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ministry/core"
)

var (
	serviceTypeTag  = "servicetype"
	serviceTypeText = "invalid service type"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(serviceTypeTag, serviceTypeValidation)
	core.RegisterCustomTranslation(validate, translator, serviceTypeTag, serviceTypeText)
}

// serviceTypeValidation only accepts canonical service types; legacy labels are for stored documents.
func serviceTypeValidation(fl validator.FieldLevel) bool {
	st := ServiceType(fl.Field().String())
	for _, t := range AllServiceTypes {
		if t == st {
			return true
		}
	}
	return false
}
