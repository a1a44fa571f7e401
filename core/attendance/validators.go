package attendance

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ministry/core"
)

var (
	kindTag  = "meetingkind"
	kindText = "meeting kind must be midweek or weekend"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(kindTag, kindValidation)
	core.RegisterCustomTranslation(validate, translator, kindTag, kindText)
}

func kindValidation(fl validator.FieldLevel) bool {
	kind := MeetingKind(fl.Field().String())
	for _, k := range AllKinds {
		if k == kind {
			return true
		}
	}
	return false
}
