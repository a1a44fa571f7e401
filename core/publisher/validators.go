package publisher

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ministry/core"
)

var (
	statusTag  = "pubstatus"
	statusText = "invalid publisher status"

	tierTag  = "pioneertier"
	tierText = "invalid pioneer tier"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)

	_ = validate.RegisterValidation(tierTag, tierValidation)
	core.RegisterCustomTranslation(validate, translator, tierTag, tierText)
}

func statusValidation(fl validator.FieldLevel) bool {
	st := Status(fl.Field().String())
	for _, s := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// tierValidation works on PioneerTier & *PioneerTier (validator dereferences pointers).
func tierValidation(fl validator.FieldLevel) bool {
	tier := PioneerTier(fl.Field().String())
	for _, t := range AllTiers {
		if t == tier {
			return true
		}
	}
	return false
}
