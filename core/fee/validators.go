package fee

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coaching/core"
)

var (
	amountTag  = "amount"
	amountText = "{0} must be a positive amount with at most 2 decimal places"
)

// InitValidators registers the fee validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(amountTag, amountValidation)
	core.RegisterCustomTranslation(validate, translator, amountTag, amountText)
}

// amountValidation only allows positive amounts with at most 2 decimal places.
func amountValidation(fl validator.FieldLevel) bool {
	amt, err := ParseAmount(fl.Field().String())
	return err == nil && amt > 0
}
