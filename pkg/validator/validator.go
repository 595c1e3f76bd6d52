package validator

import (
	"github.com/go-playground/validator/v10"

	"github.com/johnquangdev/meeting-session/internal/domain/entities"
)

// CustomValidator implements echo.Validator using go-playground/validator
type CustomValidator struct {
	v *validator.Validate
}

// New creates a new CustomValidator instance
func New() *CustomValidator {
	v := validator.New()
	// langtag accepts the languages of the translation pair (ja, ko)
	_ = v.RegisterValidation("langtag", func(fl validator.FieldLevel) bool {
		return entities.Language(fl.Field().String()).IsSupported()
	})
	// devicekind accepts audioinput, audiooutput and videoinput
	_ = v.RegisterValidation("devicekind", func(fl validator.FieldLevel) bool {
		return entities.DeviceKind(fl.Field().String()).IsValid()
	})
	return &CustomValidator{v: v}
}

// Validate performs struct validation
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}
