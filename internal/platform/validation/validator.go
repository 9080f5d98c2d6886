package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var definitionIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()

	// Custom validators
	_ = v.RegisterValidation("definition_id", validateDefinitionID)

	return &Validator{validate: v}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// validateDefinitionID accepts namespace and definition names such as
// "us-core-stu6.1" or "USCorePatientProfile".
func validateDefinitionID(fl validator.FieldLevel) bool {
	return definitionIDPattern.MatchString(fl.Field().String())
}
