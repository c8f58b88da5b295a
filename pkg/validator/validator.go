package validator

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

// Message renders the failure the way handlers return it to clients.
func (e *ErrorResponse) Message() string {
	if e.Value != "" {
		return fmt.Sprintf("Field '%s' failed on tag '%s=%s'", e.FailedField, e.Tag, e.Value)
	}
	return fmt.Sprintf("Field '%s' failed on tag '%s'", e.FailedField, e.Tag)
}

var validate = validator.New()

func init() {
	// age range units
	validate.RegisterValidation("age_unit", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "", "months", "years":
			return true
		}
		return false
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errs []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return []*ErrorResponse{{FailedField: "request", Tag: "invalid"}}
		}
		for _, err := range validationErrors {
			var element ErrorResponse
			element.FailedField = err.StructNamespace()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errs = append(errs, &element)
		}
	}
	return errs
}
