// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// Registration numbers are validated after uppercasing: letters, digits
// and optional hyphens, e.g. "MH12AB1234" or "KA-01-HH-1234".
var carNumberPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{4,18}$`)

func init() {
	validate = validator.New()
	validate.RegisterValidation("car_number", validateCarNumber)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateCarNumber(fl validator.FieldLevel) bool {
	return carNumberPattern.MatchString(strings.ToUpper(fl.Field().String()))
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "car_number":
		return "Registration number must be 5-19 characters of letters, digits and hyphens"
	default:
		return e.Field() + " is invalid"
	}
}
