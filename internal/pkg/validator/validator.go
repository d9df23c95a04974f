package validator

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Register custom validations
	registerCustomValidations()
}

func registerCustomValidations() {
	// Storage provider validation
	validate.RegisterValidation("provider", func(fl validator.FieldLevel) bool {
		provider := fl.Field().String()
		validProviders := []string{"firebase", "gcs-browser", "gcs-server"}
		for _, p := range validProviders {
			if provider == p {
				return true
			}
		}
		return false
	})

	// Photo date validation (calendar date, no time component)
	validate.RegisterValidation("photo_date", func(fl validator.FieldLevel) bool {
		date := fl.Field().String()
		if date == "" {
			return false
		}
		_, err := time.Parse("2006-01-02", date)
		return err == nil
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "url":
			errors[field] = "Invalid URL format"
		case "provider":
			errors[field] = "Invalid provider. Must be: firebase, gcs-browser, or gcs-server"
		case "photo_date":
			errors[field] = "Invalid date. Expected format: YYYY-MM-DD"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
