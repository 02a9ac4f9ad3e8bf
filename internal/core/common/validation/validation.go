package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	errors "github.com/PacificEMIS/pacific-emis-teacher-registration/internal"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct runs the validate tags on a DTO and converts failures into the
// application's validation error shape.
func Struct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	invalid, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewInternalError("validation failed", err)
	}

	fieldErrors := make([]errors.ValidationError, 0, len(invalid))
	for _, fe := range invalid {
		fieldErrors = append(fieldErrors, errors.ValidationError{
			Field:   fieldName(fe),
			Message: message(fe),
			Code:    string(errors.ErrCodeValidationFailed),
		})
	}

	return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
		WithDetails(errors.ValidationErrors{Errors: fieldErrors})
}

// Var validates a single value against a tag expression, for checks that
// do not fit a DTO struct.
func Var(field string, value interface{}, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		return errors.NewValidationFieldError(field, fmt.Sprintf("%s is invalid", field), errors.ErrCodeValidationFailed)
	}
	return nil
}

func fieldName(fe validator.FieldError) string {
	return toSnake(fe.Field())
}

func message(fe validator.FieldError) string {
	field := fieldName(fe)
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
