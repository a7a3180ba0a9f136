package utils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"olympiad-api/models"
)

var validate = validator.New()

// ValidateStruct runs the payload's validate tags and flattens failures into
// the per-field list used by 400 responses. Nil means the payload is valid.
func ValidateStruct(payload interface{}) []models.FieldError {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []models.FieldError{{Field: "", Message: err.Error()}}
	}
	out := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, models.FieldError{
			Field:   strings.ToLower(fe.Field()),
			Message: describeValidation(fe),
		})
	}
	return out
}

func describeValidation(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "min":
		return fmt.Sprintf("must have at least %s items", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
