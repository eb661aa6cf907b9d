// Package validation wraps go-playground struct validation for the
// request payloads of the HTTP and CLI surfaces.
package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one failed field check on a request payload.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

// Message renders the failure as a client-facing sentence.
func (e FieldError) Message() string {
	switch e.Tag {
	case "required":
		return fmt.Sprintf("%s is required", e.Field)
	case "node_kind":
		return fmt.Sprintf("%s must be %q or %q", e.Field, "ingredient", "product")
	default:
		return fmt.Sprintf("%s failed on %s", e.Field, e.Tag)
	}
}

var validate = validator.New()

func init() {
	// node_kind restricts a string field to the two graph node kinds.
	validate.RegisterValidation("node_kind", func(fl validator.FieldLevel) bool {
		kind := fl.Field().String()
		return kind == "ingredient" || kind == "product"
	})
}

// Struct runs the tag-declared checks against data and returns one
// FieldError per failed field, empty when the payload shape is fine.
func Struct(data any) []FieldError {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "payload", Tag: "invalid"}}
	}

	fieldErrs := make([]FieldError, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		fieldErrs = append(fieldErrs, FieldError{
			Field: fieldErr.Field(),
			Tag:   fieldErr.Tag(),
			Param: fieldErr.Param(),
		})
	}
	return fieldErrs
}
