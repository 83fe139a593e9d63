// Package errors holds the field-level validation failures returned by the
// validator and by request business rules.
package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError is one failed field.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// ValidationErrors is returned whole so clients can mark every bad field at once.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	switch len(ve) {
	case 0:
		return "validation failed"
	case 1:
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	fields := make([]string, len(ve))
	for i, e := range ve {
		fields[i] = e.Field
	}
	return fmt.Sprintf("validation failed on %d fields: %s", len(ve), strings.Join(fields, ", "))
}

// Has reports whether field failed.
func (ve ValidationErrors) Has(field string) bool {
	for _, e := range ve {
		if e.Field == field {
			return true
		}
	}
	return false
}

// FieldError builds a failure for field under rule.
func FieldError(field, rule, message string, value interface{}) ValidationError {
	return ValidationError{Field: field, Message: message, Value: value, Rule: rule}
}

// FromValidator converts validator/v10 field errors. Anything else yields nil.
func FromValidator(err error) ValidationErrors {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, FieldError(fe.Field(), fe.Tag(), message(fe), fe.Value()))
	}
	return out
}

var fixedMessages = map[string]string{
	"required":       "is required",
	"email":          "must be a valid email address",
	"uuid":           "must be a valid UUID",
	"numeric":        "must be a number",
	"grade":          "must be a known grade",
	"type_formation": "must be a valid formation type",
	"specialite":     "must be a valid speciality",
	"resultat":       "must be a valid result",
	"session_status": "must be scheduled, in-progress or completed",
	"role_color":     "must be one of: blue green red purple orange gray yellow",
	"digits":         "must contain only digits",
	"permission":     "must have the form resource:action",
}

var paramMessages = map[string]string{
	"min":      "must be at least %s",
	"max":      "must be at most %s",
	"len":      "must be exactly %s characters",
	"oneof":    "must be one of: %s",
	"gtefield": "must not be before %s",
	"gte":      "must be greater than or equal to %s",
	"lte":      "must be less than or equal to %s",
	"gt":       "must be greater than %s",
}

func message(fe validator.FieldError) string {
	if msg, ok := fixedMessages[fe.Tag()]; ok {
		return msg
	}
	if format, ok := paramMessages[fe.Tag()]; ok {
		return fmt.Sprintf(format, fe.Param())
	}
	return fmt.Sprintf("failed rule '%s'", fe.Tag())
}
