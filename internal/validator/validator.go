package validator

import (
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/maritime-school/training-admin/internal/errors"
	"github.com/maritime-school/training-admin/internal/grades"
	"github.com/maritime-school/training-admin/internal/models"
)

type (
	ValidationError  = apperrors.ValidationError
	ValidationErrors = apperrors.ValidationErrors
)

// BusinessRules is implemented by requests carrying rules that struct tags
// cannot express. It runs only after the struct tags pass.
type BusinessRules interface {
	ValidateBusiness() ValidationErrors
}

// Validator combines struct tag validation with business rules
type Validator struct {
	structValidator *validator.Validate
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate performs complete validation (struct + business rules). Failures
// are returned as ValidationErrors.
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := apperrors.FromValidator(err); len(errs) > 0 {
			return errs
		}
		return err
	}

	if rules, ok := s.(BusinessRules); ok {
		if errs := rules.ValidateBusiness(); len(errs) > 0 {
			return errs
		}
	}

	return nil
}

// Engine exposes the underlying validator, e.g. to plug it into gin binding.
func (v *Validator) Engine() *validator.Validate {
	return v.structValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("grade", validateGrade)
	validate.RegisterValidation("type_formation", oneOfStrings(models.TypesFormation))
	validate.RegisterValidation("specialite", oneOfStrings(models.Specialites))
	validate.RegisterValidation("resultat", oneOfStrings(models.Resultats))
	validate.RegisterValidation("session_status", oneOfStrings(models.SessionStatuses))
	validate.RegisterValidation("role_color", validateRoleColor)
	validate.RegisterValidation("digits", validateDigits)
	validate.RegisterValidation("permission", validatePermission)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateGrade(fl validator.FieldLevel) bool {
	return grades.IsKnown(fl.Field().String())
}

func oneOfStrings(values []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return slices.Contains(values, fl.Field().String())
	}
}

func validateRoleColor(fl validator.FieldLevel) bool {
	return slices.Contains(models.RoleColors, models.RoleColor(fl.Field().String()))
}

func validateDigits(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// validatePermission accepts "resource:action" where either side may be "*".
func validatePermission(fl validator.FieldLevel) bool {
	resource, action, ok := strings.Cut(fl.Field().String(), ":")
	return ok && resource != "" && action != "" && !strings.Contains(action, ":")
}
