package services

import (
	"errors"
	"fmt"

	apperrors "github.com/maritime-school/training-admin/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")
	ErrInvalidQuery     = errors.New("invalid list query")

	// Auth errors
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailTaken           = errors.New("email already in use")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")
	ErrInvalidToken         = errors.New("invalid token")
	ErrAuthProviderDisabled = errors.New("authentication provider not enabled")

	// Role errors
	ErrRoleNotFound = errors.New("role not found")
	ErrRoleExists   = errors.New("role already exists")
	ErrRoleIsSystem = errors.New("system roles cannot be deleted")
	ErrRoleInUse    = errors.New("role is still assigned to users")
	ErrInvalidRole  = errors.New("invalid user role")

	// Personnel errors
	ErrAgentNotFound      = errors.New("agent not found")
	ErrDuplicateMatricule = errors.New("matricule already exists")
	ErrAgentInUse         = errors.New("agent has enrollments")
	ErrFormateurNotFound  = errors.New("formateur not found")
	ErrFormateurInUse     = errors.New("formateur has course assignments")

	// Catalogue errors
	ErrFormationNotFound = errors.New("formation not found")
	ErrFormationInUse    = errors.New("formation is referenced by courses, sessions or enrollments")
	ErrCoursNotFound     = errors.New("cours not found")
	ErrCoursInUse        = errors.New("cours has trainer assignments")

	// Enrollment errors
	ErrAgentFormationNotFound = errors.New("agent formation not found")
	ErrCoursFormateurNotFound = errors.New("cours formateur not found")

	// Session errors
	ErrTrainingSessionNotFound = errors.New("training session not found")
	ErrSessionAgentNotFound    = errors.New("session agent not found")
	ErrSessionFull             = errors.New("session is full")
	ErrAlreadyEnrolled         = errors.New("agent already enrolled in this session")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

type PermissionError struct {
	UserID   string `json:"user_id"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Reason   string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s - %s",
		pe.UserID, pe.Action, pe.Resource, pe.Reason)
}

// ===== ERROR HELPERS =====

// NewValidationError returns a single field failure as ValidationErrors.
func NewValidationError(field, message, rule string, value interface{}) ValidationErrors {
	return ValidationErrors{apperrors.FieldError(field, rule, message, value)}
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

func NewPermissionError(userID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:   userID,
		Resource: resource,
		Action:   action,
		Reason:   reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrRoleNotFound) ||
		errors.Is(err, ErrAgentNotFound) ||
		errors.Is(err, ErrFormateurNotFound) ||
		errors.Is(err, ErrFormationNotFound) ||
		errors.Is(err, ErrCoursNotFound) ||
		errors.Is(err, ErrAgentFormationNotFound) ||
		errors.Is(err, ErrCoursFormateurNotFound) ||
		errors.Is(err, ErrTrainingSessionNotFound) ||
		errors.Is(err, ErrSessionAgentNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrInvalidToken)
}

// IsForbidden checks if error represents a permission failure
func IsForbidden(err error) bool {
	var pe *PermissionError
	return errors.Is(err, ErrForbidden) || errors.As(err, &pe)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrBadRequest) || errors.Is(err, ErrInvalidQuery) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre) || errors.Is(err, ErrInvalidRole)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrRoleExists) ||
		errors.Is(err, ErrRoleIsSystem) ||
		errors.Is(err, ErrRoleInUse) ||
		errors.Is(err, ErrDuplicateMatricule) ||
		errors.Is(err, ErrAgentInUse) ||
		errors.Is(err, ErrFormateurInUse) ||
		errors.Is(err, ErrFormationInUse) ||
		errors.Is(err, ErrCoursInUse) ||
		errors.Is(err, ErrSessionFull) ||
		errors.Is(err, ErrAlreadyEnrolled)
}

// IsUnavailable reports a disabled feature.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrAuthProviderDisabled)
}
