package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maritime-school/training-admin/internal/services"
	"github.com/maritime-school/training-admin/internal/utils"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse answers deletes and session kills.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// BaseHandler carries the logging and error mapping shared by every handler.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{
		logger: logger,
	}
}

// LogRequest records a completed handler action.
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	h.log(c).Info(message, h.contextFields(c, additionalFields)...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	h.log(c).LogError(err, message, h.contextFields(c, additionalFields)...)
}

func (h *BaseHandler) LogInfo(c *gin.Context, message string, additionalFields ...interface{}) {
	h.log(c).Info(message, h.contextFields(c, additionalFields)...)
}

func (h *BaseHandler) LogWarn(c *gin.Context, message string, additionalFields ...interface{}) {
	h.log(c).Warn(message, h.contextFields(c, additionalFields)...)
}

// log prefers the request logger, which already carries the request id.
func (h *BaseHandler) log(c *gin.Context) utils.Logger {
	return utils.FromContext(c, h.logger)
}

func (h *BaseHandler) contextFields(c *gin.Context, additionalFields []interface{}) []interface{} {
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.FullPath(),
	}
	if userID := c.GetString("user_id"); userID != "" {
		fields = append(fields, "user_id", userID)
	}
	return append(fields, additionalFields...)
}

// RespondWithError sends a consistent error response and logs it
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, message string, err error, details ...interface{}) {
	errorResp := ErrorResponse{
		Error: message,
	}

	if len(details) > 0 {
		errorResp.Details = details[0]
	}

	if err != nil {
		h.LogError(c, err, message, "status_code", statusCode)
	} else {
		h.LogWarn(c, message, "status_code", statusCode)
	}

	c.JSON(statusCode, errorResp)
}

// respondInvalidPayload answers a body that could not be bound.
func (h *BaseHandler) respondInvalidPayload(c *gin.Context, err error) {
	h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", nil, err.Error())
}

// handleServiceError maps service errors to HTTP responses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", nil, validationErrors)
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		h.RespondWithError(c, http.StatusUnprocessableEntity, businessRuleError.Message, nil, map[string]interface{}{
			"rule":    businessRuleError.Rule,
			"context": businessRuleError.Context,
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		h.RespondWithError(c, http.StatusForbidden, "Access denied", nil, map[string]interface{}{
			"resource": permissionError.Resource,
			"action":   permissionError.Action,
			"reason":   permissionError.Reason,
		})
		return
	}

	switch {
	case services.IsValidation(err):
		h.RespondWithError(c, http.StatusBadRequest, err.Error(), nil)
	case services.IsUnauthorized(err):
		h.RespondWithError(c, http.StatusUnauthorized, err.Error(), nil)
	case services.IsForbidden(err):
		h.RespondWithError(c, http.StatusForbidden, err.Error(), nil)
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, err.Error(), nil)
	case services.IsConflict(err):
		h.RespondWithError(c, http.StatusConflict, err.Error(), nil)
	case services.IsBusinessRule(err):
		h.RespondWithError(c, http.StatusUnprocessableEntity, err.Error(), nil)
	case services.IsUnavailable(err):
		h.RespondWithError(c, http.StatusNotImplemented, err.Error(), nil)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}
