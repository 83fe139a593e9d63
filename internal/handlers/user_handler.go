package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maritime-school/training-admin/internal/models"
	"github.com/maritime-school/training-admin/internal/services"
	"github.com/maritime-school/training-admin/internal/validator"
)

// UserHandler serves the account actions that are not plain CRUD.
type UserHandler struct {
	BaseHandler
	userService services.UserService
	validator   *validator.Validator
}

func NewUserHandler(userService services.UserService, v *validator.Validator, base BaseHandler) *UserHandler {
	return &UserHandler{BaseHandler: base, userService: userService, validator: v}
}

// KillSession ends every login session of a user
// @Summary Kill user sessions
// @Tags users
// @Accept json
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/kill-session [post]
func (h *UserHandler) KillSession(c *gin.Context) {
	var req services.KillSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondInvalidPayload(c, err)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	killed, err := h.userService.KillSessions(c.Request.Context(), req.UserID, actorFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogInfo(c, "Killed user sessions", "target_user_id", req.UserID, "sessions", killed)
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// AssignRole gives a user another role
// @Router /users/{id}/role [put]
func (h *UserHandler) AssignRole(c *gin.Context) {
	id, ok := parseStringIDParam(c, "id")
	if !ok {
		return
	}

	var req services.AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondInvalidPayload(c, err)
		return
	}

	actor := actorFromContext(c)
	var user *models.User
	res := saveDialog(c, h.validator, &req, func(ctx context.Context, draft services.AssignRoleRequest) (err error) {
		user, err = h.userService.AssignRole(ctx, id, draft.Role, actor)
		return err
	})
	if !res.Success {
		h.handleServiceError(c, res.Err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ResetRole puts a user back on the default role
// @Router /users/{id}/role [delete]
func (h *UserHandler) ResetRole(c *gin.Context) {
	id, ok := parseStringIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.ResetRole(c.Request.Context(), id, actorFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Router /users/{id}/password [put]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	id, ok := parseStringIDParam(c, "id")
	if !ok {
		return
	}

	var req services.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondInvalidPayload(c, err)
		return
	}

	actor := actorFromContext(c)
	res := saveDialog(c, h.validator, &req, func(ctx context.Context, draft services.ChangePasswordRequest) error {
		return h.userService.ChangePassword(ctx, id, &draft, actor)
	})
	if !res.Success {
		h.handleServiceError(c, res.Err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// roleEntities exposes RoleService under the entityService method set; roles
// are keyed by name.
type roleEntities struct {
	services.RoleService
}

func (r roleEntities) GetByID(ctx context.Context, name string) (*models.Role, error) {
	return r.GetByName(ctx, name)
}
