package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/maritime-school/training-admin/internal/permissions"
	"github.com/maritime-school/training-admin/internal/services"
)

const principalContextKey = "principal"

// AuthHandler serves login, logout and the caller's own profile.
type AuthHandler struct {
	BaseHandler
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService, base BaseHandler) *AuthHandler {
	return &AuthHandler{BaseHandler: base, authService: authService}
}

// Login signs in with email and password
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} services.LoginResult
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondInvalidPayload(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req, actorFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CasdoorCallback exchanges an identity provider code for a session
// @Router /auth/casdoor/callback [post]
func (h *AuthHandler) CasdoorCallback(c *gin.Context) {
	var req services.CasdoorCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondInvalidPayload(c, err)
		return
	}

	result, err := h.authService.LoginWithProvider(c.Request.Context(), &req, actorFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	principal := principalFromContext(c)
	if principal == nil {
		h.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), principal); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.Me(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// MyPermissions lists what the caller's role may do and which controls it sees
// @Router /permissions/me [get]
func (h *AuthHandler) MyPermissions(c *gin.Context) {
	role := c.GetString(permissions.RoleContextKey)
	maps := permissions.FromContext(c)

	perms := maps.Permissions[role]
	if perms == nil {
		perms = []permissions.Permission{}
	}
	components := maps.UIComponents[role]
	if components == nil {
		components = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"role":         role,
		"permissions":  perms,
		"uiComponents": components,
	})
}

// RequireAuth accepts a bearer token and stores the caller in the context.
func (h *AuthHandler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
			return
		}

		principal, err := h.authService.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			if !services.IsUnauthorized(err) {
				h.LogError(c, err, "Authentication failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Details: err.Error()})
			return
		}

		c.Set("user_id", principal.UserID)
		c.Set(permissions.RoleContextKey, principal.Role)
		c.Set(principalContextKey, principal)
		c.Next()
	}
}
