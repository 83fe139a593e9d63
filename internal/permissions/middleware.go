package permissions

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	mapsContextKey = "permissions"

	// RoleContextKey is where the authentication middleware stores the caller's role.
	RoleContextKey = "user_role"
)

// Inject resolves the permission maps once per request and stores them in the
// gin context.
func Inject(resolver *Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		maps, err := resolver.Resolve(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve permissions"})
			return
		}
		c.Set(mapsContextKey, maps)
		c.Next()
	}
}

// FromContext returns the maps stored by Inject, or empty maps.
func FromContext(c *gin.Context) *Maps {
	if v, ok := c.Get(mapsContextKey); ok {
		if maps, ok := v.(*Maps); ok {
			return maps
		}
	}
	return &Maps{Permissions: Map{}, UIComponents: UIMap{}}
}

// RequirePermission rejects callers whose role lacks resource:action.
func RequirePermission(resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(RoleContextKey)
		if !FromContext(c).Can(role, resource, action) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Forbidden - insufficient permissions",
				"details": gin.H{
					"resource": resource,
					"action":   action,
					"role":     role,
				},
			})
			return
		}
		c.Next()
	}
}

// RequireUIComponent rejects callers whose role may not use component.
func RequireUIComponent(component string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !AllowUIComponent(c, component) {
			return
		}
		c.Next()
	}
}

// AllowUIComponent reports whether the caller may use component. When it may
// not, the request is aborted with 403. Handlers call it for components that
// guard a single field of a request.
func AllowUIComponent(c *gin.Context, component string) bool {
	role := c.GetString(RoleContextKey)
	if FromContext(c).CanAccessUIComponent(role, component) {
		return true
	}
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"error":   "Forbidden - component not available for role",
		"details": gin.H{"component": component, "role": role},
	})
	return false
}
