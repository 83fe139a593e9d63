package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/maritime-school/training-admin/internal/models"
	"github.com/maritime-school/training-admin/internal/permissions"
	"github.com/maritime-school/training-admin/internal/services"
	"github.com/maritime-school/training-admin/internal/tables"
	"github.com/maritime-school/training-admin/internal/utils"
	"github.com/maritime-school/training-admin/internal/validator"
)

const (
	resourceDashboard = "dashboard"
	resourceAuditLogs = "audit-logs"
)

// crudRoutes is the handler side of one entity screen.
type crudRoutes interface {
	List(c *gin.Context)
	Export(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

type entityRoutes struct {
	resource string
	handler  crudRoutes
}

type HandlerManager struct {
	base                BaseHandler
	resolver            *permissions.Resolver
	authHandler         *AuthHandler
	userHandler         *UserHandler
	sessionAgentHandler *SessionAgentHandler
	dashboardHandler    *DashboardHandler
	entities            []entityRoutes
	serviceManager      services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	resolver *permissions.Resolver,
	v *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	base := NewBaseHandler(logger)
	sm := serviceManager

	return &HandlerManager{
		base:                base,
		resolver:            resolver,
		serviceManager:      sm,
		authHandler:         NewAuthHandler(sm.Auth(), base),
		userHandler:         NewUserHandler(sm.User(), v, base),
		sessionAgentHandler: NewSessionAgentHandler(sm.SessionAgent(), v, base),
		dashboardHandler:    NewDashboardHandler(sm.Dashboard(), sm.Audit(), base),
		entities: []entityRoutes{
			{services.EntityUsers, NewEntityHandler[*models.User, services.CreateUserRequest, services.UpdateUserRequest, string](
				services.EntityUsers, sm.User(), tables.Users(), parseStringIDParam, v, base)},
			{services.EntityRoles, NewEntityHandler[*models.Role, services.RoleRequest, services.RoleRequest, string](
				services.EntityRoles, roleEntities{sm.Role()}, tables.Roles(), parseStringIDParam, v, base)},
			{services.EntityAgents, NewEntityHandler[*models.Agent, services.AgentRequest, services.AgentRequest, uint](
				services.EntityAgents, sm.Agent(), tables.Agents(), parseIDParam, v, base)},
			{services.EntityFormateurs, NewEntityHandler[*models.Formateur, services.FormateurRequest, services.FormateurRequest, uint](
				services.EntityFormateurs, sm.Formateur(), tables.Formateurs(), parseIDParam, v, base)},
			{services.EntityFormations, NewEntityHandler[*models.Formation, services.FormationRequest, services.FormationRequest, uint](
				services.EntityFormations, sm.Formation(), tables.Formations(), parseIDParam, v, base)},
			{services.EntityCours, NewEntityHandler[*models.Cours, services.CoursRequest, services.CoursRequest, uint](
				services.EntityCours, sm.Cours(), tables.Cours(), parseIDParam, v, base)},
			{services.EntityAgentFormations, NewEntityHandler[*models.AgentFormation, services.AgentFormationRequest, services.AgentFormationRequest, uint](
				services.EntityAgentFormations, sm.AgentFormation(), tables.AgentFormations(), parseIDParam, v, base)},
			{services.EntityCoursFormateurs, NewEntityHandler[*models.CoursFormateur, services.CoursFormateurRequest, services.CoursFormateurRequest, uint](
				services.EntityCoursFormateurs, sm.CoursFormateur(), tables.CoursFormateurs(), parseIDParam, v, base)},
			{services.EntitySessions, NewEntityHandler[*models.SessionFormation, services.SessionFormationRequest, services.SessionFormationRequest, uint](
				services.EntitySessions, sm.SessionFormation(), tables.Sessions(), parseIDParam, v, base)},
		},
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", HealthCheck)

	api := router.Group("/api")

	// Public auth routes
	auth := api.Group("/auth")
	{
		auth.POST("/login", hm.authHandler.Login)
		auth.POST("/casdoor/callback", hm.authHandler.CasdoorCallback)
	}

	protected := api.Group("")
	protected.Use(hm.authHandler.RequireAuth(), permissions.Inject(hm.resolver))
	{
		protected.POST("/auth/logout", hm.authHandler.Logout)
		protected.GET("/auth/me", hm.authHandler.Me)
		protected.GET("/permissions/me", hm.authHandler.MyPermissions)

		protected.GET("/dashboard/stats",
			permissions.RequirePermission(resourceDashboard, permissions.ActionRead),
			hm.dashboardHandler.Stats)
		protected.GET("/audit-logs",
			permissions.RequirePermission(resourceAuditLogs, permissions.ActionRead),
			hm.dashboardHandler.AuditLogs)

		// Account actions
		users := protected.Group("/users")
		{
			users.POST("/kill-session",
				permissions.RequirePermission(services.EntityUsers, permissions.ActionUpdate),
				permissions.RequireUIComponent(models.UIKillSession),
				hm.userHandler.KillSession)
			users.PUT("/:id/role",
				permissions.RequirePermission(services.EntityUsers, permissions.ActionUpdate),
				hm.userHandler.AssignRole)
			users.DELETE("/:id/role",
				permissions.RequirePermission(services.EntityUsers, permissions.ActionUpdate),
				hm.userHandler.ResetRole)
			users.PUT("/:id/password",
				permissions.RequirePermission(services.EntityUsers, permissions.ActionUpdate),
				hm.userHandler.ChangePassword)
		}

		// Sub-lists
		sm := hm.serviceManager
		protected.GET("/agents/:id/formations",
			permissions.RequirePermission(services.EntityAgentFormations, permissions.ActionRead),
			subListHandler(&hm.base, tables.AgentFormations(), sm.Agent().Formations))
		protected.GET("/formateurs/:id/cours",
			permissions.RequirePermission(services.EntityCoursFormateurs, permissions.ActionRead),
			subListHandler(&hm.base, tables.CoursFormateurs(), sm.Formateur().Cours))
		protected.GET("/formations/:id/sessions",
			permissions.RequirePermission(services.EntitySessions, permissions.ActionRead),
			subListHandler(&hm.base, tables.Sessions(), sm.Formation().Sessions))

		// Session roster
		sessionAgents := protected.Group("/session-agents")
		{
			resource := services.EntitySessionAgents
			sessionAgents.GET("",
				permissions.RequirePermission(resource, permissions.ActionRead),
				hm.sessionAgentHandler.Roster)
			sessionAgents.GET("/candidates",
				permissions.RequirePermission(resource, permissions.ActionRead),
				hm.sessionAgentHandler.Candidates)
			sessionAgents.POST("",
				permissions.RequirePermission(resource, permissions.ActionCreate),
				permissions.RequireUIComponent(models.UIRosterEditor),
				hm.sessionAgentHandler.Add)
			sessionAgents.PUT("/:id",
				permissions.RequirePermission(resource, permissions.ActionUpdate),
				hm.sessionAgentHandler.Update)
			sessionAgents.POST("/:id/confirm",
				permissions.RequirePermission(resource, permissions.ActionUpdate),
				permissions.RequireUIComponent(models.UIResultatDropdown),
				hm.sessionAgentHandler.Confirm)
			sessionAgents.DELETE("/:id",
				permissions.RequirePermission(resource, permissions.ActionDelete),
				permissions.RequireUIComponent(models.UIRosterEditor),
				hm.sessionAgentHandler.Remove)
		}

		for _, e := range hm.entities {
			registerEntity(protected, e.resource, e.handler)
		}
	}
}

// registerEntity mounts list, export and CRUD routes for one entity, each
// behind its resource permission.
func registerEntity(api *gin.RouterGroup, resource string, h crudRoutes) {
	g := api.Group("/" + resource)

	read := permissions.RequirePermission(resource, permissions.ActionRead)
	g.GET("", read, h.List)
	g.GET("/export",
		permissions.RequirePermission(resource, permissions.ActionExport),
		permissions.RequireUIComponent(models.UIExportButtons),
		h.Export)
	g.GET("/:id", read, h.Get)

	create := []gin.HandlerFunc{permissions.RequirePermission(resource, permissions.ActionCreate)}
	update := []gin.HandlerFunc{permissions.RequirePermission(resource, permissions.ActionUpdate)}
	remove := []gin.HandlerFunc{permissions.RequirePermission(resource, permissions.ActionDelete)}
	if resource == services.EntityRoles {
		create = append(create, permissions.RequireUIComponent(models.UIRoleEditor))
		update = append(update, permissions.RequireUIComponent(models.UIRoleEditor))
		remove = append(remove, permissions.RequireUIComponent(models.UIRoleEditor))
	}
	g.POST("", append(create, h.Create)...)
	g.PUT("/:id", append(update, h.Update)...)
	g.DELETE("/:id", append(remove, h.Delete)...)
}
