package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/maritime-school/training-admin/internal/cache"
	"github.com/maritime-school/training-admin/internal/datatable"
	"github.com/maritime-school/training-admin/internal/events"
	"github.com/maritime-school/training-admin/internal/models"
	"github.com/maritime-school/training-admin/internal/repositories"
	"github.com/maritime-school/training-admin/internal/validator"
)

// Actor is the authenticated caller of a mutation.
type Actor struct {
	UserID    string
	Role      string
	IPAddress string
	UserAgent string
}

// Clock returns the current time. Services take it so tests can pin "today".
type Clock func() time.Time

// Dependencies are shared by every service.
type Dependencies struct {
	Repo      repositories.Repository
	Validator *validator.Validator
	Publisher events.EventPublisher
	// Cache holds session validity. Nil means every check reads the database.
	Cache  cache.CacheService
	Logger *slog.Logger
	Now    Clock
}

func (d Dependencies) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

type AgentService interface {
	List(ctx context.Context, q datatable.Query) (*datatable.Page[*models.Agent], error)
	Export(ctx context.Context, q datatable.Query, format datatable.Format, actor Actor) (*datatable.File, error)
	GetByID(ctx context.Context, id uint) (*models.Agent, error)
	Create(ctx context.Context, req *AgentRequest, actor Actor) (*models.Agent, error)
	Update(ctx context.Context, id uint, req *AgentRequest, actor Actor) (*models.Agent, error)
	Delete(ctx context.Context, id uint, actor Actor) error
	Formations(ctx context.Context, id uint, q datatable.Query) (*datatable.Page[*models.AgentFormation], error)
}

type FormateurService interface {
	List(ctx context.Context, q datatable.Query) (*datatable.Page[*models.Formateur], error)
	Export(ctx context.Context, q datatable.Query, format datatable.Format, actor Actor) (*datatable.File, error)
	GetByID(ctx context.Context, id uint) (*models.Formateur, error)
	Create(ctx context.Context, req *FormateurRequest, actor Actor) (*models.Formateur, error)
	Update(ctx context.Context, id uint, req *FormateurRequest, actor Actor) (*models.Formateur, error)
	Delete(ctx context.Context, id uint, actor Actor) error
	Cours(ctx context.Context, id uint, q datatable.Query) (*datatable.Page[*models.CoursFormateur], error)
}

type FormationService interface {
	List(ctx context.Context, q datatable.Query) (*datatable.Page[*models.Formation], error)
	Export(ctx context.Context, q datatable.Query, format datatable.Format, actor Actor) (*datatable.File, error)
	GetByID(ctx context.Context, id uint) (*models.Formation, error)
	Create(ctx context.Context, req *FormationRequest, actor Actor) (*models.Formation, error)
	Update(ctx context.Context, id uint, req *FormationRequest, actor Actor) (*models.Formation, error)
	Delete(ctx context.Context, id uint, actor Actor) error
	Sessions(ctx context.Context, id uint, q datatable.Query) (*datatable.Page[*models.SessionFormation], error)
}

type CoursService interface {
	List(ctx context.Context, q datatable.Query) (*datatable.Page[*models.Cours], error)
	Export(ctx context.Context, q datatable.Query, format datatable.Format, actor Actor) (*datatable.File, error)
	GetByID(ctx context.Context, id uint) (*models.Cours, error)
	Create(ctx context.Context, req *CoursRequest, actor Actor) (*models.Cours, error)
	Update(ctx context.Context, id uint, req *CoursRequest, actor Actor) (*models.Cours, error)
	Delete(ctx context.Context, id uint, actor Actor) error
}

type AgentFormationService interface {
	List(ctx context.Context, q datatable.Query) (*datatable.Page[*models.AgentFormation], error)
	Export(ctx context.Context, q datatable.Query, format datatable.Format, actor Actor) (*datatable.File, error)
	GetByID(ctx context.Context, id uint) (*models.AgentFormation, error)
	Create(ctx context.Context, req *AgentFormationRequest, actor Actor) (*models.AgentFormation, error)
	Update(ctx context.Context, id uint, req *AgentFormationRequest, actor Actor) (*models.AgentFormation, error)
	Delete(ctx context.Context, id uint, actor Actor) error
}

type CoursFormateurService interface {
	List(ctx context.Context, q datatable.Query) (*datatable.Page[*models.CoursFormateur], error)
	Export(ctx context.Context, q datatable.Query, format datatable.Format, actor Actor) (*datatable.File, error)
	GetByID(ctx context.Context, id uint) (*models.CoursFormateur, error)
	Create(ctx context.Context, req *CoursFormateurRequest, actor Actor) (*models.CoursFormateur, error)
	Update(ctx context.Context, id uint, req *CoursFormateurRequest, actor Actor) (*models.CoursFormateur, error)
	Delete(ctx context.Context, id uint, actor Actor) error
}

type SessionFormationService interface {
	List(ctx context.Context, q datatable.Query) (*datatable.Page[*models.SessionFormation], error)
	Export(ctx context.Context, q datatable.Query, format datatable.Format, actor Actor) (*datatable.File, error)
	GetByID(ctx context.Context, id uint) (*models.SessionFormation, error)
	Create(ctx context.Context, req *SessionFormationRequest, actor Actor) (*models.SessionFormation, error)
	Update(ctx context.Context, id uint, req *SessionFormationRequest, actor Actor) (*models.SessionFormation, error)
	Delete(ctx context.Context, id uint, actor Actor) error
	// SyncStatuses rewrites the stored statut of sessions whose dates moved them
	// to another status, returning how many changed.
	SyncStatuses(ctx context.Context) (int, error)
}

// SessionAgentService edits the roster of one training session.
type SessionAgentService interface {
	Roster(ctx context.Context, sessionID uint) (*models.SessionRoster, error)
	Candidates(ctx context.Context, sessionID uint, matriculePrefix string) ([]*models.Agent, error)
	Add(ctx context.Context, req *models.AddSessionAgentRequest, actor Actor) (*models.AgentFormation, error)
	Update(ctx context.Context, id uint, req *models.UpdateSessionAgentRequest, actor Actor) (*models.AgentFormation, error)
	Confirm(ctx context.Context, id uint, actor Actor) (*models.AgentFormation, error)
	Remove(ctx context.Context, id uint, actor Actor) error
}

type UserService interface {
	List(ctx context.Context, q datatable.Query) (*datatable.Page[*models.User], error)
	Export(ctx context.Context, q datatable.Query, format datatable.Format, actor Actor) (*datatable.File, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, req *CreateUserRequest, actor Actor) (*models.User, error)
	Update(ctx context.Context, id string, req *UpdateUserRequest, actor Actor) (*models.User, error)
	Delete(ctx context.Context, id string, actor Actor) error
	KillSessions(ctx context.Context, userID string, actor Actor) (int64, error)
	AssignRole(ctx context.Context, userID string, role string, actor Actor) (*models.User, error)
	ResetRole(ctx context.Context, userID string, actor Actor) (*models.User, error)
	ChangePassword(ctx context.Context, userID string, req *ChangePasswordRequest, actor Actor) error
}

type RoleService interface {
	List(ctx context.Context, q datatable.Query) (*datatable.Page[*models.Role], error)
	Export(ctx context.Context, q datatable.Query, format datatable.Format, actor Actor) (*datatable.File, error)
	ListAll(ctx context.Context) ([]*models.Role, error)
	GetByName(ctx context.Context, name string) (*models.Role, error)
	Create(ctx context.Context, req *RoleRequest, actor Actor) (*models.Role, error)
	Update(ctx context.Context, name string, req *RoleRequest, actor Actor) (*models.Role, error)
	Delete(ctx context.Context, name string, actor Actor) error
	// EnsureDefaults creates the built-in roles that are missing.
	EnsureDefaults(ctx context.Context) error
}

// AuthService issues and checks login sessions.
type AuthService interface {
	Login(ctx context.Context, req *LoginRequest, client Actor) (*LoginResult, error)
	// LoginWithProvider exchanges an external identity provider code for a local session.
	LoginWithProvider(ctx context.Context, req *CasdoorCallbackRequest, client Actor) (*LoginResult, error)
	Logout(ctx context.Context, principal *Principal) error
	Authenticate(ctx context.Context, token string) (*Principal, error)
	Me(ctx context.Context, userID string) (*models.User, error)
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// PermissionInvalidator drops cached permission maps after a role change.
type PermissionInvalidator interface {
	Invalidate(ctx context.Context)
}

type AuditService interface {
	List(ctx context.Context, filters AuditLogQuery) (*AuditLogPage, error)
}

type DashboardService interface {
	Stats(ctx context.Context) (*DashboardStats, error)
}

// Audited entity names. They double as permission resources.
const (
	EntityUsers           = "users"
	EntityRoles           = "roles"
	EntityAgents          = "agents"
	EntityFormateurs      = "formateurs"
	EntityFormations      = "formations"
	EntityCours           = "cours"
	EntityAgentFormations = "agent-formations"
	EntityCoursFormateurs = "cours-formateurs"
	EntitySessions        = "sessions"
	EntitySessionAgents   = "session-agents"
	EntityAuth            = "auth"
)

func (d Dependencies) validate(req interface{}) error {
	if d.Validator == nil {
		return nil
	}
	return d.Validator.Validate(req)
}
