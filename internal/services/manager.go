package services

import "time"

// ServiceManager exposes every service to the HTTP layer and the jobs.
type ServiceManager interface {
	Auth() AuthService
	User() UserService
	Role() RoleService
	Agent() AgentService
	Formateur() FormateurService
	Formation() FormationService
	Cours() CoursService
	AgentFormation() AgentFormationService
	CoursFormateur() CoursFormateurService
	SessionFormation() SessionFormationService
	SessionAgent() SessionAgentService
	Audit() AuditService
	Dashboard() DashboardService
}

// AuthOptions configures login sessions.
type AuthOptions struct {
	Tokens     *TokenService
	Verifier   IdentityVerifier
	SessionTTL time.Duration
}

type serviceManager struct {
	auth             AuthService
	user             UserService
	role             RoleService
	agent            AgentService
	formateur        FormateurService
	formation        FormationService
	cours            CoursService
	agentFormation   AgentFormationService
	coursFormateur   CoursFormateurService
	sessionFormation SessionFormationService
	sessionAgent     SessionAgentService
	audit            AuditService
	dashboard        DashboardService
}

// NewServiceManager builds every service over deps. permissions is told about
// role changes and may be nil.
func NewServiceManager(deps Dependencies, auth AuthOptions, permissions PermissionInvalidator) ServiceManager {
	return &serviceManager{
		auth:             NewAuthService(deps, auth.Tokens, auth.Verifier, auth.SessionTTL),
		user:             NewUserService(deps),
		role:             NewRoleService(deps, permissions),
		agent:            NewAgentService(deps),
		formateur:        NewFormateurService(deps),
		formation:        NewFormationService(deps),
		cours:            NewCoursService(deps),
		agentFormation:   NewAgentFormationService(deps),
		coursFormateur:   NewCoursFormateurService(deps),
		sessionFormation: NewSessionFormationService(deps),
		sessionAgent:     NewSessionAgentService(deps),
		audit:            NewAuditService(deps),
		dashboard:        NewDashboardService(deps),
	}
}

func (m *serviceManager) Auth() AuthService                         { return m.auth }
func (m *serviceManager) User() UserService                         { return m.user }
func (m *serviceManager) Role() RoleService                         { return m.role }
func (m *serviceManager) Agent() AgentService                       { return m.agent }
func (m *serviceManager) Formateur() FormateurService               { return m.formateur }
func (m *serviceManager) Formation() FormationService               { return m.formation }
func (m *serviceManager) Cours() CoursService                       { return m.cours }
func (m *serviceManager) AgentFormation() AgentFormationService     { return m.agentFormation }
func (m *serviceManager) CoursFormateur() CoursFormateurService     { return m.coursFormateur }
func (m *serviceManager) SessionFormation() SessionFormationService { return m.sessionFormation }
func (m *serviceManager) SessionAgent() SessionAgentService         { return m.sessionAgent }
func (m *serviceManager) Audit() AuditService                       { return m.audit }
func (m *serviceManager) Dashboard() DashboardService               { return m.dashboard }
