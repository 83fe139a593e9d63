package postgres

import (
	"context"

	"github.com/maritime-school/training-admin/internal/models"
	"github.com/maritime-school/training-admin/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB

	user             repositories.UserRepository
	authSession      repositories.AuthSessionRepository
	role             repositories.RoleRepository
	agent            repositories.AgentRepository
	formateur        repositories.FormateurRepository
	formation        repositories.FormationRepository
	cours            repositories.CoursRepository
	sessionFormation repositories.SessionFormationRepository
	agentFormation   repositories.AgentFormationRepository
	coursFormateur   repositories.CoursFormateurRepository
	auditLog         repositories.AuditLogRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		db:               db,
		user:             NewUserPostgreSQL(db),
		authSession:      NewAuthSessionPostgreSQL(db),
		role:             NewRolePostgreSQL(db),
		agent:            NewAgentPostgreSQL(db),
		formateur:        NewFormateurPostgreSQL(db),
		formation:        NewFormationPostgreSQL(db),
		cours:            NewCoursPostgreSQL(db),
		sessionFormation: NewSessionFormationPostgreSQL(db),
		agentFormation:   NewAgentFormationPostgreSQL(db),
		coursFormateur:   NewCoursFormateurPostgreSQL(db),
		auditLog:         NewAuditLogPostgreSQL(db),
	}
}

func (r *repository) User() repositories.UserRepository                     { return r.user }
func (r *repository) AuthSession() repositories.AuthSessionRepository       { return r.authSession }
func (r *repository) Role() repositories.RoleRepository                     { return r.role }
func (r *repository) Agent() repositories.AgentRepository                   { return r.agent }
func (r *repository) Formateur() repositories.FormateurRepository           { return r.formateur }
func (r *repository) Formation() repositories.FormationRepository           { return r.formation }
func (r *repository) Cours() repositories.CoursRepository                   { return r.cours }
func (r *repository) AgentFormation() repositories.AgentFormationRepository { return r.agentFormation }
func (r *repository) CoursFormateur() repositories.CoursFormateurRepository { return r.coursFormateur }
func (r *repository) AuditLog() repositories.AuditLogRepository             { return r.auditLog }
func (r *repository) SessionFormation() repositories.SessionFormationRepository {
	return r.sessionFormation
}

func (r *repository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AllModels lists every persisted model, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&models.Role{},
		&models.User{},
		&models.Session{},
		&models.Agent{},
		&models.Formateur{},
		&models.Formation{},
		&models.Cours{},
		&models.SessionFormation{},
		&models.AgentFormation{},
		&models.CoursFormateur{},
		&models.AuditLog{},
	}
}

// Migrate creates or updates the schema. With reset it drops every table first.
func Migrate(db *gorm.DB, reset bool) error {
	all := AllModels()
	if reset {
		reversed := make([]interface{}, len(all))
		for i, m := range all {
			reversed[len(all)-1-i] = m
		}
		if err := db.Migrator().DropTable(reversed...); err != nil {
			return err
		}
	}
	return db.AutoMigrate(all...)
}
