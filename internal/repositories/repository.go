package repositories

import (
	"context"

	"gorm.io/gorm"
)

// CRUDRepository is the shape shared by every entity repository. A nil tx runs
// on the repository's own connection.
type CRUDRepository[T any, K comparable] interface {
	Create(ctx context.Context, tx *gorm.DB, entity *T) error
	GetByID(ctx context.Context, tx *gorm.DB, id K) (*T, error)
	Update(ctx context.Context, tx *gorm.DB, entity *T) error
	Delete(ctx context.Context, tx *gorm.DB, id K) error
	ListAll(ctx context.Context, tx *gorm.DB) ([]*T, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

// Repository groups the entity repositories over one database.
type Repository interface {
	User() UserRepository
	AuthSession() AuthSessionRepository
	Role() RoleRepository
	Agent() AgentRepository
	Formateur() FormateurRepository
	Formation() FormationRepository
	Cours() CoursRepository
	SessionFormation() SessionFormationRepository
	AgentFormation() AgentFormationRepository
	CoursFormateur() CoursFormateurRepository
	AuditLog() AuditLogRepository

	// WithTransaction runs fn in a transaction, rolled back when fn fails.
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	Ping(ctx context.Context) error
	Close() error
}
