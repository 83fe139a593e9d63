package repositories

import (
	"context"
	"time"

	"github.com/maritime-school/training-admin/internal/models"
	"gorm.io/gorm"
)

type UserRepository interface {
	CRUDRepository[models.User, string]

	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, tx *gorm.DB, email string, excludeID string) (bool, error)

	UpdateRole(ctx context.Context, tx *gorm.DB, id string, role string) error
	UpdatePassword(ctx context.Context, tx *gorm.DB, id string, hash string) error

	CountByRole(ctx context.Context, tx *gorm.DB) (map[string]int64, error)
}

// AuthSessionRepository stores login sessions.
type AuthSessionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, session *models.Session) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Session, error)
	Delete(ctx context.Context, tx *gorm.DB, id string) error

	ListIDsByUser(ctx context.Context, tx *gorm.DB, userID string) ([]string, error)
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID string) (int64, error)
	DeleteExpired(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error)

	// ActiveUserIDs returns the users holding at least one unexpired session.
	ActiveUserIDs(ctx context.Context, tx *gorm.DB, now time.Time) (map[string]bool, error)
}

type RoleRepository interface {
	CRUDRepository[models.Role, string]
}
