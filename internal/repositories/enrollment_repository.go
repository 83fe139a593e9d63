package repositories

import (
	"context"

	"github.com/maritime-school/training-admin/internal/models"
	"gorm.io/gorm"
)

type AgentFormationRepository interface {
	CRUDRepository[models.AgentFormation, uint]

	List(ctx context.Context, tx *gorm.DB, filters AgentFormationFilters) ([]*models.AgentFormation, error)
	CountBySession(ctx context.Context, tx *gorm.DB, sessionID uint) (int64, error)
	CountByAgent(ctx context.Context, tx *gorm.DB, agentID uint) (int64, error)
	// ExistsInSession reports whether agentID already has a row in the session,
	// ignoring row excludeID.
	ExistsInSession(ctx context.Context, tx *gorm.DB, sessionID, agentID, excludeID uint) (bool, error)
	CountByResultat(ctx context.Context, tx *gorm.DB) (map[string]int64, error)
	// DetachSession clears the session link of its rows, keeping the enrollments.
	DetachSession(ctx context.Context, tx *gorm.DB, sessionID uint) error
	// AlignWithSession copies the session's formation and period onto its rows.
	AlignWithSession(ctx context.Context, tx *gorm.DB, session *models.SessionFormation) (int64, error)
}

type CoursFormateurRepository interface {
	CRUDRepository[models.CoursFormateur, uint]

	List(ctx context.Context, tx *gorm.DB, filters CoursFormateurFilters) ([]*models.CoursFormateur, error)
	CountByFormateur(ctx context.Context, tx *gorm.DB, formateurID uint) (int64, error)
}
