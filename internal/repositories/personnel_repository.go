package repositories

import (
	"context"
	"time"

	"github.com/maritime-school/training-admin/internal/models"
	"gorm.io/gorm"
)

type AgentRepository interface {
	CRUDRepository[models.Agent, uint]

	GetByMatricule(ctx context.Context, tx *gorm.DB, matricule string) (*models.Agent, error)
	ExistsByMatricule(ctx context.Context, tx *gorm.DB, matricule string, excludeID uint) (bool, error)
	Search(ctx context.Context, tx *gorm.DB, search AgentSearch) ([]*models.Agent, error)

	// LastFormationDates maps each agent to the start date of their latest enrollment.
	LastFormationDates(ctx context.Context, tx *gorm.DB) (map[uint]time.Time, error)
}

type FormateurRepository interface {
	CRUDRepository[models.Formateur, uint]
}
