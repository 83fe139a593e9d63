package repositories

import (
	"context"

	"github.com/maritime-school/training-admin/internal/models"
	"gorm.io/gorm"
)

type FormationRepository interface {
	CRUDRepository[models.Formation, uint]

	// CountReferences counts the courses, sessions and enrollments pointing at a formation.
	CountReferences(ctx context.Context, tx *gorm.DB, id uint) (int64, error)
}

type CoursRepository interface {
	CRUDRepository[models.Cours, uint]

	CountAssignments(ctx context.Context, tx *gorm.DB, id uint) (int64, error)
}

type SessionFormationRepository interface {
	CRUDRepository[models.SessionFormation, uint]

	ListByFormation(ctx context.Context, tx *gorm.DB, formationID uint) ([]*models.SessionFormation, error)
	EnrolledCounts(ctx context.Context, tx *gorm.DB) (map[uint]int64, error)
	UpdateStatut(ctx context.Context, tx *gorm.DB, id uint, statut string) error
}
