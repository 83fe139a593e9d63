package postgres

import (
	"context"

	"github.com/maritime-school/training-admin/internal/models"
	"github.com/maritime-school/training-admin/internal/repositories"
	"gorm.io/gorm"
)

type FormationPostgreSQL struct {
	crudPostgreSQL[models.Formation, uint]
}

func NewFormationPostgreSQL(db *gorm.DB) repositories.FormationRepository {
	return &FormationPostgreSQL{newCRUD[models.Formation, uint](db, "id", "id ASC")}
}

func (f FormationPostgreSQL) CountReferences(ctx context.Context, tx *gorm.DB, id uint) (int64, error) {
	db := f.getDB(tx).WithContext(ctx)

	var total int64
	for _, model := range []interface{}{&models.Cours{}, &models.SessionFormation{}, &models.AgentFormation{}} {
		var count int64
		if err := db.Model(model).Where("formation_id = ?", id).Count(&count).Error; err != nil {
			return 0, err
		}
		total += count
	}
	return total, nil
}

type CoursPostgreSQL struct {
	crudPostgreSQL[models.Cours, uint]
}

func NewCoursPostgreSQL(db *gorm.DB) repositories.CoursRepository {
	return &CoursPostgreSQL{newCRUD[models.Cours, uint](db, "id", "id ASC", "Formation")}
}

func (c CoursPostgreSQL) CountAssignments(ctx context.Context, tx *gorm.DB, id uint) (int64, error) {
	db := c.getDB(tx)
	var count int64
	err := db.WithContext(ctx).Model(&models.CoursFormateur{}).Where("cours_id = ?", id).Count(&count).Error
	return count, err
}

type SessionFormationPostgreSQL struct {
	crudPostgreSQL[models.SessionFormation, uint]
}

func NewSessionFormationPostgreSQL(db *gorm.DB) repositories.SessionFormationRepository {
	return &SessionFormationPostgreSQL{newCRUD[models.SessionFormation, uint](db, "id", "date_debut DESC, id ASC", "Formation")}
}

func (s SessionFormationPostgreSQL) ListByFormation(ctx context.Context, tx *gorm.DB, formationID uint) ([]*models.SessionFormation, error) {
	var sessions []*models.SessionFormation
	if err := s.query(ctx, tx).Where("formation_id = ?", formationID).
		Order(s.order).Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s SessionFormationPostgreSQL) EnrolledCounts(ctx context.Context, tx *gorm.DB) (map[uint]int64, error) {
	db := s.getDB(tx)
	var rows []struct {
		SessionFormationID uint
		Count              int64
	}
	if err := db.WithContext(ctx).Model(&models.AgentFormation{}).
		Select("session_formation_id, COUNT(*) AS count").
		Where("session_formation_id IS NOT NULL").
		Group("session_formation_id").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.SessionFormationID] = r.Count
	}
	return counts, nil
}

func (s SessionFormationPostgreSQL) UpdateStatut(ctx context.Context, tx *gorm.DB, id uint, statut string) error {
	db := s.getDB(tx)
	return db.WithContext(ctx).Model(&models.SessionFormation{}).Where("id = ?", id).Update("statut", statut).Error
}
