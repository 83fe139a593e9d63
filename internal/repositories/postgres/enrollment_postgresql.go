package postgres

import (
	"context"

	"github.com/maritime-school/training-admin/internal/models"
	"github.com/maritime-school/training-admin/internal/repositories"
	"gorm.io/gorm"
)

type AgentFormationPostgreSQL struct {
	crudPostgreSQL[models.AgentFormation, uint]
}

func NewAgentFormationPostgreSQL(db *gorm.DB) repositories.AgentFormationRepository {
	return &AgentFormationPostgreSQL{newCRUD[models.AgentFormation, uint](db, "id", "date_debut DESC, id ASC", "Agent", "Formation")}
}

func (a AgentFormationPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AgentFormationFilters) ([]*models.AgentFormation, error) {
	query := a.query(ctx, tx)
	if filters.AgentID != nil {
		query = query.Where("agent_id = ?", *filters.AgentID)
	}
	if filters.FormationID != nil {
		query = query.Where("formation_id = ?", *filters.FormationID)
	}
	if filters.SessionFormationID != nil {
		query = query.Where("session_formation_id = ?", *filters.SessionFormationID)
	}
	if filters.Resultat != nil {
		query = query.Where("resultat = ?", *filters.Resultat)
	}

	var rows []*models.AgentFormation
	if err := query.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (a AgentFormationPostgreSQL) CountBySession(ctx context.Context, tx *gorm.DB, sessionID uint) (int64, error) {
	db := a.getDB(tx)
	var count int64
	err := db.WithContext(ctx).Model(&models.AgentFormation{}).Where("session_formation_id = ?", sessionID).Count(&count).Error
	return count, err
}

func (a AgentFormationPostgreSQL) CountByAgent(ctx context.Context, tx *gorm.DB, agentID uint) (int64, error) {
	db := a.getDB(tx)
	var count int64
	err := db.WithContext(ctx).Model(&models.AgentFormation{}).Where("agent_id = ?", agentID).Count(&count).Error
	return count, err
}

func (a AgentFormationPostgreSQL) ExistsInSession(ctx context.Context, tx *gorm.DB, sessionID, agentID, excludeID uint) (bool, error) {
	db := a.getDB(tx)
	query := db.WithContext(ctx).Model(&models.AgentFormation{}).
		Where("session_formation_id = ? AND agent_id = ?", sessionID, agentID)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (a AgentFormationPostgreSQL) CountByResultat(ctx context.Context, tx *gorm.DB) (map[string]int64, error) {
	db := a.getDB(tx)
	var rows []struct {
		Resultat *string
		Count    int64
	}
	if err := db.WithContext(ctx).Model(&models.AgentFormation{}).
		Select("resultat, COUNT(*) AS count").Group("resultat").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		key := ""
		if r.Resultat != nil {
			key = *r.Resultat
		}
		counts[key] += r.Count
	}
	return counts, nil
}

func (a AgentFormationPostgreSQL) DetachSession(ctx context.Context, tx *gorm.DB, sessionID uint) error {
	db := a.getDB(tx)
	return db.WithContext(ctx).Model(&models.AgentFormation{}).
		Where("session_formation_id = ?", sessionID).
		Update("session_formation_id", nil).Error
}

func (a AgentFormationPostgreSQL) AlignWithSession(ctx context.Context, tx *gorm.DB, session *models.SessionFormation) (int64, error) {
	db := a.getDB(tx)
	result := db.WithContext(ctx).Model(&models.AgentFormation{}).
		Where("session_formation_id = ?", session.ID).
		Updates(map[string]interface{}{
			"formation_id": session.FormationID,
			"date_debut":   session.DateDebut,
			"date_fin":     session.DateFin,
		})
	return result.RowsAffected, result.Error
}

type CoursFormateurPostgreSQL struct {
	crudPostgreSQL[models.CoursFormateur, uint]
}

func NewCoursFormateurPostgreSQL(db *gorm.DB) repositories.CoursFormateurRepository {
	return &CoursFormateurPostgreSQL{newCRUD[models.CoursFormateur, uint](db, "id", "date_debut DESC, id ASC", "Formateur", "Cours")}
}

func (c CoursFormateurPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.CoursFormateurFilters) ([]*models.CoursFormateur, error) {
	query := c.query(ctx, tx)
	if filters.FormateurID != nil {
		query = query.Where("formateur_id = ?", *filters.FormateurID)
	}
	if filters.CoursID != nil {
		query = query.Where("cours_id = ?", *filters.CoursID)
	}

	var rows []*models.CoursFormateur
	if err := query.Order(c.order).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (c CoursFormateurPostgreSQL) CountByFormateur(ctx context.Context, tx *gorm.DB, formateurID uint) (int64, error) {
	db := c.getDB(tx)
	var count int64
	err := db.WithContext(ctx).Model(&models.CoursFormateur{}).Where("formateur_id = ?", formateurID).Count(&count).Error
	return count, err
}
