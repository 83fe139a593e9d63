package postgres

import (
	"context"
	"time"

	"github.com/maritime-school/training-admin/internal/models"
	"github.com/maritime-school/training-admin/internal/repositories"
	"gorm.io/gorm"
)

type AgentPostgreSQL struct {
	crudPostgreSQL[models.Agent, uint]
}

func NewAgentPostgreSQL(db *gorm.DB) repositories.AgentRepository {
	return &AgentPostgreSQL{newCRUD[models.Agent, uint](db, "id", "id ASC")}
}

func (a AgentPostgreSQL) GetByMatricule(ctx context.Context, tx *gorm.DB, matricule string) (*models.Agent, error) {
	db := a.getDB(tx)
	var agent models.Agent
	if err := db.WithContext(ctx).Where("matricule = ?", matricule).First(&agent).Error; err != nil {
		return nil, err
	}
	return &agent, nil
}

func (a AgentPostgreSQL) ExistsByMatricule(ctx context.Context, tx *gorm.DB, matricule string, excludeID uint) (bool, error) {
	db := a.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Agent{}).Where("matricule = ?", matricule)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (a AgentPostgreSQL) Search(ctx context.Context, tx *gorm.DB, search repositories.AgentSearch) ([]*models.Agent, error) {
	db := a.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Agent{})
	if search.MatriculePrefix != "" {
		query = query.Where("matricule LIKE ?", search.MatriculePrefix+"%")
	}
	if len(search.ExcludeIDs) > 0 {
		query = query.Where("id NOT IN ?", search.ExcludeIDs)
	}
	if search.Limit > 0 {
		query = query.Limit(search.Limit)
	}

	var agents []*models.Agent
	if err := query.Order("matricule ASC").Find(&agents).Error; err != nil {
		return nil, err
	}
	return agents, nil
}

// LastFormationDates is computed in Go so that it behaves the same on sqlite,
// where MAX over a datetime column comes back as text.
func (a AgentPostgreSQL) LastFormationDates(ctx context.Context, tx *gorm.DB) (map[uint]time.Time, error) {
	db := a.getDB(tx)
	var rows []struct {
		AgentID   uint
		DateDebut time.Time
	}
	if err := db.WithContext(ctx).Model(&models.AgentFormation{}).
		Select("agent_id, date_debut").Scan(&rows).Error; err != nil {
		return nil, err
	}

	latest := make(map[uint]time.Time)
	for _, r := range rows {
		if cur, ok := latest[r.AgentID]; !ok || r.DateDebut.After(cur) {
			latest[r.AgentID] = r.DateDebut
		}
	}
	return latest, nil
}

type FormateurPostgreSQL struct {
	crudPostgreSQL[models.Formateur, uint]
}

func NewFormateurPostgreSQL(db *gorm.DB) repositories.FormateurRepository {
	return &FormateurPostgreSQL{newCRUD[models.Formateur, uint](db, "id", "id ASC")}
}
