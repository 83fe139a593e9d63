package postgres

import (
	"context"

	"github.com/maritime-school/training-admin/internal/models"
	"github.com/maritime-school/training-admin/internal/repositories"
	"gorm.io/gorm"
)

type AuditLogPostgreSQL struct {
	db *gorm.DB
}

func NewAuditLogPostgreSQL(db *gorm.DB) repositories.AuditLogRepository {
	return &AuditLogPostgreSQL{db: db}
}

func (a AuditLogPostgreSQL) Create(ctx context.Context, tx *gorm.DB, entry *models.AuditLog) error {
	db := a.getDB(tx)
	return db.WithContext(ctx).Create(entry).Error
}

func (a AuditLogPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AuditLogFilters) ([]*models.AuditLog, int64, error) {
	db := a.getDB(tx)
	query := db.WithContext(ctx).Model(&models.AuditLog{})
	if filters.Entity != "" {
		query = query.Where("entity = ?", filters.Entity)
	}
	if filters.EntityID != "" {
		query = query.Where("entity_id = ?", filters.EntityID)
	}
	if filters.ActorID != "" {
		query = query.Where("actor_id = ?", filters.ActorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var entries []*models.AuditLog
	if err := query.Order("created_at DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (a AuditLogPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}
