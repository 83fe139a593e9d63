package repositories

import (
	"context"

	"github.com/maritime-school/training-admin/internal/models"
	"gorm.io/gorm"
)

type AuditLogRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *models.AuditLog) error
	List(ctx context.Context, tx *gorm.DB, filters AuditLogFilters) ([]*models.AuditLog, int64, error)
}
