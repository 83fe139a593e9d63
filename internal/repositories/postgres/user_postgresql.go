package postgres

import (
	"context"
	"time"

	"github.com/maritime-school/training-admin/internal/models"
	"github.com/maritime-school/training-admin/internal/repositories"
	"gorm.io/gorm"
)

type UserPostgreSQL struct {
	crudPostgreSQL[models.User, string]
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{newCRUD[models.User, string](db, "id", "created_at ASC")}
}

func (u UserPostgreSQL) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	db := u.getDB(tx)
	var user models.User
	if err := db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (u UserPostgreSQL) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string, excludeID string) (bool, error) {
	db := u.getDB(tx)
	query := db.WithContext(ctx).Model(&models.User{}).Where("LOWER(email) = LOWER(?)", email)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (u UserPostgreSQL) UpdateRole(ctx context.Context, tx *gorm.DB, id string, role string) error {
	db := u.getDB(tx)
	result := db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"role": role, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (u UserPostgreSQL) UpdatePassword(ctx context.Context, tx *gorm.DB, id string, hash string) error {
	db := u.getDB(tx)
	result := db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"password": hash, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (u UserPostgreSQL) CountByRole(ctx context.Context, tx *gorm.DB) (map[string]int64, error) {
	db := u.getDB(tx)
	var rows []struct {
		Role  string
		Count int64
	}
	if err := db.WithContext(ctx).Model(&models.User{}).
		Select("role, COUNT(*) AS count").Group("role").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Role] = r.Count
	}
	return counts, nil
}

type AuthSessionPostgreSQL struct {
	db *gorm.DB
}

func NewAuthSessionPostgreSQL(db *gorm.DB) repositories.AuthSessionRepository {
	return &AuthSessionPostgreSQL{db: db}
}

func (a AuthSessionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, session *models.Session) error {
	db := a.getDB(tx)
	return db.WithContext(ctx).Create(session).Error
}

func (a AuthSessionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Session, error) {
	db := a.getDB(tx)
	var session models.Session
	if err := db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (a AuthSessionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	db := a.getDB(tx)
	return db.WithContext(ctx).Where("id = ?", id).Delete(&models.Session{}).Error
}

func (a AuthSessionPostgreSQL) ListIDsByUser(ctx context.Context, tx *gorm.DB, userID string) ([]string, error) {
	db := a.getDB(tx)
	var ids []string
	err := db.WithContext(ctx).Model(&models.Session{}).Where("user_id = ?", userID).Pluck("id", &ids).Error
	return ids, err
}

func (a AuthSessionPostgreSQL) DeleteByUser(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	db := a.getDB(tx)
	result := db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Session{})
	return result.RowsAffected, result.Error
}

func (a AuthSessionPostgreSQL) DeleteExpired(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	db := a.getDB(tx)
	result := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.Session{})
	return result.RowsAffected, result.Error
}

func (a AuthSessionPostgreSQL) ActiveUserIDs(ctx context.Context, tx *gorm.DB, now time.Time) (map[string]bool, error) {
	db := a.getDB(tx)
	var ids []string
	if err := db.WithContext(ctx).Model(&models.Session{}).
		Where("expires_at > ?", now).Distinct().Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}

	active := make(map[string]bool, len(ids))
	for _, id := range ids {
		active[id] = true
	}
	return active, nil
}

func (a AuthSessionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

type RolePostgreSQL struct {
	crudPostgreSQL[models.Role, string]
}

func NewRolePostgreSQL(db *gorm.DB) repositories.RoleRepository {
	return &RolePostgreSQL{newCRUD[models.Role, string](db, "name", "is_system DESC, name ASC")}
}
