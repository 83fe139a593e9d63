package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// crudPostgreSQL implements repositories.CRUDRepository for a model keyed by column key.
type crudPostgreSQL[T any, K comparable] struct {
	db       *gorm.DB
	key      string
	order    string
	preloads []string
}

func newCRUD[T any, K comparable](db *gorm.DB, key, order string, preloads ...string) crudPostgreSQL[T, K] {
	return crudPostgreSQL[T, K]{db: db, key: key, order: order, preloads: preloads}
}

func (r crudPostgreSQL[T, K]) Create(ctx context.Context, tx *gorm.DB, entity *T) error {
	db := r.getDB(tx)
	return db.WithContext(ctx).Omit(clause.Associations).Create(entity).Error
}

func (r crudPostgreSQL[T, K]) GetByID(ctx context.Context, tx *gorm.DB, id K) (*T, error) {
	var entity T
	if err := r.query(ctx, tx).Where(r.key+" = ?", id).First(&entity).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

// Update writes every column of entity. Associations are never cascaded.
func (r crudPostgreSQL[T, K]) Update(ctx context.Context, tx *gorm.DB, entity *T) error {
	db := r.getDB(tx)
	return db.WithContext(ctx).Omit(clause.Associations).Save(entity).Error
}

func (r crudPostgreSQL[T, K]) Delete(ctx context.Context, tx *gorm.DB, id K) error {
	db := r.getDB(tx)
	result := db.WithContext(ctx).Where(r.key+" = ?", id).Delete(new(T))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r crudPostgreSQL[T, K]) ListAll(ctx context.Context, tx *gorm.DB) ([]*T, error) {
	var entities []*T
	if err := r.query(ctx, tx).Order(r.order).Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

func (r crudPostgreSQL[T, K]) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	db := r.getDB(tx)
	var count int64
	err := db.WithContext(ctx).Model(new(T)).Count(&count).Error
	return count, err
}

func (r crudPostgreSQL[T, K]) query(ctx context.Context, tx *gorm.DB) *gorm.DB {
	db := r.getDB(tx).WithContext(ctx)
	for _, p := range r.preloads {
		db = db.Preload(p)
	}
	return db
}

func (r crudPostgreSQL[T, K]) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
