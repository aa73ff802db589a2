package repository

import (
	"context"
	"errors"
	"fmt"

	"netshop/pkg/metrics"
	"netshop/shop-service/internal/app/shop/entity"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

type collectionRepository struct {
	db *gorm.DB
}

func NewCollectionRepository(db *gorm.DB) CollectionRepository {
	return &collectionRepository{db: db}
}

// productRefs превращает id в заглушки товаров для many2many связи
func productRefs(ids []uuid.UUID) []entity.Product {
	return lo.Map(lo.Uniq(ids), func(id uuid.UUID, _ int) entity.Product {
		return entity.Product{ID: id}
	})
}

func (r *collectionRepository) Create(ctx context.Context, collection *entity.Collection, productIDs []uuid.UUID) (err error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, "collections")
	defer func() { timer.ObserveDuration(err) }()

	_, err = withTx(ctx, r.db, func(tx *gorm.DB) (struct{}, error) {
		if err := tx.Omit("Products").Create(collection).Error; err != nil {
			return struct{}{}, err
		}
		if len(productIDs) == 0 {
			return struct{}{}, nil
		}
		// Omit("Products.*") пишет только строки связей, сами товары не трогает
		refs := productRefs(productIDs)
		if err := tx.Model(collection).Omit("Products.*").Association("Products").Append(refs); err != nil {
			return struct{}{}, err
		}
		collection.Products = refs
		return struct{}{}, nil
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (r *collectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Collection, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "collections")

	var collection entity.Collection
	err := r.db.WithContext(ctx).Preload("Products").First(&collection, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		timer.ObserveDuration(nil)
		return nil, ErrCollectionNotFound
	}
	timer.ObserveDuration(err)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	return &collection, nil
}

func (r *collectionRepository) List(ctx context.Context, filter entity.CollectionFilter) (collections []entity.Collection, err error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "collections")
	defer func() { timer.ObserveDuration(err) }()

	q := r.db.WithContext(ctx).Preload("Products")
	if filter.Title != "" {
		q = q.Where("title ILIKE ?", containsPattern(filter.Title))
	}
	if err = q.Order("title ASC").Order("id ASC").Find(&collections).Error; err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return collections, nil
}

func (r *collectionRepository) Update(ctx context.Context, collection *entity.Collection, productIDs *[]uuid.UUID) (err error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "collections")
	defer func() { timer.ObserveDuration(err) }()

	_, err = withTx(ctx, r.db, func(tx *gorm.DB) (struct{}, error) {
		result := tx.Model(collection).
			Select("title", "description", "updated_at").
			Updates(collection)
		if result.Error != nil {
			return struct{}{}, result.Error
		}
		if result.RowsAffected == 0 {
			return struct{}{}, ErrCollectionNotFound
		}
		if productIDs == nil {
			return struct{}{}, nil
		}

		refs := productRefs(*productIDs)
		if err := tx.Model(collection).Omit("Products.*").Association("Products").Replace(refs); err != nil {
			return struct{}{}, err
		}
		collection.Products = refs
		return struct{}{}, nil
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrCollectionNotFound):
		return err
	case isForeignKeyViolation(err):
		return ErrProductNotFound
	default:
		return fmt.Errorf("failed to update collection: %w", err)
	}
}

// Delete удаляет подборку; строки collection_products удаляет CASCADE
func (r *collectionRepository) Delete(ctx context.Context, id uuid.UUID) (err error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpDelete, "collections")
	defer func() { timer.ObserveDuration(err) }()

	result := r.db.WithContext(ctx).Delete(&entity.Collection{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete collection: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCollectionNotFound
	}
	return nil
}
