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

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository создает репозиторий товаров поверх PostgreSQL
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *entity.Product) (err error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, "products")
	defer func() { timer.ObserveDuration(err) }()

	if err = r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "products")

	var product entity.Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		timer.ObserveDuration(nil)
		return nil, ErrProductNotFound
	}
	timer.ObserveDuration(err)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &product, nil
}

// List возвращает товары по фильтру. Границы цены строгие.
func (r *productRepository) List(ctx context.Context, filter entity.ProductFilter) (products []entity.Product, err error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "products")
	defer func() { timer.ObserveDuration(err) }()

	q := r.db.WithContext(ctx).Model(&entity.Product{})
	if len(filter.IDs) > 0 {
		q = q.Where("id IN ?", filter.IDs)
	}
	if filter.Name != "" {
		q = q.Where("name ILIKE ?", containsPattern(filter.Name))
	}
	if filter.Description != "" {
		q = q.Where("description ILIKE ?", containsPattern(filter.Description))
	}
	if filter.PriceFrom != nil {
		q = q.Where("price > ?", *filter.PriceFrom)
	}
	if filter.PriceTo != nil {
		q = q.Where("price < ?", *filter.PriceTo)
	}

	if err = q.Order("name ASC").Order("id ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (r *productRepository) Update(ctx context.Context, product *entity.Product) (err error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "products")
	defer func() { timer.ObserveDuration(err) }()

	result := r.db.WithContext(ctx).Model(product).
		Select("name", "description", "price", "updated_at").
		Updates(product)
	if result.Error != nil {
		return fmt.Errorf("failed to update product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Delete удаляет товар; позиции, отзывы и связи с подборками удаляет CASCADE
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) (err error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpDelete, "products")
	defer func() { timer.ObserveDuration(err) }()

	result := r.db.WithContext(ctx).Delete(&entity.Product{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) MissingIDs(ctx context.Context, ids []uuid.UUID) (missing []uuid.UUID, err error) {
	ids = lo.Uniq(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "products")
	defer func() { timer.ObserveDuration(err) }()

	var found []uuid.UUID
	if err = r.db.WithContext(ctx).Model(&entity.Product{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, fmt.Errorf("failed to check products: %w", err)
	}

	missing, _ = lo.Difference(ids, found)
	return missing, nil
}
