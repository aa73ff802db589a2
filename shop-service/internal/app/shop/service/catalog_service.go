package service

import (
	"context"
	"fmt"
	"time"

	"netshop/pkg/logger"
	"netshop/shop-service/internal/app/shop/entity"
	"netshop/shop-service/internal/app/shop/infrastructure"
	"netshop/shop-service/internal/app/shop/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogService - товары и подборки. Полный список подборок кешируется в Redis,
// любая запись, меняющая подборки, сбрасывает кеш.
type CatalogService struct {
	productRepo    repository.ProductRepository
	collectionRepo repository.CollectionRepository
	cache          infrastructure.CollectionCache
	publisher      infrastructure.MessagePublisher
	cacheTTL       time.Duration
}

func NewCatalogService(
	productRepo repository.ProductRepository,
	collectionRepo repository.CollectionRepository,
	cache infrastructure.CollectionCache,
	publisher infrastructure.MessagePublisher,
	cacheTTL time.Duration,
) *CatalogService {
	return &CatalogService{
		productRepo:    productRepo,
		collectionRepo: collectionRepo,
		cache:          cache,
		publisher:      publisher,
		cacheTTL:       cacheTTL,
	}
}

// === PRODUCTS ===

// Цена хранится как decimal(15,2)
const (
	priceDecimalPlaces = 2
	priceMaxDigits     = 15
)

var priceLimit = decimal.New(1, priceMaxDigits-priceDecimalPlaces)

// validatePrice принимает только цены, которые колонка сохранит без округления
func validatePrice(price decimal.Decimal) error {
	switch {
	case price.IsNegative():
		return NewValidationError("price", "must not be negative")
	case !price.Equal(price.Round(priceDecimalPlaces)):
		return NewValidationError("price", fmt.Sprintf("ensure that there are no more than %d decimal places", priceDecimalPlaces))
	case price.GreaterThanOrEqual(priceLimit):
		return NewValidationError("price", fmt.Sprintf("ensure that there are no more than %d digits before the decimal point", priceMaxDigits-priceDecimalPlaces))
	}
	return nil
}

func (s *CatalogService) ListProducts(ctx context.Context, filter entity.ProductFilter) ([]entity.Product, error) {
	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err, "list products")
	}
	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "get product")
	}
	return product, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req *entity.CreateProductRequest) (*entity.Product, error) {
	if req.Price == nil {
		return nil, NewValidationError("price", "required")
	}
	if err := validatePrice(*req.Price); err != nil {
		return nil, err
	}

	now := time.Now()
	product := &entity.Product{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, mapRepoError(err, "create product")
	}

	s.publishProductEvent(ctx, entity.EventProductCreated, product)
	return product, nil
}

// UpdateProduct применяет непустые поля запроса к товару
func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req *entity.UpdateProductRequest) (*entity.Product, error) {
	if req.Price != nil {
		if err := validatePrice(*req.Price); err != nil {
			return nil, err
		}
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "get product")
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, mapRepoError(err, "update product")
	}

	// Подборки в кеше хранят товары целиком
	s.invalidateCollections(ctx)
	s.publishProductEvent(ctx, entity.EventProductUpdated, product)
	return product, nil
}

// DeleteProduct удаляет товар вместе с позициями заказов, отзывами и связями с подборками
func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "delete product")
	}

	s.invalidateCollections(ctx)
	s.publishProductEvent(ctx, entity.EventProductDeleted, &entity.Product{ID: id})
	return nil
}

func (s *CatalogService) publishProductEvent(ctx context.Context, eventType string, p *entity.Product) {
	publishEvent(ctx, s.publisher, p.ID.String(), eventType, entity.ProductEvent{
		EventType: eventType,
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Timestamp: time.Now(),
	})
}

// === COLLECTIONS ===

// ListCollections отдает полный список из кеша; запросы с фильтром идут мимо кеша
func (s *CatalogService) ListCollections(ctx context.Context, filter entity.CollectionFilter) ([]entity.Collection, error) {
	cacheable := filter == entity.CollectionFilter{} && s.cache != nil

	// Версию читаем до похода в базу
	var version int64
	if cacheable {
		cached, v, err := s.cache.GetCollections(ctx)
		switch {
		case err != nil:
			logger.Warn().Err(err).Msg("Failed to read collections from cache")
			cacheable = false
		case cached != nil:
			return cached, nil
		default:
			version = v
		}
	}

	collections, err := s.collectionRepo.List(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err, "list collections")
	}

	if cacheable {
		if err := s.cache.SetCollections(ctx, collections, version, s.cacheTTL); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache collections")
		}
	}
	return collections, nil
}

func (s *CatalogService) GetCollection(ctx context.Context, id uuid.UUID) (*entity.Collection, error) {
	collection, err := s.collectionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "get collection")
	}
	return collection, nil
}

func (s *CatalogService) CreateCollection(ctx context.Context, req *entity.CreateCollectionRequest) (*entity.Collection, error) {
	if err := s.ensureProductsExist(ctx, req.ProductIDs); err != nil {
		return nil, err
	}

	now := time.Now()
	collection := &entity.Collection{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.collectionRepo.Create(ctx, collection, req.ProductIDs); err != nil {
		return nil, mapRepoError(err, "create collection")
	}

	s.afterCollectionChange(ctx, collection.ID, false)
	return s.GetCollection(ctx, collection.ID)
}

func (s *CatalogService) UpdateCollection(ctx context.Context, id uuid.UUID, req *entity.UpdateCollectionRequest) (*entity.Collection, error) {
	collection, err := s.collectionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "get collection")
	}

	if req.ProductIDs != nil {
		if err := s.ensureProductsExist(ctx, *req.ProductIDs); err != nil {
			return nil, err
		}
	}
	if req.Title != nil {
		collection.Title = *req.Title
	}
	if req.Description != nil {
		collection.Description = *req.Description
	}
	collection.UpdatedAt = time.Now()

	if err := s.collectionRepo.Update(ctx, collection, req.ProductIDs); err != nil {
		return nil, mapRepoError(err, "update collection")
	}

	s.afterCollectionChange(ctx, id, false)
	return s.GetCollection(ctx, id)
}

func (s *CatalogService) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	if err := s.collectionRepo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "delete collection")
	}

	s.afterCollectionChange(ctx, id, true)
	return nil
}

// ensureProductsExist возвращает ErrProductNotFound, если хотя бы одного товара нет
func (s *CatalogService) ensureProductsExist(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	missing, err := s.productRepo.MissingIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to check products: %w", err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrProductNotFound, missing[0])
	}
	return nil
}

func (s *CatalogService) afterCollectionChange(ctx context.Context, id uuid.UUID, deleted bool) {
	s.invalidateCollections(ctx)
	publishEvent(ctx, s.publisher, id.String(), entity.EventCollectionChanged, entity.CollectionEvent{
		EventType:    entity.EventCollectionChanged,
		CollectionID: id,
		Deleted:      deleted,
		Timestamp:    time.Now(),
	})
}

func (s *CatalogService) invalidateCollections(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCollections(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to invalidate collections cache")
	}
}
