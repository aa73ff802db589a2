package service

import (
	"context"

	"netshop/shop-service/internal/app/shop/entity"
	"netshop/shop-service/internal/app/shop/policy"

	"github.com/google/uuid"
)

// Интерфейсы сервисов, от которых зависят handlers

type CatalogServiceInterface interface {
	ListProducts(ctx context.Context, filter entity.ProductFilter) ([]entity.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	CreateProduct(ctx context.Context, req *entity.CreateProductRequest) (*entity.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *entity.UpdateProductRequest) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	ListCollections(ctx context.Context, filter entity.CollectionFilter) ([]entity.Collection, error)
	GetCollection(ctx context.Context, id uuid.UUID) (*entity.Collection, error)
	CreateCollection(ctx context.Context, req *entity.CreateCollectionRequest) (*entity.Collection, error)
	UpdateCollection(ctx context.Context, id uuid.UUID, req *entity.UpdateCollectionRequest) (*entity.Collection, error)
	DeleteCollection(ctx context.Context, id uuid.UUID) error
}

type OrderServiceInterface interface {
	ListOrders(ctx context.Context, actor policy.Actor, filter entity.OrderFilter) ([]entity.Order, error)
	GetOrder(ctx context.Context, actor policy.Actor, id uuid.UUID) (*entity.Order, error)
	CreateOrder(ctx context.Context, actor policy.Actor, req *entity.CreateOrderRequest) (*entity.Order, error)
	UpdateOrder(ctx context.Context, actor policy.Actor, id uuid.UUID, req *entity.UpdateOrderRequest) (*entity.Order, error)
	DeleteOrder(ctx context.Context, actor policy.Actor, id uuid.UUID) error
}

type ReviewServiceInterface interface {
	ListReviews(ctx context.Context, actor policy.Actor, filter entity.ReviewFilter) ([]entity.Review, error)
	GetReview(ctx context.Context, actor policy.Actor, id uuid.UUID) (*entity.Review, error)
	CreateReview(ctx context.Context, actor policy.Actor, req *entity.CreateReviewRequest) (*entity.Review, error)
	UpdateReview(ctx context.Context, actor policy.Actor, id uuid.UUID, req *entity.UpdateReviewRequest) (*entity.Review, error)
	DeleteReview(ctx context.Context, actor policy.Actor, id uuid.UUID) error
}

var (
	_ CatalogServiceInterface = (*CatalogService)(nil)
	_ OrderServiceInterface   = (*OrderService)(nil)
	_ ReviewServiceInterface  = (*ReviewService)(nil)
)
