package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// === PRODUCTS ===

type CreateProductRequest struct {
	Name        string           `json:"name" validate:"required,min=1,max=50"`
	Description string           `json:"description" validate:"max=2000"`
	Price       *decimal.Decimal `json:"price"`
}

// ToUpdate превращает полную замену (PUT) в обновление всех полей
func (r CreateProductRequest) ToUpdate() UpdateProductRequest {
	return UpdateProductRequest{
		Name:        &r.Name,
		Description: &r.Description,
		Price:       r.Price,
	}
}

type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=50"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price"`
}

// === COLLECTIONS ===

type CreateCollectionRequest struct {
	Title       string      `json:"title" validate:"required,min=1,max=50"`
	Description string      `json:"description" validate:"max=2000"`
	ProductIDs  []uuid.UUID `json:"products" validate:"omitempty,dive,required"`
}

func (r CreateCollectionRequest) ToUpdate() UpdateCollectionRequest {
	ids := r.ProductIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return UpdateCollectionRequest{
		Title:       &r.Title,
		Description: &r.Description,
		ProductIDs:  &ids,
	}
}

// UpdateCollectionRequest - nil в ProductIDs означает "не трогать связи",
// пустой список очищает подборку
type UpdateCollectionRequest struct {
	Title       *string      `json:"title" validate:"omitempty,min=1,max=50"`
	Description *string      `json:"description" validate:"omitempty,max=2000"`
	ProductIDs  *[]uuid.UUID `json:"products" validate:"omitempty,dive,required"`
}

// === ORDERS ===

type PositionRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gte=1"`
}

type CreateOrderRequest struct {
	Positions []PositionRequest `json:"positions" validate:"required,min=1,dive"`
}

type ReplaceOrderRequest struct {
	Status    OrderStatus       `json:"status" validate:"required,order_status"`
	Positions []PositionRequest `json:"positions" validate:"required,min=1,dive"`
}

func (r ReplaceOrderRequest) ToUpdate() UpdateOrderRequest {
	status := r.Status
	positions := r.Positions
	return UpdateOrderRequest{
		Status:    &status,
		Positions: &positions,
	}
}

// UpdateOrderRequest - частичное обновление заказа администратором
type UpdateOrderRequest struct {
	Status    *OrderStatus       `json:"status" validate:"omitempty,order_status"`
	Positions *[]PositionRequest `json:"positions" validate:"omitempty,min=1,dive"`
}

// === REVIEWS ===

type CreateReviewRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Text      string    `json:"text" validate:"required,min=1,max=5000"`
	Rating    int       `json:"rating" validate:"required,gte=1,lte=5"`
}

type ReplaceReviewRequest struct {
	Text   string `json:"text" validate:"required,min=1,max=5000"`
	Rating int    `json:"rating" validate:"required,gte=1,lte=5"`
}

func (r ReplaceReviewRequest) ToUpdate() UpdateReviewRequest {
	return UpdateReviewRequest{Text: &r.Text, Rating: &r.Rating}
}

// UpdateReviewRequest не содержит product_id: товар отзыва менять нельзя
type UpdateReviewRequest struct {
	Text   *string `json:"text" validate:"omitempty,min=1,max=5000"`
	Rating *int    `json:"rating" validate:"omitempty,gte=1,lte=5"`
}

// === RESPONSES ===

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

type PositionResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Cost      decimal.Decimal `json:"cost"`
}

type OrderResponse struct {
	ID        uuid.UUID          `json:"id"`
	CreatorID uuid.UUID          `json:"creator_id"`
	Status    OrderStatus        `json:"status"`
	Positions []PositionResponse `json:"positions"`
	TotalCost decimal.Decimal    `json:"total_cost"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewOrderResponse собирает представление заказа; позиции должны быть загружены с товарами
func NewOrderResponse(o *Order) OrderResponse {
	positions := make([]PositionResponse, 0, len(o.Positions))
	for i := range o.Positions {
		p := &o.Positions[i]
		resp := PositionResponse{
			ID:        p.ID,
			ProductID: p.ProductID,
			Quantity:  p.Quantity,
			Cost:      p.Cost(),
		}
		if p.Product != nil {
			resp.Name = p.Product.Name
			resp.Price = p.Product.Price
		}
		positions = append(positions, resp)
	}

	return OrderResponse{
		ID:        o.ID,
		CreatorID: o.CreatorID,
		Status:    o.Status,
		Positions: positions,
		TotalCost: o.TotalCost(),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

type CollectionResponse struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Products    []uuid.UUID `json:"products"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func NewCollectionResponse(c *Collection) CollectionResponse {
	ids := make([]uuid.UUID, 0, len(c.Products))
	for _, p := range c.Products {
		ids = append(ids, p.ID)
	}
	return CollectionResponse{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Products:    ids,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

type ListResponse[T any] struct {
	Results []T `json:"results"`
	Total   int `json:"total"`
}

func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Results: items, Total: len(items)}
}
