package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product представляет товар каталога
type Product struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string          `json:"name" gorm:"type:varchar(50);not null"`
	Description string          `json:"description" gorm:"type:text;not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(15,2);not null"`
	CreatedAt   time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}

// OrderStatus - статус заказа
type OrderStatus string

// remember to add new statuses to the validOrderStatuses map
const (
	OrderStatusNew        OrderStatus = "NEW"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusDone       OrderStatus = "DONE"
)

var validOrderStatuses = map[OrderStatus]struct{}{
	OrderStatusNew:        {},
	OrderStatusInProgress: {},
	OrderStatusDone:       {},
}

// OrderStatuses возвращает словарь статусов в порядке жизненного цикла
func OrderStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusNew, OrderStatusInProgress, OrderStatusDone}
}

func (s OrderStatus) IsValid() bool {
	_, ok := validOrderStatuses[s]
	return ok
}

// Order - заказ пользователя. Итоговая стоимость не хранится, см. TotalCost
type Order struct {
	ID        uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	CreatorID uuid.UUID   `json:"creator_id" gorm:"type:uuid;not null;index"`
	Status    OrderStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	Positions []Position  `json:"positions" gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt time.Time   `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}

// TotalCost считает сумму заказа по текущим позициям и текущим ценам товаров.
// Позиции должны быть загружены вместе с Product.
func (o *Order) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Positions {
		total = total.Add(o.Positions[i].Cost())
	}
	return total
}

// Position - позиция заказа: товар и количество
type Position struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	Product   *Product  `json:"-" gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Quantity  int       `json:"quantity" gorm:"not null;check:chk_positions_quantity,quantity > 0"`
	SortOrder int       `json:"-" gorm:"not null"` // Порядок позиции внутри заказа
}

func (Position) TableName() string {
	return "positions"
}

// Cost - стоимость позиции; ноль, если товар не подгружен
func (p *Position) Cost() decimal.Decimal {
	if p.Product == nil {
		return decimal.Zero
	}
	return p.Product.Price.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// Review - отзыв пользователя о товаре, не больше одного на пару (пользователь, товар)
type Review struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_creator_product,priority:2"`
	Product   *Product  `json:"-" gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatorID uuid.UUID `json:"creator_id" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_creator_product,priority:1"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	Rating    int       `json:"rating" gorm:"not null;check:chk_reviews_rating,rating BETWEEN 1 AND 5"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Review) TableName() string {
	return "reviews"
}

// Collection - подборка товаров для витрины, порядок товаров не гарантируется
type Collection struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Title       string    `json:"title" gorm:"type:varchar(50);not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Products    []Product `json:"products" gorm:"many2many:collection_products;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Collection) TableName() string {
	return "collections"
}

// AllModels - порядок важен для AutoMigrate: сначала таблицы, на которые ссылаются
func AllModels() []interface{} {
	return []interface{}{
		&Product{},
		&Order{},
		&Position{},
		&Review{},
		&Collection{},
	}
}
