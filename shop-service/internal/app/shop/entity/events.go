package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventProductCreated    = "PRODUCT_CREATED"
	EventProductUpdated    = "PRODUCT_UPDATED"
	EventProductDeleted    = "PRODUCT_DELETED"
	EventOrderCreated      = "ORDER_CREATED"
	EventOrderUpdated      = "ORDER_UPDATED"
	EventOrderDeleted      = "ORDER_DELETED"
	EventReviewCreated     = "REVIEW_CREATED"
	EventReviewUpdated     = "REVIEW_UPDATED"
	EventReviewDeleted     = "REVIEW_DELETED"
	EventCollectionChanged = "COLLECTION_CHANGED"
)

// ProductEvent - событие изменения товара для Kafka
type ProductEvent struct {
	EventType string          `json:"event_type"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

// OrderEvent - событие изменения заказа. TotalCost считается на момент события
type OrderEvent struct {
	EventType      string          `json:"event_type"`
	OrderID        uuid.UUID       `json:"order_id"`
	CreatorID      uuid.UUID       `json:"creator_id"`
	Status         OrderStatus     `json:"status,omitempty"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	PositionsCount int             `json:"positions_count"`
	Timestamp      time.Time       `json:"timestamp"`
}

type ReviewEvent struct {
	EventType string    `json:"event_type"`
	ReviewID  uuid.UUID `json:"review_id"`
	ProductID uuid.UUID `json:"product_id"`
	CreatorID uuid.UUID `json:"creator_id"`
	Rating    int       `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}

type CollectionEvent struct {
	EventType    string    `json:"event_type"`
	CollectionID uuid.UUID `json:"collection_id"`
	Deleted      bool      `json:"deleted"`
	Timestamp    time.Time `json:"timestamp"`
}
