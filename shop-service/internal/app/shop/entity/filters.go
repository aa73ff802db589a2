package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductFilter - границы цены строгие: price_from < price < price_to
type ProductFilter struct {
	IDs         []uuid.UUID
	Name        string
	Description string
	PriceFrom   *decimal.Decimal
	PriceTo     *decimal.Decimal
}

type CollectionFilter struct {
	Title string
}

// TimeRange - включительный диапазон; нулевая граница не ограничивает
type TimeRange struct {
	After  *time.Time
	Before *time.Time
}

func (r TimeRange) IsZero() bool {
	return r.After == nil && r.Before == nil
}

type OrderFilter struct {
	IDs        []uuid.UUID
	Statuses   []OrderStatus
	ProductIDs []uuid.UUID
	// CreatorID ограничивает выборку заказами одного пользователя
	CreatorID *uuid.UUID
	CreatedAt TimeRange
	UpdatedAt TimeRange
}

type ReviewFilter struct {
	IDs        []uuid.UUID
	ProductIDs []uuid.UUID
	CreatorIDs []uuid.UUID
	CreatedAt  TimeRange
}
