package repository

import (
	"context"
	"errors"
	"fmt"

	"netshop/pkg/metrics"
	"netshop/shop-service/internal/app/shop/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository создает репозиторий заказов. Позиции хранятся в отдельной
// таблице и всегда пишутся вместе с заказом в одной транзакции.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// withPositions подгружает позиции в порядке добавления и их товары
func withPositions(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Positions", func(db *gorm.DB) *gorm.DB {
			return db.Order("positions.sort_order ASC")
		}).
		Preload("Positions.Product")
}

// insertPositions проставляет позициям заказ и порядок и вставляет их
func insertPositions(tx *gorm.DB, order *entity.Order) error {
	if len(order.Positions) == 0 {
		return nil
	}
	for i := range order.Positions {
		p := &order.Positions[i]
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		p.OrderID = order.ID
		p.SortOrder = i
	}
	return tx.Omit(clause.Associations).Create(&order.Positions).Error
}

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) (err error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, "orders")
	defer func() { timer.ObserveDuration(err) }()

	_, err = withTx(ctx, r.db, func(tx *gorm.DB) (struct{}, error) {
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return struct{}{}, err
		}
		return struct{}{}, insertPositions(tx, order)
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "orders")

	var order entity.Order
	err := withPositions(r.db.WithContext(ctx)).First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		timer.ObserveDuration(nil)
		return nil, ErrOrderNotFound
	}
	timer.ObserveDuration(err)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

// List возвращает заказы по фильтру, новые первыми
func (r *orderRepository) List(ctx context.Context, filter entity.OrderFilter) (orders []entity.Order, err error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "orders")
	defer func() { timer.ObserveDuration(err) }()

	q := r.db.WithContext(ctx).Model(&entity.Order{})
	if filter.CreatorID != nil {
		q = q.Where("orders.creator_id = ?", *filter.CreatorID)
	}
	if len(filter.IDs) > 0 {
		q = q.Where("orders.id IN ?", filter.IDs)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("orders.status IN ?", filter.Statuses)
	}
	if len(filter.ProductIDs) > 0 {
		sub := r.db.Model(&entity.Position{}).Select("order_id").Where("product_id IN ?", filter.ProductIDs)
		q = q.Where("orders.id IN (?)", sub)
	}
	q = applyTimeRange(q, "orders.created_at", filter.CreatedAt)
	q = applyTimeRange(q, "orders.updated_at", filter.UpdatedAt)

	if err = withPositions(q).Order("orders.created_at DESC").Order("orders.id").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) Update(ctx context.Context, order *entity.Order, replacePositions bool) (err error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "orders")
	defer func() { timer.ObserveDuration(err) }()

	_, err = withTx(ctx, r.db, func(tx *gorm.DB) (struct{}, error) {
		var locked entity.Order
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, "id = ?", order.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return struct{}{}, ErrOrderNotFound
		}
		if err != nil {
			return struct{}{}, err
		}

		if err := tx.Model(order).Select("status", "updated_at").Updates(order).Error; err != nil {
			return struct{}{}, err
		}
		if !replacePositions {
			return struct{}{}, nil
		}

		if err := tx.Where("order_id = ?", order.ID).Delete(&entity.Position{}).Error; err != nil {
			return struct{}{}, err
		}
		for i := range order.Positions {
			order.Positions[i].ID = uuid.Nil
		}
		return struct{}{}, insertPositions(tx, order)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrOrderNotFound):
		return err
	case isForeignKeyViolation(err):
		return ErrProductNotFound
	default:
		return fmt.Errorf("failed to update order: %w", err)
	}
}

// Delete удаляет заказ, позиции удаляются через CASCADE
func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) (err error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpDelete, "orders")
	defer func() { timer.ObserveDuration(err) }()

	result := r.db.WithContext(ctx).Delete(&entity.Order{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// CountByStatus считает заказы по статусам; статусы без заказов получают 0
func (r *orderRepository) CountByStatus(ctx context.Context) (counts map[entity.OrderStatus]int64, err error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "orders")
	defer func() { timer.ObserveDuration(err) }()

	var rows []struct {
		Status entity.OrderStatus
		Count  int64
	}
	err = r.db.WithContext(ctx).Model(&entity.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	counts = make(map[entity.OrderStatus]int64, len(entity.OrderStatuses()))
	for _, s := range entity.OrderStatuses() {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
