package service

import (
	"context"
	"fmt"
	"time"

	"netshop/pkg/metrics"
	"netshop/shop-service/internal/app/shop/entity"
	"netshop/shop-service/internal/app/shop/infrastructure"
	"netshop/shop-service/internal/app/shop/policy"
	"netshop/shop-service/internal/app/shop/repository"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// OrderService - заказы и их позиции. Стоимость заказа не хранится и
// считается при каждом чтении по текущим ценам товаров.
type OrderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	publisher   infrastructure.MessagePublisher
	policy      *policy.Policy
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	publisher infrastructure.MessagePublisher,
	p *policy.Policy,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		publisher:   publisher,
		policy:      p,
	}
}

// ListOrders - администратор видит все заказы, остальные только свои
func (s *OrderService) ListOrders(ctx context.Context, actor policy.Actor, filter entity.OrderFilter) ([]entity.Order, error) {
	if _, err := s.policy.Check(policy.EntityOrder, policy.ActionList, actor); err != nil {
		return nil, err
	}
	if !actor.IsAdmin {
		creator := actor.ID
		filter.CreatorID = &creator
	}

	orders, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err, "list orders")
	}
	return orders, nil
}

func (s *OrderService) GetOrder(ctx context.Context, actor policy.Actor, id uuid.UUID) (*entity.Order, error) {
	return s.loadForAction(ctx, actor, id, policy.ActionRetrieve)
}

// loadForAction проверяет права в две фазы: по таблице до загрузки заказа
// и по владельцу после нее, если уровень действия этого требует
func (s *OrderService) loadForAction(ctx context.Context, actor policy.Actor, id uuid.UUID, action policy.Action) (*entity.Order, error) {
	needsOwner, err := s.policy.Check(policy.EntityOrder, action, actor)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "get order")
	}

	if needsOwner {
		if err := s.policy.CheckOwner(actor, order.CreatorID); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// CreateOrder создает заказ со статусом NEW от имени актора
func (s *OrderService) CreateOrder(ctx context.Context, actor policy.Actor, req *entity.CreateOrderRequest) (*entity.Order, error) {
	if _, err := s.policy.Check(policy.EntityOrder, policy.ActionCreate, actor); err != nil {
		return nil, err
	}

	positions, err := s.buildPositions(ctx, req.Positions)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := &entity.Order{
		ID:        uuid.New(),
		CreatorID: actor.ID,
		Status:    entity.OrderStatusNew,
		Positions: positions,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, mapRepoError(err, "create order")
	}
	metrics.OrdersCreated.Inc()

	created, err := s.orderRepo.GetByID(ctx, order.ID)
	if err != nil {
		return nil, mapRepoError(err, "get order")
	}
	metrics.OrdersAmount.Add(created.TotalCost().InexactFloat64())

	s.publishOrderEvent(ctx, entity.EventOrderCreated, created)
	return created, nil
}

// UpdateOrder меняет статус и/или заменяет позиции заказа
func (s *OrderService) UpdateOrder(ctx context.Context, actor policy.Actor, id uuid.UUID, req *entity.UpdateOrderRequest) (*entity.Order, error) {
	order, err := s.loadForAction(ctx, actor, id, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, NewValidationError("status", fmt.Sprintf("%q is not a valid choice", *req.Status))
		}
		order.Status = *req.Status
	}

	replacePositions := req.Positions != nil
	if replacePositions {
		positions, err := s.buildPositions(ctx, *req.Positions)
		if err != nil {
			return nil, err
		}
		order.Positions = positions
	}
	order.UpdatedAt = time.Now()

	if err := s.orderRepo.Update(ctx, order, replacePositions); err != nil {
		return nil, mapRepoError(err, "update order")
	}

	updated, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "get order")
	}

	s.publishOrderEvent(ctx, entity.EventOrderUpdated, updated)
	return updated, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	order, err := s.loadForAction(ctx, actor, id, policy.ActionDestroy)
	if err != nil {
		return err
	}

	if err := s.orderRepo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "delete order")
	}

	s.publishOrderEvent(ctx, entity.EventOrderDeleted, order)
	return nil
}

// buildPositions проверяет корзину и наличие товаров
func (s *OrderService) buildPositions(ctx context.Context, reqs []entity.PositionRequest) ([]entity.Position, error) {
	if len(reqs) == 0 {
		return nil, NewValidationError("positions", "cart is empty")
	}

	verr := &ValidationError{}
	for i, p := range reqs {
		if p.Quantity < 1 {
			verr.Add(fmt.Sprintf("positions[%d].quantity", i), "must be at least 1")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	ids := lo.Map(reqs, func(p entity.PositionRequest, _ int) uuid.UUID { return p.ProductID })
	missing, err := s.productRepo.MissingIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to check products: %w", err)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, missing[0])
	}

	return lo.Map(reqs, func(p entity.PositionRequest, _ int) entity.Position {
		return entity.Position{ProductID: p.ProductID, Quantity: p.Quantity}
	}), nil
}

func (s *OrderService) publishOrderEvent(ctx context.Context, eventType string, o *entity.Order) {
	publishEvent(ctx, s.publisher, o.ID.String(), eventType, entity.OrderEvent{
		EventType:      eventType,
		OrderID:        o.ID,
		CreatorID:      o.CreatorID,
		Status:         o.Status,
		TotalCost:      o.TotalCost(),
		PositionsCount: len(o.Positions),
		Timestamp:      time.Now(),
	})
}
