package handler

import (
	"net/http"

	"netshop/shop-service/internal/app/shop/entity"
	"netshop/shop-service/internal/app/shop/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// OrderHandler обрабатывает HTTP запросы для заказов
type OrderHandler struct {
	orderService service.OrderServiceInterface
	validator    *validator.Validate
}

func NewOrderHandler(orderService service.OrderServiceInterface) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		validator:    newValidator(),
	}
}

func toOrderResponses(orders []entity.Order) []entity.OrderResponse {
	return lo.Map(orders, func(o entity.Order, _ int) entity.OrderResponse {
		return entity.NewOrderResponse(&o)
	})
}

// ListOrders обрабатывает GET /orders; не-администратор получает только свои заказы
func (h *OrderHandler) ListOrders(c *gin.Context) {
	filter, err := parseOrderFilter(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}

	orders, err := h.orderService.ListOrders(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.NewListResponse(toOrderResponses(orders)))
}

// GetOrder обрабатывает GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.NewOrderResponse(order))
}

// CreateOrder обрабатывает POST /orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req entity.CreateOrderRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entity.NewOrderResponse(order))
}

// UpdateOrder обрабатывает PUT и PATCH /orders/:id
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req entity.UpdateOrderRequest
	if isFullUpdate(c) {
		var full entity.ReplaceOrderRequest
		if !bindJSON(c, h.validator, &full) {
			return
		}
		req = full.ToUpdate()
	} else if !bindJSON(c, h.validator, &req) {
		return
	}

	order, err := h.orderService.UpdateOrder(c.Request.Context(), actorFrom(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.NewOrderResponse(order))
}

// DeleteOrder обрабатывает DELETE /orders/:id
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.orderService.DeleteOrder(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
