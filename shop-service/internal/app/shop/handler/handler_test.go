package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"netshop/shop-service/internal/app/shop/entity"
	inframocks "netshop/shop-service/internal/app/shop/infrastructure/mocks"
	"netshop/shop-service/internal/app/shop/policy"
	"netshop/shop-service/internal/app/shop/repository"
	"netshop/shop-service/internal/app/shop/repository/mocks"
	"netshop/shop-service/internal/app/shop/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testEnv struct {
	router      *gin.Engine
	products    *mocks.MockProductRepository
	collections *mocks.MockCollectionRepository
	orders      *mocks.MockOrderRepository
	reviews     *mocks.MockReviewRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		products:    new(mocks.MockProductRepository),
		collections: new(mocks.MockCollectionRepository),
		orders:      new(mocks.MockOrderRepository),
		reviews:     new(mocks.MockReviewRepository),
	}
	publisher := new(inframocks.MockMessagePublisher)
	publisher.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	p := policy.Default()
	handlers := Handlers{
		Catalog: NewCatalogHandler(service.NewCatalogService(env.products, env.collections, nil, publisher, time.Hour)),
		Orders:  NewOrderHandler(service.NewOrderService(env.orders, env.products, publisher, p)),
		Reviews: NewReviewHandler(service.NewReviewService(env.reviews, publisher, p)),
		Health: NewHealthHandler(serviceName, map[string]HealthCheck{
			"database": func(context.Context) error { return nil },
		}),
	}
	env.router = SetupRoutes(handlers, NewAuthMiddleware(testSecret, "admin", p), []string{"http://localhost:3000"})
	return env
}

func token(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	claims := JWTClaims{
		UserID:   userID.String(),
		RoleName: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (e *testEnv) do(method, path, bearer string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

var (
	adminID = uuid.New()
	userID  = uuid.New()
)

// ===================== Access policy over HTTP =====================

func TestProducts_AnonymousCanList(t *testing.T) {
	env := newTestEnv(t)
	env.products.On("List", mock.Anything, entity.ProductFilter{}).Return([]entity.Product{}, nil)

	w := env.do(http.MethodGet, "/products", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProducts_CreateByRole(t *testing.T) {
	body := map[string]any{"name": "Кофе", "description": "Зерно", "price": "12.50"}

	tests := []struct {
		name   string
		bearer func(t *testing.T) string
		want   int
	}{
		{"anonymous", func(*testing.T) string { return "" }, http.StatusUnauthorized},
		{"customer", func(t *testing.T) string { return token(t, userID, "customer") }, http.StatusForbidden},
		{"admin", func(t *testing.T) string { return token(t, adminID, "admin") }, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.products.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()

			w := env.do(http.MethodPost, "/products", tt.bearer(t), body)

			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestProducts_CreateReturnsBody(t *testing.T) {
	env := newTestEnv(t)
	env.products.On("Create", mock.Anything, mock.Anything).Return(nil)

	w := env.do(http.MethodPost, "/products", token(t, adminID, "admin"),
		map[string]any{"name": "Кофе", "price": 12.5})

	require.Equal(t, http.StatusCreated, w.Code)
	var product entity.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &product))
	assert.Equal(t, "Кофе", product.Name)
	assert.True(t, decimal.RequireFromString("12.5").Equal(product.Price))
}

func TestProducts_CreateRejectsUnstorablePrice(t *testing.T) {
	for _, price := range []string{"1.005", "100000000000000"} {
		t.Run(price, func(t *testing.T) {
			env := newTestEnv(t)

			w := env.do(http.MethodPost, "/products", token(t, adminID, "admin"),
				map[string]any{"name": "Кофе", "price": price})

			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			var resp entity.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Contains(t, resp.Details, "price")
			env.products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestProducts_PatchRejectsUnstorablePrice(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPatch, "/products/"+uuid.NewString(), token(t, adminID, "admin"),
		map[string]any{"price": "12.345"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env.products.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestProducts_AnonymousWithInvalidBodyGets401(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/products", "", map[string]any{"name": ""})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProducts_InvalidToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/products", "not-a-jwt", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProducts_PriceFilterIsExclusive(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	env.products.On("List", mock.Anything, mock.MatchedBy(func(f entity.ProductFilter) bool {
		return f.PriceFrom != nil && f.PriceFrom.Equal(decimal.NewFromInt(100)) &&
			f.PriceTo != nil && f.PriceTo.Equal(decimal.NewFromInt(500))
	})).Return([]entity.Product{{ID: uuid.New(), Name: "mid", Price: decimal.NewFromInt(250)}}, nil)

	// Act
	w := env.do(http.MethodGet, "/products?price_from=100&price_to=500", "", nil)

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	var resp entity.ListResponse[entity.Product]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	env.products.AssertExpectations(t)
}

func TestProducts_MalformedFilter(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/products?price_from=abc", "", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp entity.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Details, "price_from")
}

func TestProducts_DeleteReturns204(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New()
	env.products.On("Delete", mock.Anything, id).Return(nil)

	w := env.do(http.MethodDelete, "/products/"+id.String(), token(t, adminID, "admin"), nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestProducts_UnknownIDReturns404(t *testing.T) {
	env := newTestEnv(t)
	env.products.On("GetByID", mock.Anything, mock.Anything).Return(nil, repository.ErrProductNotFound)

	w := env.do(http.MethodGet, "/products/"+uuid.NewString(), "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProducts_PutRequiresAllFields(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPut, "/products/"+uuid.NewString(), token(t, adminID, "admin"), map[string]any{"name": "x"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProducts_PatchChangesOnlyGivenFields(t *testing.T) {
	env := newTestEnv(t)
	existing := &entity.Product{ID: uuid.New(), Name: "Old", Description: "keep", Price: decimal.NewFromInt(1)}
	env.products.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)
	env.products.On("Update", mock.Anything, mock.MatchedBy(func(p *entity.Product) bool {
		return p.Name == "New" && p.Description == "keep"
	})).Return(nil)

	w := env.do(http.MethodPatch, "/products/"+existing.ID.String(), token(t, adminID, "admin"), map[string]any{"name": "New"})

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

// ===================== Orders =====================

func pricedOrder(creator uuid.UUID) *entity.Order {
	a := &entity.Product{ID: uuid.New(), Name: "A", Price: decimal.NewFromInt(100)}
	b := &entity.Product{ID: uuid.New(), Name: "B", Price: decimal.NewFromInt(50)}
	return &entity.Order{
		ID:        uuid.New(),
		CreatorID: creator,
		Status:    entity.OrderStatusNew,
		Positions: []entity.Position{
			{ID: uuid.New(), ProductID: a.ID, Product: a, Quantity: 2},
			{ID: uuid.New(), ProductID: b.ID, Product: b, Quantity: 2},
		},
	}
}

func TestOrders_GetShowsTotalCost(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	order := pricedOrder(userID)
	env.orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)

	// Act
	w := env.do(http.MethodGet, "/orders/"+order.ID.String(), token(t, userID, "customer"), nil)

	// Assert
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp entity.OrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, decimal.NewFromInt(300).Equal(resp.TotalCost), resp.TotalCost.String())
	require.Len(t, resp.Positions, 2)
	assert.Equal(t, "A", resp.Positions[0].Name)
}

func TestOrders_StrangerGets403(t *testing.T) {
	env := newTestEnv(t)
	order := pricedOrder(userID)
	env.orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)

	w := env.do(http.MethodGet, "/orders/"+order.ID.String(), token(t, uuid.New(), "customer"), nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOrders_AnonymousListGets401(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/orders", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOrders_CreateWithUnknownProductGets404(t *testing.T) {
	env := newTestEnv(t)
	unknown := uuid.New()
	env.products.On("MissingIDs", mock.Anything, []uuid.UUID{unknown}).Return([]uuid.UUID{unknown}, nil)

	w := env.do(http.MethodPost, "/orders", token(t, userID, "customer"), map[string]any{
		"positions": []map[string]any{{"product_id": unknown, "quantity": 1}},
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrders_CreateEmptyCartGets400(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/orders", token(t, userID, "customer"), map[string]any{"positions": []any{}})

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp entity.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Details, "positions")
}

func TestOrders_PatchWithUnknownStatusGets400(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPatch, "/orders/"+uuid.NewString(), token(t, adminID, "admin"), map[string]any{"status": "Done"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp entity.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Details, "status")
}

func TestOrders_CustomerCannotUpdate(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPatch, "/orders/"+uuid.NewString(), token(t, userID, "customer"), map[string]any{"status": "DONE"})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

// ===================== Reviews =====================

func TestReviews_DuplicateGets400WithMessage(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	env.reviews.On("Create", mock.Anything, mock.Anything).Return(nil, int64(1))

	// Act
	w := env.do(http.MethodPost, "/reviews", token(t, userID, "customer"), map[string]any{
		"product_id": uuid.New(), "text": "Еще раз", "rating": 4,
	})

	// Assert
	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp entity.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "We have already received your review. Thank you!", resp.Error)
}

func TestReviews_RatingOutOfRangeGets400(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/reviews", token(t, userID, "customer"), map[string]any{
		"product_id": uuid.New(), "text": "ok", "rating": 7,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviews_AnonymousCanRetrieve(t *testing.T) {
	env := newTestEnv(t)
	review := &entity.Review{ID: uuid.New(), CreatorID: userID, Rating: 5}
	env.reviews.On("GetByID", mock.Anything, review.ID).Return(review, nil)

	w := env.do(http.MethodGet, "/reviews/"+review.ID.String(), "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReviews_StrangerCannotDelete(t *testing.T) {
	env := newTestEnv(t)
	review := &entity.Review{ID: uuid.New(), CreatorID: userID}
	env.reviews.On("GetByID", mock.Anything, review.ID).Return(review, nil)

	w := env.do(http.MethodDelete, "/reviews/"+review.ID.String(), token(t, uuid.New(), "customer"), nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	env.reviews.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// ===================== Misc =====================

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealth_Unhealthy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHealthHandler(serviceName, map[string]HealthCheck{
		"database": func(context.Context) error { return errors.New("down") },
	})
	router := gin.New()
	router.GET("/health", h.Health)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestInvalidPathID(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/products/not-a-uuid", "", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusFor_InternalError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
	assert.Equal(t, http.StatusNotFound, statusFor(service.ErrCollectionNotFound))
}
