package handler

import (
	"time"

	"netshop/pkg/logger"
	"netshop/pkg/metrics"
	"netshop/shop-service/internal/app/shop/policy"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "shop-service"

type Handlers struct {
	Catalog *CatalogHandler
	Orders  *OrderHandler
	Reviews *ReviewHandler
	Health  *HealthHandler
}

// SetupRoutes настраивает все маршруты магазина. Права на каждый маршрут
// задает policy: Identify определяет актора, Authorize проверяет таблицу.
func SetupRoutes(h Handlers, auth *AuthMiddleware, allowOrigins []string) *gin.Engine {
	router := gin.New()

	// Recovery middleware для обработки panic
	router.Use(gin.Recovery())
	router.Use(logger.GinLoggerMiddleware())
	router.Use(metrics.GinPrometheusMiddleware(serviceName))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", logger.RequestIDHeader},
		ExposeHeaders:    []string{logger.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = allowOrigins
	}
	router.Use(cors.New(corsConfig))

	// Публичные служебные эндпоинты, мимо политики
	if h.Health != nil {
		router.GET("/health", h.Health.Health)
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("")
	api.Use(auth.Identify())

	products := api.Group("/products")
	{
		products.GET("", auth.Authorize(policy.EntityProduct, policy.ActionList), h.Catalog.ListProducts)
		products.GET("/:id", auth.Authorize(policy.EntityProduct, policy.ActionRetrieve), h.Catalog.GetProduct)
		products.POST("", auth.Authorize(policy.EntityProduct, policy.ActionCreate), h.Catalog.CreateProduct)
		products.PUT("/:id", auth.Authorize(policy.EntityProduct, policy.ActionUpdate), h.Catalog.UpdateProduct)
		products.PATCH("/:id", auth.Authorize(policy.EntityProduct, policy.ActionUpdate), h.Catalog.UpdateProduct)
		products.DELETE("/:id", auth.Authorize(policy.EntityProduct, policy.ActionDestroy), h.Catalog.DeleteProduct)
	}

	collections := api.Group("/collections")
	{
		collections.GET("", auth.Authorize(policy.EntityCollection, policy.ActionList), h.Catalog.ListCollections)
		collections.GET("/:id", auth.Authorize(policy.EntityCollection, policy.ActionRetrieve), h.Catalog.GetCollection)
		collections.POST("", auth.Authorize(policy.EntityCollection, policy.ActionCreate), h.Catalog.CreateCollection)
		collections.PUT("/:id", auth.Authorize(policy.EntityCollection, policy.ActionUpdate), h.Catalog.UpdateCollection)
		collections.PATCH("/:id", auth.Authorize(policy.EntityCollection, policy.ActionUpdate), h.Catalog.UpdateCollection)
		collections.DELETE("/:id", auth.Authorize(policy.EntityCollection, policy.ActionDestroy), h.Catalog.DeleteCollection)
	}

	orders := api.Group("/orders")
	{
		orders.GET("", auth.Authorize(policy.EntityOrder, policy.ActionList), h.Orders.ListOrders)
		orders.GET("/:id", auth.Authorize(policy.EntityOrder, policy.ActionRetrieve), h.Orders.GetOrder)
		orders.POST("", auth.Authorize(policy.EntityOrder, policy.ActionCreate), h.Orders.CreateOrder)
		orders.PUT("/:id", auth.Authorize(policy.EntityOrder, policy.ActionUpdate), h.Orders.UpdateOrder)
		orders.PATCH("/:id", auth.Authorize(policy.EntityOrder, policy.ActionUpdate), h.Orders.UpdateOrder)
		orders.DELETE("/:id", auth.Authorize(policy.EntityOrder, policy.ActionDestroy), h.Orders.DeleteOrder)
	}

	reviews := api.Group("/reviews")
	{
		reviews.GET("", auth.Authorize(policy.EntityReview, policy.ActionList), h.Reviews.ListReviews)
		reviews.GET("/:id", auth.Authorize(policy.EntityReview, policy.ActionRetrieve), h.Reviews.GetReview)
		reviews.POST("", auth.Authorize(policy.EntityReview, policy.ActionCreate), h.Reviews.CreateReview)
		reviews.PUT("/:id", auth.Authorize(policy.EntityReview, policy.ActionUpdate), h.Reviews.UpdateReview)
		reviews.PATCH("/:id", auth.Authorize(policy.EntityReview, policy.ActionUpdate), h.Reviews.UpdateReview)
		reviews.DELETE("/:id", auth.Authorize(policy.EntityReview, policy.ActionDestroy), h.Reviews.DeleteReview)
	}

	return router
}
