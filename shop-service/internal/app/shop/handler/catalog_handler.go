package handler

import (
	"net/http"

	"netshop/shop-service/internal/app/shop/entity"
	"netshop/shop-service/internal/app/shop/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// CatalogHandler обрабатывает HTTP запросы для товаров и подборок
type CatalogHandler struct {
	catalogService service.CatalogServiceInterface
	validator      *validator.Validate
}

func NewCatalogHandler(catalogService service.CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		validator:      newValidator(),
	}
}

// === PRODUCTS HANDLERS ===

// ListProducts обрабатывает GET /products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	filter, err := parseProductFilter(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}

	products, err := h.catalogService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.NewListResponse(products))
}

// GetProduct обрабатывает GET /products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// CreateProduct обрабатывает POST /products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req entity.CreateProductRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// UpdateProduct обрабатывает PUT и PATCH /products/:id
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req entity.UpdateProductRequest
	if isFullUpdate(c) {
		var full entity.CreateProductRequest
		if !bindJSON(c, h.validator, &full) {
			return
		}
		if full.Price == nil {
			respondError(c, service.NewValidationError("price", "this field is required"))
			return
		}
		req = full.ToUpdate()
	} else if !bindJSON(c, h.validator, &req) {
		return
	}

	product, err := h.catalogService.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct обрабатывает DELETE /products/:id
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// === COLLECTIONS HANDLERS ===

// ListCollections обрабатывает GET /collections (полный список кешируется)
func (h *CatalogHandler) ListCollections(c *gin.Context) {
	filter, err := parseCollectionFilter(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}

	collections, err := h.catalogService.ListCollections(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.NewListResponse(lo.Map(collections, func(col entity.Collection, _ int) entity.CollectionResponse {
		return entity.NewCollectionResponse(&col)
	})))
}

func (h *CatalogHandler) GetCollection(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	collection, err := h.catalogService.GetCollection(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.NewCollectionResponse(collection))
}

func (h *CatalogHandler) CreateCollection(c *gin.Context) {
	var req entity.CreateCollectionRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}

	collection, err := h.catalogService.CreateCollection(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entity.NewCollectionResponse(collection))
}

func (h *CatalogHandler) UpdateCollection(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req entity.UpdateCollectionRequest
	if isFullUpdate(c) {
		var full entity.CreateCollectionRequest
		if !bindJSON(c, h.validator, &full) {
			return
		}
		req = full.ToUpdate()
	} else if !bindJSON(c, h.validator, &req) {
		return
	}

	collection, err := h.catalogService.UpdateCollection(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.NewCollectionResponse(collection))
}

func (h *CatalogHandler) DeleteCollection(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.catalogService.DeleteCollection(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
