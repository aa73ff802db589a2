package handler

import (
	"net/http"

	"netshop/shop-service/internal/app/shop/entity"
	"netshop/shop-service/internal/app/shop/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ReviewHandler обрабатывает HTTP запросы для отзывов
type ReviewHandler struct {
	reviewService service.ReviewServiceInterface
	validator     *validator.Validate
}

func NewReviewHandler(reviewService service.ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		validator:     newValidator(),
	}
}

func (h *ReviewHandler) ListReviews(c *gin.Context) {
	filter, err := parseReviewFilter(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}

	reviews, err := h.reviewService.ListReviews(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.NewListResponse(reviews))
}

func (h *ReviewHandler) GetReview(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	review, err := h.reviewService.GetReview(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

// CreateReview обрабатывает POST /reviews; повторный отзыв на товар - 400
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var req entity.CreateReviewRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

// UpdateReview обрабатывает PUT и PATCH /reviews/:id. product_id в теле игнорируется.
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req entity.UpdateReviewRequest
	if isFullUpdate(c) {
		var full entity.ReplaceReviewRequest
		if !bindJSON(c, h.validator, &full) {
			return
		}
		req = full.ToUpdate()
	} else if !bindJSON(c, h.validator, &req) {
		return
	}

	review, err := h.reviewService.UpdateReview(c.Request.Context(), actorFrom(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.reviewService.DeleteReview(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
