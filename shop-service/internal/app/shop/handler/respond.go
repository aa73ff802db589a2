package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"netshop/pkg/logger"
	"netshop/shop-service/internal/app/shop/entity"
	"netshop/shop-service/internal/app/shop/policy"
	"netshop/shop-service/internal/app/shop/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// newValidator - валидатор запросов: имена полей берутся из json-тегов
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("order_status", func(fl validator.FieldLevel) bool {
		return entity.OrderStatus(fl.Field().String()).IsValid()
	})
	return v
}

// statusFor сопоставляет ошибку сервиса с HTTP статусом
func statusFor(err error) int {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrDuplicateReview):
		return http.StatusBadRequest
	case errors.Is(err, policy.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, policy.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrReviewNotFound),
		errors.Is(err, service.ErrCollectionNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError отправляет ответ об ошибке. Текст внутренних ошибок наружу не уходит.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)

	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(status, entity.ErrorResponse{Error: "validation failed", Details: verr.Fields})
	case status == http.StatusInternalServerError:
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
		c.JSON(status, entity.ErrorResponse{Error: "internal server error"})
	case errors.Is(err, service.ErrDuplicateReview):
		c.JSON(status, entity.ErrorResponse{Error: service.ErrDuplicateReview.Error()})
	default:
		c.JSON(status, entity.ErrorResponse{Error: rootMessage(err)})
	}
}

// rootMessage - текст sentinel-ошибки без обертки
func rootMessage(err error) string {
	for _, sentinel := range []error{
		policy.ErrUnauthenticated, policy.ErrForbidden,
		service.ErrProductNotFound, service.ErrOrderNotFound,
		service.ErrReviewNotFound, service.ErrCollectionNotFound,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

// formatValidationError переводит ошибки validator в ValidationError по полям
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return service.NewValidationError("body", "invalid request")
	}

	verr := &service.ValidationError{}
	for _, fe := range validationErrors {
		verr.Add(fieldPath(fe), validationMessage(fe))
	}
	return verr
}

// fieldPath убирает имя корневой структуры: CreateOrderRequest.positions[0].quantity -> positions[0].quantity
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "order_status":
		return fmt.Sprintf("%q is not a valid choice", fe.Value())
	default:
		return fmt.Sprintf("failed on %s validation", fe.Tag())
	}
}

// bindJSON разбирает тело запроса и валидирует его; при ошибке сам отвечает клиенту
func bindJSON(c *gin.Context, v *validator.Validate, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid request body"})
		return false
	}
	if err := v.Struct(dst); err != nil {
		respondError(c, formatValidationError(err))
		return false
	}
	return true
}

// pathID разбирает :id; при ошибке отвечает 400
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

// isFullUpdate - PUT заменяет ресурс целиком, PATCH меняет только переданные поля
func isFullUpdate(c *gin.Context) bool {
	return c.Request.Method == http.MethodPut
}
