package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"netshop/shop-service/internal/app/shop/repository"
)

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrProductNotFound    = errors.New("product not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrReviewNotFound     = errors.New("review not found")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrDuplicateReview    = errors.New("We have already received your review. Thank you!")
)

// ValidationError - ошибка входных данных с описанием по полям
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

// OrNil возвращает nil, если полей с ошибками нет
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// mapRepoError переводит ошибки репозитория в ошибки сервиса
func mapRepoError(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrProductNotFound):
		return ErrProductNotFound
	case errors.Is(err, repository.ErrOrderNotFound):
		return ErrOrderNotFound
	case errors.Is(err, repository.ErrReviewNotFound):
		return ErrReviewNotFound
	case errors.Is(err, repository.ErrCollectionNotFound):
		return ErrCollectionNotFound
	case errors.Is(err, repository.ErrDuplicateReview):
		return ErrDuplicateReview
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}
